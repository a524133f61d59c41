package models

import "time"

// NoPhoto is stored in the photo column when no article image was found.
const NoPhoto = "No photo"

// ArticleRecord is one persisted news article. Link is the natural key:
// at most one record per link for the lifetime of the store.
type ArticleRecord struct {
	Link   string `db:"link" json:"link"`
	Tag    string `db:"tag" json:"tag"`
	Date   string `db:"date" json:"date"`
	Topic  string `db:"topic" json:"topic"`
	Photo  string `db:"photo" json:"photo"`
	Lead   string `db:"message_lead" json:"message_lead"`
	Author string `db:"author" json:"author"`
}

// RedirectRecord marks a link whose navigation resolved to a different URL.
// Such links are never retried as articles.
type RedirectRecord struct {
	Link string `db:"link" json:"link"`
}

// LinkSet is an unordered collection of unique link strings.
type LinkSet map[string]struct{}

// NewLinkSet builds a set from the given links.
func NewLinkSet(links ...string) LinkSet {
	s := make(LinkSet, len(links))
	for _, l := range links {
		s.Add(l)
	}
	return s
}

// Add inserts a link into the set.
func (s LinkSet) Add(link string) {
	s[link] = struct{}{}
}

// Contains reports whether the link is in the set.
func (s LinkSet) Contains(link string) bool {
	_, ok := s[link]
	return ok
}

// Len returns the number of links in the set.
func (s LinkSet) Len() int {
	return len(s)
}

// Links returns the set contents as a slice. Order is not significant.
func (s LinkSet) Links() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	return out
}

// PageStats holds the counters for one listing page pass.
type PageStats struct {
	Tag        string `json:"tag"`
	URL        string `json:"url"`
	Discovered int    `json:"discovered"`
	Duplicates int    `json:"duplicates"`
	Persisted  int    `json:"persisted"`
	Redirected int    `json:"redirected"`
	Failed     int    `json:"failed"`
}

// RunStats aggregates PageStats across one crawl run.
type RunStats struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`
	Pages      []PageStats   `json:"pages"`
	Discovered int           `json:"discovered"`
	Duplicates int           `json:"duplicates"`
	Persisted  int           `json:"persisted"`
	Redirected int           `json:"redirected"`
	Failed     int           `json:"failed"`
}

// AddPage appends one listing page's counters and folds them into the totals.
func (r *RunStats) AddPage(p PageStats) {
	r.Pages = append(r.Pages, p)
	r.Discovered += p.Discovered
	r.Duplicates += p.Duplicates
	r.Persisted += p.Persisted
	r.Redirected += p.Redirected
	r.Failed += p.Failed
}

// TagSummary aggregates the persisted articles under one tag.
type TagSummary struct {
	Tag       string `db:"tag" json:"tag"`
	Articles  int    `db:"articles" json:"articles"`
	WithPhoto int    `db:"with_photo" json:"with_photo"`
	Authors   int    `db:"authors" json:"authors"`
}

// AuthorCount pairs an author with the number of their persisted articles.
type AuthorCount struct {
	Author   string `db:"author" json:"author"`
	Articles int    `db:"articles" json:"articles"`
}

// ArchiveSummary describes the state of the whole news archive.
type ArchiveSummary struct {
	Articles      int           `json:"articles"`
	Redirects     int           `json:"redirects"`
	WithPhoto     int           `json:"with_photo"`
	PhotoCoverage float64       `json:"photo_coverage"`
	Tags          []TagSummary  `json:"tags"`
	TopAuthors    []AuthorCount `json:"top_authors"`
}
