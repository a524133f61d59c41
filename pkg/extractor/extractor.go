// Package extractor drives one candidate link through the article pipeline:
// navigate, classify redirects, read the article fields, resolve the photo,
// persist the record.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/logging"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/sources"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/browser"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/utils"
)

// Outcome is the terminal state reached for one candidate link. Every link
// handed to Extract reaches exactly one of these per run.
type Outcome int

const (
	// OutcomePersisted means a new article record was written.
	OutcomePersisted Outcome = iota
	// OutcomeRedirected means the link resolved elsewhere and was recorded
	// as a redirect instead.
	OutcomeRedirected
	// OutcomeFailed means a required field was missing; the link is skipped.
	OutcomeFailed
)

// Store is the slice of the persistent store the extractor writes to.
// Both inserts are idempotent on the link key.
type Store interface {
	InsertArticle(ctx context.Context, rec models.ArticleRecord) error
	InsertRedirect(ctx context.Context, link string) error
}

// Downloader fetches the resolved photo. A failed download never blocks
// persistence.
type Downloader interface {
	Download(ctx context.Context, url, filename string) error
}

var errMalformedByline = errors.New("malformed byline")

// Extractor extracts one article per call over a shared browser session.
type Extractor struct {
	session     browser.Session
	store       Store
	images      Downloader
	selectors   sources.Selectors
	settleDelay time.Duration
	log         logging.Logger
}

// Config wires the extractor's collaborators.
type Config struct {
	Session     browser.Session
	Store       Store
	Images      Downloader
	Selectors   sources.Selectors
	SettleDelay time.Duration
	Logger      logging.Logger
}

// New creates a new Extractor instance
func New(cfg Config) *Extractor {
	return &Extractor{
		session:     cfg.Session,
		store:       cfg.Store,
		images:      cfg.Images,
		selectors:   cfg.Selectors,
		settleDelay: cfg.SettleDelay,
		log:         cfg.Logger,
	}
}

// Extract processes one candidate link. Missing-field conditions resolve to
// OutcomeFailed with a nil error; a non-nil error means the session or the
// store is unusable and the run must stop.
func (e *Extractor) Extract(ctx context.Context, link, tag string) (Outcome, error) {
	if err := browser.NavigateWithRetry(ctx, e.session, link, e.log); err != nil {
		return OutcomeFailed, fmt.Errorf("navigate article %s: %w", link, err)
	}
	time.Sleep(e.settleDelay)

	current, err := e.session.CurrentURL()
	if err != nil {
		return OutcomeFailed, fmt.Errorf("current url for %s: %w", link, err)
	}

	// Exact string comparison: the store keys links exactly as discovered,
	// so any resolved difference counts as a redirect.
	if current != link {
		e.log.Info("page was redirected",
			logging.String("requested", link),
			logging.String("resolved", current))
		if err := e.store.InsertRedirect(ctx, link); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeRedirected, nil
	}

	fields, err := e.readFields()
	if err != nil {
		if errors.Is(err, browser.ErrElementNotFound) || errors.Is(err, errMalformedByline) {
			e.log.Warn("article field missing, skipping link",
				logging.String("link", link),
				logging.Error(err))
			return OutcomeFailed, nil
		}
		return OutcomeFailed, fmt.Errorf("extract %s: %w", link, err)
	}

	photo, photoURL, err := e.resolvePhoto(link)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("resolve photo for %s: %w", link, err)
	}

	if photo != models.NoPhoto {
		if err := e.images.Download(ctx, photoURL, photo); err != nil {
			// The record keeps the resolved photo name either way.
			e.log.Warn("image download failed",
				logging.String("url", photoURL),
				logging.Error(err))
		}
	}

	rec := models.ArticleRecord{
		Link:   link,
		Tag:    tag,
		Date:   fields.date,
		Topic:  fields.topic,
		Photo:  photo,
		Lead:   fields.lead,
		Author: fields.author,
	}
	if err := e.store.InsertArticle(ctx, rec); err != nil {
		return OutcomeFailed, err
	}

	e.log.Info("article persisted",
		logging.String("link", link),
		logging.String("topic", fields.topic),
		logging.String("tag", tag),
		logging.String("author", fields.author),
		logging.String("date", fields.date),
		logging.String("photo", photo))
	return OutcomePersisted, nil
}

type articleFields struct {
	topic  string
	lead   string
	author string
	date   string
}

func (e *Extractor) readFields() (articleFields, error) {
	topic, err := e.elementText(e.selectors.Title)
	if err != nil {
		return articleFields{}, err
	}

	lead, err := e.elementText(e.selectors.Lead)
	if err != nil {
		return articleFields{}, err
	}

	byline, err := e.elementText(e.selectors.Byline)
	if err != nil {
		return articleFields{}, err
	}

	author, date, ok := splitByline(byline, e.selectors.BylineSeparator)
	if !ok {
		return articleFields{}, fmt.Errorf("%q: %w", byline, errMalformedByline)
	}

	return articleFields{topic: topic, lead: lead, author: author, date: date}, nil
}

func (e *Extractor) elementText(selector string) (string, error) {
	el, err := e.session.Element(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// splitByline splits the combined author/date block on the separator and
// returns the first two trimmed parts. Extra parts are ignored.
func splitByline(byline, separator string) (author, date string, ok bool) {
	parts := strings.Split(byline, separator)
	if len(parts) < 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// resolvePhoto walks the ordered lookup strategies until one finds an image
// with a usable src. The first hit wins and the remaining strategies are
// never consulted; the src is resolved against the page URL because the
// markup may carry it relative. With no hit the sentinel is returned and
// nothing is downloaded.
func (e *Extractor) resolvePhoto(pageURL string) (photo, photoURL string, err error) {
	strategies := []struct {
		name string
		find func() (browser.Element, error)
	}{
		{
			name: "article photo selector",
			find: func() (browser.Element, error) {
				return e.session.Element(e.selectors.Photo)
			},
		},
		{
			name: "main container image",
			find: func() (browser.Element, error) {
				container, err := e.session.Element(e.selectors.PhotoContainer)
				if err != nil {
					return nil, err
				}
				return container.Element(e.selectors.PhotoFallback)
			},
		},
	}

	for _, strategy := range strategies {
		el, err := strategy.find()
		if errors.Is(err, browser.ErrElementNotFound) {
			continue
		}
		if err != nil {
			return "", "", err
		}

		src, err := el.Attribute("src")
		if err != nil {
			return "", "", err
		}
		if src == "" {
			continue
		}

		resolved := utils.ResolveURL(pageURL, src)
		e.log.Debug("photo resolved", logging.String("strategy", strategy.name))
		return utils.SanitizeFilename(utils.FilenameFromURL(resolved)), resolved, nil
	}

	e.log.Info("photo for this article has not been found")
	return models.NoPhoto, "", nil
}
