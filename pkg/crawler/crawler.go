// Package crawler runs the incremental news crawl: every configured listing
// page is scraped for candidate article links, links already persisted are
// dropped, and the remainder is extracted one by one over a single browser
// session.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/logging"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/sources"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/browser"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/extractor"
)

// Store supplies the link sets already persisted, used to drop known
// candidates before extraction.
type Store interface {
	ArticleLinks(ctx context.Context) (models.LinkSet, error)
	RedirectLinks(ctx context.Context) (models.LinkSet, error)
}

// Extractor carries one candidate link to a terminal outcome.
type Extractor interface {
	Extract(ctx context.Context, link, tag string) (extractor.Outcome, error)
}

// Config wires the crawler's collaborators and run settings.
type Config struct {
	Session    browser.Session
	Store      Store
	Discoverer *Discoverer
	Extractor  Extractor
	// Robots may be nil to skip robots.txt checks entirely.
	Robots *RobotsGate

	MainPageURL       string
	Pages             []sources.Page
	Cookies           []browser.Cookie
	RequestsPerSecond float64
	Logger            logging.Logger
}

// Crawler owns the run loop. Navigation is strictly sequential: one page at
// a time over one shared browser session.
type Crawler struct {
	session    browser.Session
	store      Store
	discoverer *Discoverer
	extractor  Extractor
	robots     *RobotsGate
	limiter    *rate.Limiter

	mainPageURL string
	pages       []sources.Page
	cookies     []browser.Cookie
	log         logging.Logger
}

// New validates cfg and creates a new Crawler instance
func New(cfg Config) (*Crawler, error) {
	if cfg.MainPageURL == "" {
		return nil, errors.New("main page URL is required")
	}
	if _, err := url.Parse(cfg.MainPageURL); err != nil {
		return nil, fmt.Errorf("invalid main page URL: %w", err)
	}
	if len(cfg.Pages) == 0 {
		return nil, errors.New("no listing pages configured")
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Crawler{
		session:     cfg.Session,
		store:       cfg.Store,
		discoverer:  cfg.Discoverer,
		extractor:   cfg.Extractor,
		robots:      cfg.Robots,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		mainPageURL: cfg.MainPageURL,
		pages:       cfg.Pages,
		cookies:     cfg.Cookies,
		log:         cfg.Logger,
	}, nil
}

// Run executes one full crawl and returns its statistics. A failure local to
// one article is counted and skipped; a session or store failure aborts the
// run, returning the statistics gathered so far alongside the error.
func (c *Crawler) Run(ctx context.Context) (*models.RunStats, error) {
	stats := &models.RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	c.log.Info("starting crawl",
		logging.String("run_id", stats.RunID),
		logging.Int("pages", len(c.pages)))

	if err := c.openMainPage(ctx); err != nil {
		stats.Elapsed = time.Since(stats.StartedAt)
		return stats, err
	}

	for _, page := range c.pages {
		pageStats, err := c.crawlListing(ctx, page)
		stats.AddPage(pageStats)
		if err != nil {
			stats.Elapsed = time.Since(stats.StartedAt)
			return stats, err
		}
	}

	stats.Elapsed = time.Since(stats.StartedAt)
	c.log.Info("crawl finished",
		logging.String("run_id", stats.RunID),
		logging.Int("discovered", stats.Discovered),
		logging.Int("duplicates", stats.Duplicates),
		logging.Int("persisted", stats.Persisted),
		logging.Int("redirected", stats.Redirected),
		logging.Int("failed", stats.Failed),
		logging.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// openMainPage loads the site root, installs the consent cookies and
// refreshes so the consent and promo popups never render over the content.
func (c *Crawler) openMainPage(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := c.session.Navigate(ctx, c.mainPageURL); err != nil {
		return fmt.Errorf("open main page: %w", err)
	}

	if len(c.cookies) == 0 {
		return nil
	}
	if err := c.session.SetCookies(c.cookies); err != nil {
		return fmt.Errorf("set consent cookies: %w", err)
	}
	if err := c.session.Reload(); err != nil {
		return fmt.Errorf("refresh after cookies: %w", err)
	}
	return nil
}

func (c *Crawler) crawlListing(ctx context.Context, page sources.Page) (models.PageStats, error) {
	stats := models.PageStats{Tag: page.Tag, URL: page.URL}

	if c.robots != nil && !c.robots.Allowed(page.URL) {
		c.log.Warn("listing disallowed by robots.txt", logging.String("url", page.URL))
		return stats, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return stats, err
	}

	candidates, err := c.discoverer.Discover(ctx, page)
	if err != nil {
		return stats, err
	}
	stats.Discovered = len(candidates)

	// Both sets are re-read for every listing page so links persisted under
	// an earlier tag are dropped here as well.
	articles, err := c.store.ArticleLinks(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch article links: %w", err)
	}
	redirects, err := c.store.RedirectLinks(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch redirect links: %w", err)
	}

	residual := Filter(candidates, articles, redirects)
	stats.Duplicates = stats.Discovered - len(residual)
	c.log.Info("known links dropped",
		logging.String("tag", page.Tag),
		logging.Int("duplicates", stats.Duplicates),
		logging.Int("remaining", len(residual)))

	if len(residual) == 0 {
		c.log.Info("no new articles", logging.String("tag", page.Tag))
		return stats, nil
	}

	for i, link := range residual {
		if c.robots != nil && !c.robots.Allowed(link) {
			c.log.Warn("article disallowed by robots.txt", logging.String("link", link))
			stats.Failed++
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return stats, err
		}

		c.log.Info("scraping article",
			logging.Int("n", i+1),
			logging.Int("of", len(residual)),
			logging.String("tag", page.Tag))

		outcome, err := c.extractor.Extract(ctx, link, page.Tag)
		if err != nil {
			return stats, err
		}
		switch outcome {
		case extractor.OutcomePersisted:
			stats.Persisted++
		case extractor.OutcomeRedirected:
			stats.Redirected++
		case extractor.OutcomeFailed:
			stats.Failed++
		}
	}

	return stats, nil
}
