package crawler

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
)

// Discoverer collects candidate article links from listing pages.
type Discoverer struct {
	session     browser.Session
	selectors   sources.Selectors
	settleDelay time.Duration
	log         logging.Logger
}

// NewDiscoverer creates a new Discoverer instance
func NewDiscoverer(session browser.Session, selectors sources.Selectors, settleDelay time.Duration, log logging.Logger) *Discoverer {
	return &Discoverer{
		session:     session,
		selectors:   selectors,
		settleDelay: settleDelay,
		log:         log,
	}
}

// Discover loads the listing page and returns the unique article links from
// every listing container, in first-seen order. A page with no containers
// yields no links and no error.
func (d *Discoverer) Discover(ctx context.Context, page sources.Page) ([]string, error) {
	if err := browser.NavigateWithRetry(ctx, d.session, page.URL, d.log); err != nil {
		return nil, fmt.Errorf("navigate listing %s: %w", page.URL, err)
	}
	time.Sleep(d.settleDelay)

	d.log.Info("scraping listing page",
		logging.String("url", page.URL),
		logging.String("tag", page.Tag))

	// Wait for the first container so a slow render is not mistaken for an
	// empty listing.
	if _, err := d.session.Element(d.selectors.ListContainer); err != nil {
		if errors.Is(err, browser.ErrElementNotFound) {
			d.log.Warn("no listing containers on page", logging.String("url", page.URL))
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", page.URL, err)
	}

	containers, err := d.session.Elements(d.selectors.ListContainer)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", page.URL, err)
	}

	seen := models.NewLinkSet()
	var links []string
	for _, container := range containers {
		anchors, err := container.Elements("a")
		if err != nil {
			d.log.Warn("listing container unreadable", logging.Error(err))
			continue
		}
		for _, anchor := range anchors {
			href, err := anchor.Attribute("href")
			if err != nil {
				d.log.Warn("anchor without readable href", logging.Error(err))
				continue
			}
			if href == "" {
				continue
			}
			// Comment-thread anchors share the container with article links
			// and are told apart only by the URL fragment.
			if strings.Contains(href, d.selectors.SkipMarker) {
				continue
			}
			if seen.Contains(href) {
				continue
			}
			seen.Add(href)
			links = append(links, href)
		}
	}

	d.log.Info("listing scraped",
		logging.String("tag", page.Tag),
		logging.Int("links", len(links)))
	return links, nil
}
