// Package analyzer derives summary statistics from the persisted news
// archive: totals, the per-tag breakdown and the most frequent authors.
package analyzer

import (
	"context"
	"fmt"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
)

// DefaultTopAuthors bounds the author ranking in a summary.
const DefaultTopAuthors = 10

// Store is the read-only slice of the persistent store the analyzer queries.
type Store interface {
	CountArticles(ctx context.Context) (int, error)
	CountRedirects(ctx context.Context) (int, error)
	TagSummaries(ctx context.Context) ([]models.TagSummary, error)
	TopAuthors(ctx context.Context, limit int) ([]models.AuthorCount, error)
}

// Analyzer computes archive summaries.
type Analyzer struct {
	store      Store
	topAuthors int
}

// New creates a new Analyzer instance
func New(store Store) *Analyzer {
	return &Analyzer{store: store, topAuthors: DefaultTopAuthors}
}

// Summarize reads the archive and returns its totals, per-tag coverage and
// author ranking. An empty archive yields a summary of zeroes.
func (a *Analyzer) Summarize(ctx context.Context) (*models.ArchiveSummary, error) {
	articles, err := a.store.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize archive: %w", err)
	}
	redirects, err := a.store.CountRedirects(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize archive: %w", err)
	}
	tags, err := a.store.TagSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize archive: %w", err)
	}
	authors, err := a.store.TopAuthors(ctx, a.topAuthors)
	if err != nil {
		return nil, fmt.Errorf("summarize archive: %w", err)
	}

	summary := &models.ArchiveSummary{
		Articles:   articles,
		Redirects:  redirects,
		Tags:       tags,
		TopAuthors: authors,
	}
	for _, tag := range tags {
		summary.WithPhoto += tag.WithPhoto
	}
	if summary.Articles > 0 {
		summary.PhotoCoverage = float64(summary.WithPhoto) / float64(summary.Articles) * 100
	}
	return summary, nil
}
