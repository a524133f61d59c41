// Package reporter renders the statistics of one crawl run.
package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
)

// Reporter formats run statistics for the terminal.
type Reporter struct{}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{}
}

// Render formats stats in the requested format. Supported formats are
// "table" (the default when empty), "markdown" and "json".
func (r *Reporter) Render(stats *models.RunStats, format string) (string, error) {
	switch format {
	case "json":
		return r.renderJSON(stats)
	case "markdown":
		return r.renderTable(stats, true), nil
	case "table", "":
		return r.renderTable(stats, false), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (r *Reporter) renderJSON(stats *models.RunStats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// RenderArchive formats an archive summary in the same formats as Render.
func (r *Reporter) RenderArchive(summary *models.ArchiveSummary, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal report: %w", err)
		}
		return string(data), nil
	case "markdown":
		return r.renderArchive(summary, true), nil
	case "table", "":
		return r.renderArchive(summary, false), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (r *Reporter) renderArchive(summary *models.ArchiveSummary, markdown bool) string {
	render := func(t table.Writer) string {
		if markdown {
			return t.RenderMarkdown()
		}
		return t.Render()
	}

	tags := table.NewWriter()
	tags.SetStyle(table.StyleLight)
	tags.AppendHeader(table.Row{"Tag", "Articles", "With Photo", "Authors"})
	for _, tag := range summary.Tags {
		tags.AppendRow(table.Row{tag.Tag, tag.Articles, tag.WithPhoto, tag.Authors})
	}
	tags.AppendFooter(table.Row{"Total", summary.Articles, summary.WithPhoto, ""})

	authors := table.NewWriter()
	authors.SetStyle(table.StyleLight)
	authors.AppendHeader(table.Row{"Author", "Articles"})
	for _, author := range summary.TopAuthors {
		authors.AppendRow(table.Row{author.Author, author.Articles})
	}

	return fmt.Sprintf("%s\n%s\n%d articles, %d redirects, %.1f%% with photo\n",
		render(tags), render(authors),
		summary.Articles, summary.Redirects, summary.PhotoCoverage)
}

func (r *Reporter) renderTable(stats *models.RunStats, markdown bool) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Tag", "Discovered", "Duplicates", "Persisted", "Redirected", "Failed"})

	for _, page := range stats.Pages {
		t.AppendRow(table.Row{
			page.Tag,
			page.Discovered,
			page.Duplicates,
			page.Persisted,
			page.Redirected,
			page.Failed,
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		stats.Discovered,
		stats.Duplicates,
		stats.Persisted,
		stats.Redirected,
		stats.Failed,
	})

	var rendered string
	if markdown {
		rendered = t.RenderMarkdown()
	} else {
		rendered = t.Render()
	}

	return fmt.Sprintf("%s\nRun %s finished in %.2f seconds\n",
		rendered, stats.RunID, stats.Elapsed.Seconds())
}
