package reporter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
)

func sampleStats() *models.RunStats {
	stats := &models.RunStats{
		RunID:     "8d6f3a1c-0000-0000-0000-000000000000",
		StartedAt: time.Date(2023, 8, 21, 12, 0, 0, 0, time.UTC),
		Elapsed:   90 * time.Second,
	}
	stats.AddPage(models.PageStats{
		Tag:        "Biznes",
		URL:        "https://www.rynek-kolejowy.pl/biznes.html",
		Discovered: 30,
		Duplicates: 27,
		Persisted:  2,
		Redirected: 1,
	})
	stats.AddPage(models.PageStats{
		Tag:        "Tabor",
		URL:        "https://www.rynek-kolejowy.pl/tabor.html",
		Discovered: 25,
		Duplicates: 25,
	})
	return stats
}

func TestRenderTable(t *testing.T) {
	out, err := New().Render(sampleStats(), "table")
	require.NoError(t, err)

	assert.Contains(t, out, "Biznes")
	assert.Contains(t, out, "Tabor")
	assert.Contains(t, strings.ToUpper(out), "TOTAL")
	assert.Contains(t, out, "finished in 90.00 seconds")
}

func TestRenderDefaultsToTable(t *testing.T) {
	tableOut, err := New().Render(sampleStats(), "table")
	require.NoError(t, err)

	defaultOut, err := New().Render(sampleStats(), "")
	require.NoError(t, err)
	assert.Equal(t, tableOut, defaultOut)
}

func TestRenderMarkdown(t *testing.T) {
	out, err := New().Render(sampleStats(), "markdown")
	require.NoError(t, err)

	assert.Contains(t, out, "| Biznes |")
	assert.Contains(t, strings.ToUpper(out), "TOTAL")
}

func TestRenderJSON(t *testing.T) {
	out, err := New().Render(sampleStats(), "json")
	require.NoError(t, err)

	var decoded models.RunStats
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 55, decoded.Discovered)
	assert.Equal(t, 52, decoded.Duplicates)
	assert.Equal(t, 2, decoded.Persisted)
	assert.Len(t, decoded.Pages, 2)
}

func TestRenderUnsupportedFormat(t *testing.T) {
	_, err := New().Render(sampleStats(), "html")
	assert.Error(t, err)
}

func sampleSummary() *models.ArchiveSummary {
	return &models.ArchiveSummary{
		Articles:      4,
		Redirects:     1,
		WithPhoto:     3,
		PhotoCoverage: 75,
		Tags: []models.TagSummary{
			{Tag: "Biznes", Articles: 3, WithPhoto: 2, Authors: 2},
			{Tag: "Tabor", Articles: 1, WithPhoto: 1, Authors: 1},
		},
		TopAuthors: []models.AuthorCount{
			{Author: "Jan Kowalski", Articles: 3},
		},
	}
}

func TestRenderArchiveTable(t *testing.T) {
	out, err := New().RenderArchive(sampleSummary(), "table")
	require.NoError(t, err)

	assert.Contains(t, out, "Biznes")
	assert.Contains(t, out, "Jan Kowalski")
	assert.Contains(t, out, "4 articles, 1 redirects, 75.0% with photo")
}

func TestRenderArchiveJSON(t *testing.T) {
	out, err := New().RenderArchive(sampleSummary(), "json")
	require.NoError(t, err)

	var decoded models.ArchiveSummary
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 4, decoded.Articles)
	assert.Len(t, decoded.Tags, 2)
}

func TestRenderArchiveUnsupportedFormat(t *testing.T) {
	_, err := New().RenderArchive(sampleSummary(), "csv")
	assert.Error(t, err)
}
