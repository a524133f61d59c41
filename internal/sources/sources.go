// Package sources loads the listing-page list and CSS selector set from a
// sources YAML file, falling back to the compiled-in site defaults.
package sources

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoPages indicates a sources file that defines no listing pages.
var ErrNoPages = errors.New("no listing pages in sources file")

// File is the parsed sources configuration.
type File struct {
	Pages     []Page    `yaml:"pages"`
	Selectors Selectors `yaml:"selectors"`
}

// Page is one topic listing page. Tag is propagated to every article
// discovered from it.
type Page struct {
	URL string `yaml:"url"`
	Tag string `yaml:"tag"`
}

// Selectors holds the CSS selectors driving discovery and extraction.
type Selectors struct {
	// ListContainer wraps the anchors on a listing page.
	ListContainer string `yaml:"list_container"`
	// SkipMarker excludes hrefs that point at comment threads, not articles.
	SkipMarker string `yaml:"skip_marker"`

	Title string `yaml:"title"`
	Lead  string `yaml:"lead"`
	// Byline is the combined author/date block, split on BylineSeparator.
	Byline          string `yaml:"byline"`
	BylineSeparator string `yaml:"byline_separator"`

	// Photo is the primary article image selector. When absent, an image
	// inside PhotoContainer (matched by PhotoFallback) is tried instead.
	Photo          string `yaml:"photo"`
	PhotoContainer string `yaml:"photo_container"`
	PhotoFallback  string `yaml:"photo_fallback"`
}

// Default returns the compiled-in configuration for rynek-kolejowy.pl.
func Default() File {
	return File{
		Pages: []Page{
			{URL: "https://www.rynek-kolejowy.pl/biznes.html", Tag: "Biznes"},
			{URL: "https://www.rynek-kolejowy.pl/infrastruktura.html", Tag: "Infrastruktura"},
			{URL: "https://www.rynek-kolejowy.pl/pasazer.html", Tag: "Pasazer"},
			{URL: "https://www.rynek-kolejowy.pl/prawo.html", Tag: "Prawo"},
			{URL: "https://www.rynek-kolejowy.pl/tabor.html", Tag: "Tabor"},
			{URL: "https://www.rynek-kolejowy.pl/zintegrowany-transport.html", Tag: "Zintegrowany Transport"},
			{URL: "https://www.rynek-kolejowy.pl/innowacje.html", Tag: "Innowacje"},
		},
		Selectors: Selectors{
			ListContainer:   ".listaWiadomosciv3",
			SkipMarker:      "#disqus_thread",
			Title:           ".wiadTit",
			Lead:            ".WiadomoscLead",
			Byline:          ".wiadSzczegol",
			BylineSeparator: "⚫",
			Photo:           "img.fotoWiadomosc",
			PhotoContainer:  "#main-1",
			PhotoFallback:   "img",
		},
	}
}

// Load reads the sources file at path. A missing file is not an error: the
// defaults are returned. A present file must define at least one page with
// both url and tag; selector fields left empty inherit the defaults.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return File{}, fmt.Errorf("read sources file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse sources file: %w", err)
	}

	pages := make([]Page, 0, len(f.Pages))
	for _, p := range f.Pages {
		if p.URL == "" || p.Tag == "" {
			continue
		}
		pages = append(pages, p)
	}
	if len(pages) == 0 {
		return File{}, ErrNoPages
	}
	f.Pages = pages

	f.Selectors = mergeSelectors(f.Selectors, Default().Selectors)
	return f, nil
}

func mergeSelectors(s, def Selectors) Selectors {
	if s.ListContainer == "" {
		s.ListContainer = def.ListContainer
	}
	if s.SkipMarker == "" {
		s.SkipMarker = def.SkipMarker
	}
	if s.Title == "" {
		s.Title = def.Title
	}
	if s.Lead == "" {
		s.Lead = def.Lead
	}
	if s.Byline == "" {
		s.Byline = def.Byline
	}
	if s.BylineSeparator == "" {
		s.BylineSeparator = def.BylineSeparator
	}
	if s.Photo == "" {
		s.Photo = def.Photo
	}
	if s.PhotoContainer == "" {
		s.PhotoContainer = def.PhotoContainer
	}
	if s.PhotoFallback == "" {
		s.PhotoFallback = def.PhotoFallback
	}
	return s
}
