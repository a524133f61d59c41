package extractor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/logging"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/sources"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/browser"
)

const articleURL = "https://www.rynek-kolejowy.pl/wiadomosci/nowa-linia-116000.html"

type fakeElement struct {
	text     string
	attrs    map[string]string
	children map[string]*fakeElement
}

func (f *fakeElement) Text() (string, error) { return f.text, nil }

func (f *fakeElement) Attribute(name string) (string, error) {
	return f.attrs[name], nil
}

func (f *fakeElement) Element(selector string) (browser.Element, error) {
	child, ok := f.children[selector]
	if !ok {
		return nil, fmt.Errorf("%q: %w", selector, browser.ErrElementNotFound)
	}
	return child, nil
}

func (f *fakeElement) Elements(selector string) ([]browser.Element, error) {
	if child, ok := f.children[selector]; ok {
		return []browser.Element{child}, nil
	}
	return nil, nil
}

type fakeSession struct {
	currentURL string
	elements   map[string]*fakeElement

	navigated []string
	reloads   int
	navErr    error
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return f.navErr
}

func (f *fakeSession) Reload() error {
	f.reloads++
	return nil
}

func (f *fakeSession) CurrentURL() (string, error) { return f.currentURL, nil }

func (f *fakeSession) Element(selector string) (browser.Element, error) {
	el, ok := f.elements[selector]
	if !ok {
		return nil, fmt.Errorf("%q: %w", selector, browser.ErrElementNotFound)
	}
	return el, nil
}

func (f *fakeSession) Elements(selector string) ([]browser.Element, error) {
	if el, ok := f.elements[selector]; ok {
		return []browser.Element{el}, nil
	}
	return nil, nil
}

func (f *fakeSession) SetCookies(_ []browser.Cookie) error { return nil }

func (f *fakeSession) Close() error { return nil }

type fakeStore struct {
	articles    []models.ArticleRecord
	redirects   []string
	articleErr  error
	redirectErr error
}

func (f *fakeStore) InsertArticle(_ context.Context, rec models.ArticleRecord) error {
	if f.articleErr != nil {
		return f.articleErr
	}
	f.articles = append(f.articles, rec)
	return nil
}

func (f *fakeStore) InsertRedirect(_ context.Context, link string) error {
	if f.redirectErr != nil {
		return f.redirectErr
	}
	f.redirects = append(f.redirects, link)
	return nil
}

type fakeDownloader struct {
	urls      []string
	filenames []string
	err       error
}

func (f *fakeDownloader) Download(_ context.Context, url, filename string) error {
	f.urls = append(f.urls, url)
	f.filenames = append(f.filenames, filename)
	return f.err
}

// articleSession returns a session showing a fully populated article page.
func articleSession() *fakeSession {
	sel := sources.Default().Selectors
	return &fakeSession{
		currentURL: articleURL,
		elements: map[string]*fakeElement{
			sel.Title:  {text: "Nowa linia kolejowa"},
			sel.Lead:   {text: "Na odcinku powstanie nowa linia."},
			sel.Byline: {text: "Jan Kowalski ⚫ 21.08.2023"},
			sel.Photo:  {attrs: map[string]string{"src": "https://www.rynek-kolejowy.pl/foto/linia.jpg"}},
		},
	}
}

func newExtractor(s *fakeSession, st *fakeStore, d *fakeDownloader) *Extractor {
	return New(Config{
		Session:   s,
		Store:     st,
		Images:    d,
		Selectors: sources.Default().Selectors,
		Logger:    logging.Nop(),
	})
}

func TestExtractPersistsArticle(t *testing.T) {
	session := articleSession()
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Infrastruktura")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	require.Len(t, store.articles, 1)
	rec := store.articles[0]
	assert.Equal(t, articleURL, rec.Link)
	assert.Equal(t, "Infrastruktura", rec.Tag)
	assert.Equal(t, "Nowa linia kolejowa", rec.Topic)
	assert.Equal(t, "Na odcinku powstanie nowa linia.", rec.Lead)
	assert.Equal(t, "Jan Kowalski", rec.Author)
	assert.Equal(t, "21.08.2023", rec.Date)
	assert.Equal(t, "linia.jpg", rec.Photo)

	assert.Equal(t, []string{"https://www.rynek-kolejowy.pl/foto/linia.jpg"}, images.urls)
	assert.Equal(t, []string{"linia.jpg"}, images.filenames)
	assert.Empty(t, store.redirects)
}

func TestExtractRecordsRedirect(t *testing.T) {
	session := articleSession()
	session.currentURL = "https://www.rynek-kolejowy.pl/"
	store := &fakeStore{}

	outcome, err := newExtractor(session, store, &fakeDownloader{}).Extract(context.Background(), articleURL, "Biznes")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRedirected, outcome)

	// The requested link is recorded, not the resolved one.
	assert.Equal(t, []string{articleURL}, store.redirects)
	assert.Empty(t, store.articles)
}

func TestExtractMissingFieldSkips(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	delete(session.elements, sel.Lead)
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Tabor")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Empty(t, store.articles)
	assert.Empty(t, store.redirects)
	assert.Empty(t, images.urls)
}

func TestExtractMalformedBylineSkips(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	session.elements[sel.Byline] = &fakeElement{text: "Jan Kowalski 21.08.2023"}
	store := &fakeStore{}

	outcome, err := newExtractor(session, store, &fakeDownloader{}).Extract(context.Background(), articleURL, "Prawo")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Empty(t, store.articles)
}

func TestExtractPhotoFallback(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	delete(session.elements, sel.Photo)
	session.elements[sel.PhotoContainer] = &fakeElement{
		children: map[string]*fakeElement{
			sel.PhotoFallback: {attrs: map[string]string{"src": "https://www.rynek-kolejowy.pl/foto/peron.png"}},
		},
	}
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Pasazer")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	require.Len(t, store.articles, 1)
	assert.Equal(t, "peron.png", store.articles[0].Photo)
	assert.Equal(t, []string{"https://www.rynek-kolejowy.pl/foto/peron.png"}, images.urls)
}

func TestExtractPrimaryPhotoWins(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	session.elements[sel.PhotoContainer] = &fakeElement{
		children: map[string]*fakeElement{
			sel.PhotoFallback: {attrs: map[string]string{"src": "https://www.rynek-kolejowy.pl/foto/peron.png"}},
		},
	}
	store := &fakeStore{}

	outcome, err := newExtractor(session, store, &fakeDownloader{}).Extract(context.Background(), articleURL, "Innowacje")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)
	assert.Equal(t, "linia.jpg", store.articles[0].Photo)
}

func TestExtractResolvesRelativePhotoSrc(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	session.elements[sel.Photo] = &fakeElement{attrs: map[string]string{"src": "/zdjecia/duze/pociag.jpg"}}
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Tabor")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	// The markup carries the src relative; the download needs it absolute.
	assert.Equal(t, []string{"https://www.rynek-kolejowy.pl/zdjecia/duze/pociag.jpg"}, images.urls)
	require.Len(t, store.articles, 1)
	assert.Equal(t, "pociag.jpg", store.articles[0].Photo)
}

func TestExtractBlankPhotoSrcUsesFallback(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	session.elements[sel.Photo] = &fakeElement{}
	session.elements[sel.PhotoContainer] = &fakeElement{
		children: map[string]*fakeElement{
			sel.PhotoFallback: {attrs: map[string]string{"src": "https://www.rynek-kolejowy.pl/foto/peron.png"}},
		},
	}
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Biznes")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	require.Len(t, store.articles, 1)
	assert.Equal(t, "peron.png", store.articles[0].Photo)
	assert.Equal(t, []string{"https://www.rynek-kolejowy.pl/foto/peron.png"}, images.urls)
}

func TestExtractBlankPhotoSrcIsNoPhoto(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	session.elements[sel.Photo] = &fakeElement{}
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Prawo")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	require.Len(t, store.articles, 1)
	assert.Equal(t, models.NoPhoto, store.articles[0].Photo)
	assert.Empty(t, images.urls)
}

func TestExtractNoPhotoSentinel(t *testing.T) {
	sel := sources.Default().Selectors
	session := articleSession()
	delete(session.elements, sel.Photo)
	store := &fakeStore{}
	images := &fakeDownloader{}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Biznes")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	require.Len(t, store.articles, 1)
	assert.Equal(t, models.NoPhoto, store.articles[0].Photo)
	assert.Empty(t, images.urls)
}

func TestExtractDownloadFailureStillPersists(t *testing.T) {
	session := articleSession()
	store := &fakeStore{}
	images := &fakeDownloader{err: errors.New("connection reset")}

	outcome, err := newExtractor(session, store, images).Extract(context.Background(), articleURL, "Tabor")
	require.NoError(t, err)
	assert.Equal(t, OutcomePersisted, outcome)

	require.Len(t, store.articles, 1)
	assert.Equal(t, "linia.jpg", store.articles[0].Photo)
}

func TestExtractStoreFailureIsFatal(t *testing.T) {
	session := articleSession()
	store := &fakeStore{articleErr: errors.New("disk full")}

	_, err := newExtractor(session, store, &fakeDownloader{}).Extract(context.Background(), articleURL, "Prawo")
	assert.Error(t, err)
}

func TestExtractRedirectStoreFailureIsFatal(t *testing.T) {
	session := articleSession()
	session.currentURL = "https://www.rynek-kolejowy.pl/"
	store := &fakeStore{redirectErr: errors.New("disk full")}

	_, err := newExtractor(session, store, &fakeDownloader{}).Extract(context.Background(), articleURL, "Prawo")
	assert.Error(t, err)
}

func TestExtractNavigationFailureIsFatal(t *testing.T) {
	session := articleSession()
	session.navErr = errors.New("browser gone")

	_, err := newExtractor(session, &fakeStore{}, &fakeDownloader{}).Extract(context.Background(), articleURL, "Biznes")
	assert.Error(t, err)
	assert.Zero(t, session.reloads)
}

func TestSplitByline(t *testing.T) {
	tests := []struct {
		name       string
		byline     string
		wantAuthor string
		wantDate   string
		wantOK     bool
	}{
		{
			name:       "author and date",
			byline:     "Jan Kowalski ⚫ 21.08.2023",
			wantAuthor: "Jan Kowalski",
			wantDate:   "21.08.2023",
			wantOK:     true,
		},
		{
			name:       "extra parts ignored",
			byline:     "Jan Kowalski ⚫ 21.08.2023 ⚫ Komentarze",
			wantAuthor: "Jan Kowalski",
			wantDate:   "21.08.2023",
			wantOK:     true,
		},
		{
			name:   "no separator",
			byline: "Jan Kowalski 21.08.2023",
			wantOK: false,
		},
		{
			name:   "empty",
			byline: "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			author, date, ok := splitByline(tt.byline, "⚫")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantAuthor, author)
			assert.Equal(t, tt.wantDate, date)
		})
	}
}
