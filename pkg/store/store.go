// Package store persists article and redirect records in SQLite. The two
// tables keep the layout of the historical messages.db, so an existing
// database keeps working.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_table (
	id INTEGER PRIMARY KEY,
	link TEXT UNIQUE,
	tag TEXT,
	date TEXT,
	topic TEXT,
	photo TEXT,
	message_lead TEXT,
	author TEXT
);

CREATE TABLE IF NOT EXISTS redirected_table (
	id INTEGER PRIMARY KEY,
	link TEXT UNIQUE,
	redirected TEXT DEFAULT 'Redirected'
);
`

// Store wraps the SQLite database holding the two link tables.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the SQLite database at path and applies the
// production pragmas. The schema is not touched here; see CreateTables.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store for tests. MaxOpenConns is pinned to 1
// because each connection to ":memory:" is a separate database.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// TablesExist reports whether both link tables are present.
func (s *Store) TablesExist(ctx context.Context) (bool, error) {
	for _, table := range []string{"news_table", "redirected_table"} {
		var name string
		err := s.db.GetContext(ctx, &name,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("check table %s: %w", table, err)
		}
	}
	return true, nil
}

// CreateTables creates the link tables if they do not exist yet.
func (s *Store) CreateTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// InsertArticle writes one article record. Inserting a link that is already
// present is a no-op: link carries a UNIQUE constraint and the insert is
// issued with OR IGNORE.
func (s *Store) InsertArticle(ctx context.Context, rec models.ArticleRecord) error {
	const q = `
		INSERT OR IGNORE INTO news_table (link, tag, date, topic, photo, message_lead, author)
		VALUES (:link, :tag, :date, :topic, :photo, :message_lead, :author)`
	if _, err := s.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("insert article %s: %w", rec.Link, err)
	}
	return nil
}

// InsertRedirect records a link as redirected. Idempotent like InsertArticle.
func (s *Store) InsertRedirect(ctx context.Context, link string) error {
	const q = `INSERT OR IGNORE INTO redirected_table (link) VALUES (?)`
	if _, err := s.db.ExecContext(ctx, q, link); err != nil {
		return fmt.Errorf("insert redirect %s: %w", link, err)
	}
	return nil
}

// ArticleLinks returns the set of links already persisted as articles.
func (s *Store) ArticleLinks(ctx context.Context) (models.LinkSet, error) {
	return s.fetchLinks(ctx, "news_table")
}

// RedirectLinks returns the set of links already recorded as redirects.
func (s *Store) RedirectLinks(ctx context.Context) (models.LinkSet, error) {
	return s.fetchLinks(ctx, "redirected_table")
}

func (s *Store) fetchLinks(ctx context.Context, table string) (models.LinkSet, error) {
	var links []string
	if err := s.db.SelectContext(ctx, &links, "SELECT link FROM "+table); err != nil {
		return nil, fmt.Errorf("fetch links from %s: %w", table, err)
	}
	return models.NewLinkSet(links...), nil
}

// CountArticles returns the number of persisted articles.
func (s *Store) CountArticles(ctx context.Context) (int, error) {
	return s.countRows(ctx, "news_table")
}

// CountRedirects returns the number of recorded redirects.
func (s *Store) CountRedirects(ctx context.Context) (int, error) {
	return s.countRows(ctx, "redirected_table")
}

func (s *Store) countRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return n, nil
}

// TagSummaries aggregates the archive per tag, most populated tag first.
func (s *Store) TagSummaries(ctx context.Context) ([]models.TagSummary, error) {
	const q = `
		SELECT tag,
		       COUNT(*) AS articles,
		       SUM(CASE WHEN photo != ? THEN 1 ELSE 0 END) AS with_photo,
		       COUNT(DISTINCT author) AS authors
		FROM news_table
		GROUP BY tag
		ORDER BY articles DESC, tag`
	var out []models.TagSummary
	if err := s.db.SelectContext(ctx, &out, q, models.NoPhoto); err != nil {
		return nil, fmt.Errorf("tag summaries: %w", err)
	}
	return out, nil
}

// TopAuthors returns the authors with the most persisted articles,
// alphabetical within equal counts.
func (s *Store) TopAuthors(ctx context.Context, limit int) ([]models.AuthorCount, error) {
	const q = `
		SELECT author, COUNT(*) AS articles
		FROM news_table
		GROUP BY author
		ORDER BY articles DESC, author
		LIMIT ?`
	var out []models.AuthorCount
	if err := s.db.SelectContext(ctx, &out, q, limit); err != nil {
		return nil, fmt.Errorf("top authors: %w", err)
	}
	return out, nil
}
