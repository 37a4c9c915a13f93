package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/short-links/internal/shortener"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS short_links (
	id           TEXT PRIMARY KEY,
	short_code   TEXT    NOT NULL UNIQUE,
	original_url TEXT    NOT NULL,
	clicks       INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_short_links_original_url ON short_links (original_url);
CREATE INDEX IF NOT EXISTS idx_short_links_created_at ON short_links (created_at);
`

// SQLiteStore is a single-file implementation of shortener.Repository.
// created_at is stored as unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, link *shortener.Link) error {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO short_links (id, short_code, original_url, clicks, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(link.Code), link.OriginalURL, link.Clicks, link.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return shortener.ErrConflict
		}

		return err
	}

	link.ID = id

	return nil
}

func (s *SQLiteStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	return s.queryOne(ctx, `SELECT `+linkColumns+` FROM short_links WHERE short_code = ?`, string(code))
}

// GetByOriginalURL returns the oldest link with this exact URL.
func (s *SQLiteStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.Link, error) {
	return s.queryOne(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE original_url = ? ORDER BY created_at, rowid LIMIT 1`,
		originalURL,
	)
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return s.queryOne(ctx, `SELECT `+linkColumns+` FROM short_links WHERE id = ?`, id)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*shortener.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM short_links ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*shortener.Link

	for rows.Next() {
		link, err := scanSQLiteLink(rows)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return links, nil
}

func (s *SQLiteStore) Save(ctx context.Context, link *shortener.Link) error {
	return s.execOne(ctx, `UPDATE short_links SET original_url = ? WHERE id = ?`, link.OriginalURL, link.ID)
}

func (s *SQLiteStore) IncrementClicks(ctx context.Context, code shortener.Code) error {
	return s.execOne(ctx, `UPDATE short_links SET clicks = clicks + 1 WHERE short_code = ?`, string(code))
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM short_links WHERE id = ?`, id)
}

// Ping checks that the database file is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

func (s *SQLiteStore) queryOne(ctx context.Context, query string, args ...any) (*shortener.Link, error) {
	link, err := scanSQLiteLink(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shortener.ErrNotFound
	}

	return link, err
}

// execOne runs a single-row statement and reports ErrNotFound when no row matched.
func (s *SQLiteStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLink(row rowScanner) (*shortener.Link, error) {
	var (
		link      shortener.Link
		code      string
		createdAt int64
	)

	if err := row.Scan(&link.ID, &code, &link.OriginalURL, &link.Clicks, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("scan link: %w", err)
	}

	link.Code = shortener.Code(code)
	link.CreatedAt = time.Unix(0, createdAt).UTC()

	return &link, nil
}

func isSQLiteUnique(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time check.
var _ shortener.Repository = (*SQLiteStore)(nil)
