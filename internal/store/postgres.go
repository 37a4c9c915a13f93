package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/short-links/internal/shortener"
)

const pgUniqueViolation = "23505"

const linkColumns = `id, short_code, original_url, clicks, created_at`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO short_links (id, short_code, original_url, clicks, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.New()

	_, err := p.pool.Exec(ctx, query,
		pgtype.UUID{Bytes: id, Valid: true},
		string(link.Code),
		link.OriginalURL,
		link.Clicks,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shortener.ErrConflict
		}

		return err
	}

	link.ID = id.String()

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links WHERE short_code = $1`

	return scanLink(p.pool.QueryRow(ctx, query, string(code)))
}

// GetByOriginalURL returns the oldest link with this exact URL.
func (p *PostgresStore) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM short_links
		WHERE original_url = $1
		ORDER BY created_at
		LIMIT 1
	`

	return scanLink(p.pool.QueryRow(ctx, query, originalURL))
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	pgID, ok := parseID(id)
	if !ok {
		return nil, shortener.ErrNotFound
	}

	query := `SELECT ` + linkColumns + ` FROM short_links WHERE id = $1`

	return scanLink(p.pool.QueryRow(ctx, query, pgID))
}

func (p *PostgresStore) List(ctx context.Context) ([]*shortener.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM short_links ORDER BY created_at DESC`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*shortener.Link

	for rows.Next() {
		link, err := scanLink(rows)
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

func (p *PostgresStore) Save(ctx context.Context, link *shortener.Link) error {
	pgID, ok := parseID(link.ID)
	if !ok {
		return shortener.ErrNotFound
	}

	tag, err := p.pool.Exec(ctx, `UPDATE short_links SET original_url = $2 WHERE id = $1`, pgID, link.OriginalURL)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) IncrementClicks(ctx context.Context, code shortener.Code) error {
	tag, err := p.pool.Exec(ctx, `UPDATE short_links SET clicks = clicks + 1 WHERE short_code = $1`, string(code))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	pgID, ok := parseID(id)
	if !ok {
		return shortener.ErrNotFound
	}

	tag, err := p.pool.Exec(ctx, `DELETE FROM short_links WHERE id = $1`, pgID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func scanLink(row pgx.Row) (*shortener.Link, error) {
	var (
		link shortener.Link
		id   pgtype.UUID
		code string
	)

	err := row.Scan(&id, &code, &link.OriginalURL, &link.Clicks, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("scan link: %w", err)
	}

	link.ID = uuid.UUID(id.Bytes).String()
	link.Code = shortener.Code(code)

	return &link, nil
}

func parseID(id string) (pgtype.UUID, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, false
	}

	return pgtype.UUID{Bytes: u, Valid: true}, true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
