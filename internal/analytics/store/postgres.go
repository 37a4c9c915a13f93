package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/short-links/internal/analytics"
)

const (
	kindCreated = "created"
	kindVisited = "visited"
)

// Postgres appends link events to the link_events table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL-backed analytics store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) SaveLinkCreated(ctx context.Context, event *analytics.LinkCreatedEvent) error {
	query := `
		INSERT INTO link_events (kind, short_code, original_url, client_ip, user_agent, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := p.pool.Exec(ctx, query,
		kindCreated, event.Code, event.OriginalURL, event.ClientIP, event.UserAgent, event.CreatedAt,
	); err != nil {
		return fmt.Errorf("save link created event: %w", err)
	}

	return nil
}

func (p *Postgres) SaveLinkVisited(ctx context.Context, event *analytics.LinkVisitedEvent) error {
	query := `
		INSERT INTO link_events (kind, short_code, client_ip, user_agent, referrer, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := p.pool.Exec(ctx, query,
		kindVisited, event.Code, event.ClientIP, event.UserAgent, event.Referrer, event.VisitedAt,
	); err != nil {
		return fmt.Errorf("save link visited event: %w", err)
	}

	return nil
}

// CountByCode returns how many events of each kind were recorded for code.
func (p *Postgres) CountByCode(ctx context.Context, code string) (map[string]int64, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT kind, count(*) FROM link_events WHERE short_code = $1 GROUP BY kind`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)

	for rows.Next() {
		var (
			kind  string
			count int64
		)

		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}

		counts[kind] = count
	}

	return counts, rows.Err()
}

var _ analytics.Store = (*Postgres)(nil)
