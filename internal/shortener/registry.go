package shortener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxCreateAttempts bounds code generation retries after a conflict.
const DefaultMaxCreateAttempts = 3

// RecentWindow is the trailing window counted as recent in Stats.
const RecentWindow = 24 * time.Hour

// Registry creates, resolves and manages links on top of a Repository.
type Registry struct {
	store        Repository
	generateCode CodeGenerator
	baseURL      string
	maxAttempts  int
	now          func() time.Time
	logger       *zap.Logger
	clicks       sync.WaitGroup
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBaseURL sets the base URL used for short URLs. Empty means derive it from the request origin.
func WithBaseURL(baseURL string) RegistryOption {
	return func(r *Registry) {
		r.baseURL = baseURL
	}
}

// WithMaxCreateAttempts sets how many codes Create tries before giving up with ErrConflict.
func WithMaxCreateAttempts(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry creates a new link registry.
func NewRegistry(store Repository, generator CodeGenerator, logger *zap.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:        store,
		generateCode: generator,
		maxAttempts:  DefaultMaxCreateAttempts,
		now:          time.Now,
		logger:       logger,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// BaseURL returns the base for short URLs given the request origin.
func (r *Registry) BaseURL(origin string) (string, error) {
	return ResolveBaseURL(r.baseURL, origin)
}

// Create returns the existing link for originalURL or allocates a new one.
func (r *Registry) Create(ctx context.Context, originalURL, origin string) (*Shortened, error) {
	if err := ValidateURL(originalURL); err != nil {
		return nil, err
	}

	base, err := r.BaseURL(origin)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.GetByOriginalURL(ctx, originalURL)
	if err == nil {
		return &Shortened{Link: existing, ShortURL: JoinShortURL(base, existing.Code)}, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		link := &Link{
			Code:        Code(r.generateCode()),
			OriginalURL: originalURL,
			Clicks:      0,
			CreatedAt:   r.now().UTC(),
		}

		err = r.store.Insert(ctx, link)
		if err == nil {
			return &Shortened{Link: link, ShortURL: JoinShortURL(base, link.Code), Created: true}, nil
		}

		if !errors.Is(err, ErrConflict) {
			return nil, err
		}

		if attempt >= r.maxAttempts {
			return nil, fmt.Errorf("allocate code after %d attempts: %w", attempt, err)
		}

		r.logger.Warn("short code collision, retrying",
			zap.String("code", string(link.Code)),
			zap.Int("attempt", attempt),
		)
	}
}

// Resolve returns the link for code and records a click in the background.
// A failed click update is logged and never reported to the caller.
func (r *Registry) Resolve(ctx context.Context, code Code) (*Link, error) {
	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	clickCtx := context.WithoutCancel(ctx)

	r.clicks.Add(1)

	go func() {
		defer r.clicks.Done()

		if err := r.store.IncrementClicks(clickCtx, code); err != nil {
			r.logger.Warn("failed to record click",
				zap.String("code", string(code)),
				zap.Error(err),
			)
		}
	}()

	return link, nil
}

// Get returns a link by id.
func (r *Registry) Get(ctx context.Context, id string) (*Link, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	return r.store.GetByID(ctx, id)
}

// List returns every link, newest first.
func (r *Registry) List(ctx context.Context) ([]*Link, error) {
	return r.store.List(ctx)
}

// Update replaces the target URL of a link. Code, clicks and creation time are kept.
func (r *Registry) Update(ctx context.Context, id, originalURL string) (*Link, error) {
	if err := ValidateURL(originalURL); err != nil {
		return nil, err
	}

	if err := ValidateID(id); err != nil {
		return nil, err
	}

	link, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	link.OriginalURL = originalURL

	if err := r.store.Save(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// Remove deletes a link by id.
func (r *Registry) Remove(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	return r.store.Delete(ctx, id)
}

// Stats scans every link. Ties for most clicked go to the first link in List order.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	links, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := r.now().Add(-RecentWindow)
	stats := &Stats{TotalURLs: len(links)}

	for _, link := range links {
		stats.TotalClicks += link.Clicks

		if stats.MostClicked == nil || link.Clicks > stats.MostClicked.Clicks {
			stats.MostClicked = link
		}

		if link.CreatedAt.After(cutoff) {
			stats.RecentURLs++
		}
	}

	return stats, nil
}

// Shutdown waits for pending click updates.
func (r *Registry) Shutdown() error {
	r.clicks.Wait()

	return nil
}
