package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/short-links/internal/connection"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// Timeouts bounds each class of store call.
type Timeouts struct {
	Lookup time.Duration // single-record reads
	Scan   time.Duration // full listings
	Write  time.Duration // inserts, updates, deletes and click increments
}

// DefaultTimeouts returns the default per-class deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Lookup: 2 * time.Second,
		Scan:   5 * time.Second,
		Write:  3 * time.Second,
	}
}

// Guard wraps a Repository with a connection-state check and a deadline per call.
// Raw store faults come back as shortener.ErrStoreUnavailable. Calls are never retried.
type Guard struct {
	store    shortener.Repository
	status   connection.Status
	timeouts Timeouts
	logger   *zap.Logger
}

// NewGuard creates a new availability guard.
func NewGuard(store shortener.Repository, status connection.Status, timeouts Timeouts, logger *zap.Logger) *Guard {
	return &Guard{
		store:    store,
		status:   status,
		timeouts: timeouts,
		logger:   logger,
	}
}

type result[T any] struct {
	value T
	err   error
}

// call runs fn under the guard. When the deadline passes first, fn keeps running
// in the background and its result is dropped.
func call[T any](
	ctx context.Context, g *Guard, op string, timeout time.Duration, fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	if state := g.status.State(); state != connection.StateConnected {
		return zero, fmt.Errorf("%s: store %s: %w", op, state, shortener.ErrStoreUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1)

	go func() {
		value, err := fn(ctx)
		done <- result[T]{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, g.normalize(op, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return zero, g.normalize(op, r.err)
		}

		return r.value, nil
	}
}

func exec(ctx context.Context, g *Guard, op string, timeout time.Duration, fn func(ctx context.Context) error) error {
	_, err := call(ctx, g, op, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})

	return err
}

func (g *Guard) normalize(op string, err error) error {
	switch {
	case errors.Is(err, shortener.ErrNotFound),
		errors.Is(err, shortener.ErrConflict),
		errors.Is(err, shortener.ErrStoreUnavailable):
		return err
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		g.logger.Warn("store call timed out", zap.String("op", op))

		return fmt.Errorf("%s: %w", op, shortener.ErrStoreTimeout)
	default:
		g.logger.Warn("store call failed", zap.String("op", op), zap.Error(err))

		return fmt.Errorf("%s: %w: %s", op, shortener.ErrStoreUnavailable, err.Error())
	}
}

func (g *Guard) Insert(ctx context.Context, link *shortener.Link) error {
	// Insert assigns link.ID, so the store works on a copy that is only
	// published back once the call has won the race against the deadline.
	inserted, err := call(ctx, g, "insert", g.timeouts.Write, func(ctx context.Context) (*shortener.Link, error) {
		c := *link
		if err := g.store.Insert(ctx, &c); err != nil {
			return nil, err
		}

		return &c, nil
	})
	if err != nil {
		return err
	}

	*link = *inserted

	return nil
}

func (g *Guard) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	return call(ctx, g, "get by code", g.timeouts.Lookup, func(ctx context.Context) (*shortener.Link, error) {
		return g.store.GetByCode(ctx, code)
	})
}

func (g *Guard) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.Link, error) {
	return call(ctx, g, "get by url", g.timeouts.Lookup, func(ctx context.Context) (*shortener.Link, error) {
		return g.store.GetByOriginalURL(ctx, originalURL)
	})
}

func (g *Guard) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return call(ctx, g, "get by id", g.timeouts.Lookup, func(ctx context.Context) (*shortener.Link, error) {
		return g.store.GetByID(ctx, id)
	})
}

func (g *Guard) List(ctx context.Context) ([]*shortener.Link, error) {
	return call(ctx, g, "list", g.timeouts.Scan, g.store.List)
}

func (g *Guard) Save(ctx context.Context, link *shortener.Link) error {
	c := *link

	return exec(ctx, g, "save", g.timeouts.Write, func(ctx context.Context) error {
		return g.store.Save(ctx, &c)
	})
}

func (g *Guard) IncrementClicks(ctx context.Context, code shortener.Code) error {
	return exec(ctx, g, "increment clicks", g.timeouts.Write, func(ctx context.Context) error {
		return g.store.IncrementClicks(ctx, code)
	})
}

func (g *Guard) Delete(ctx context.Context, id string) error {
	return exec(ctx, g, "delete", g.timeouts.Write, func(ctx context.Context) error {
		return g.store.Delete(ctx, id)
	})
}

// Compile-time check.
var _ shortener.Repository = (*Guard)(nil)
