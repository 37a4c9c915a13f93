package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/short-links/internal/shortener"
)

// DefaultCacheTimeout bounds each cache round trip.
const DefaultCacheTimeout = 200 * time.Millisecond

// RedisCacheRepository wraps a Repository with Redis caching for reads.
// Cache failures and slow cache calls are ignored; the wrapped store stays the source of truth.
type RedisCacheRepository struct {
	store    shortener.Repository
	client   *redis.Client
	prefix   string
	indexKey string
	ttl      time.Duration
	timeout  time.Duration
}

// CacheOption configures a RedisCacheRepository.
type CacheOption func(*RedisCacheRepository)

// WithCacheTimeout caps each cache round trip. Non-positive values keep DefaultCacheTimeout.
func WithCacheTimeout(d time.Duration) CacheOption {
	return func(r *RedisCacheRepository) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration, opts ...CacheOption,
) *RedisCacheRepository {
	r := &RedisCacheRepository{
		store:    store,
		client:   client,
		prefix:   "link:",
		indexKey: "link_urls",
		ttl:      ttl,
		timeout:  DefaultCacheTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type cacheResult[T any] struct {
	value T
	err   error
}

// bounded runs fn with the cache deadline. A hung call is abandoned and reported as ctx.Err().
func bounded[T any](ctx context.Context, r *RedisCacheRepository, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan cacheResult[T], 1)

	go func() {
		value, err := fn(ctx)
		done <- cacheResult[T]{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	case res := <-done:
		return res.value, res.err
	}
}

// boundedExec is bounded for calls whose replies are dropped.
func (r *RedisCacheRepository) boundedExec(ctx context.Context, fn func(ctx context.Context) error) {
	_, _ = bounded(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// Insert stores a link in the underlying store and updates the cache.
func (r *RedisCacheRepository) Insert(ctx context.Context, link *shortener.Link) error {
	if err := r.store.Insert(ctx, link); err != nil {
		return err
	}

	// Write-through: update cache after successful insert
	r.cacheLink(ctx, link)

	return nil
}

// GetByCode retrieves a link by its code, checking cache first.
func (r *RedisCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	// Cache miss - fetch from store
	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// GetByOriginalURL retrieves a link by its exact URL, checking the URL index first.
func (r *RedisCacheRepository) GetByOriginalURL(ctx context.Context, originalURL string) (*shortener.Link, error) {
	code, err := bounded(ctx, r, func(ctx context.Context) (string, error) {
		return r.client.HGet(ctx, r.indexKey, urlKey(originalURL)).Result()
	})
	if err == nil {
		// The index may point at a link whose URL was since replaced.
		if link, err := r.getFromCache(ctx, shortener.Code(code)); err == nil && link.OriginalURL == originalURL {
			return link, nil
		}
	}

	link, err := r.store.GetByOriginalURL(ctx, originalURL)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

// GetByID is not cached.
func (r *RedisCacheRepository) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return r.store.GetByID(ctx, id)
}

// List is not cached.
func (r *RedisCacheRepository) List(ctx context.Context) ([]*shortener.Link, error) {
	return r.store.List(ctx)
}

// Save updates the underlying store and drops the cached entry.
func (r *RedisCacheRepository) Save(ctx context.Context, link *shortener.Link) error {
	if err := r.store.Save(ctx, link); err != nil {
		return err
	}

	r.evict(ctx, link.Code)

	return nil
}

// IncrementClicks updates the store and bumps the cached counter.
func (r *RedisCacheRepository) IncrementClicks(ctx context.Context, code shortener.Code) error {
	if err := r.store.IncrementClicks(ctx, code); err != nil {
		return err
	}

	key := r.prefix + string(code)

	r.boundedExec(ctx, func(ctx context.Context) error {
		pipe := r.client.Pipeline()
		pipe.HIncrBy(ctx, key, "clicks", 1)

		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}

		_, err := pipe.Exec(ctx)

		return err
	})

	return nil
}

// Delete removes the link from the store and the cache.
func (r *RedisCacheRepository) Delete(ctx context.Context, id string) error {
	link, err := r.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	r.evict(ctx, link.Code)
	r.boundedExec(ctx, func(ctx context.Context) error {
		return r.client.HDel(ctx, r.indexKey, urlKey(link.OriginalURL)).Err()
	})

	return nil
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	result, err := bounded(ctx, r, func(ctx context.Context) (map[string]string, error) {
		return r.client.HGetAll(ctx, r.prefix+string(code)).Result()
	})
	if err != nil {
		return nil, err
	}

	// A hash without short_code holds only a counter bumped after eviction.
	if result["short_code"] == "" {
		return nil, shortener.ErrNotFound
	}

	link := &shortener.Link{
		ID:          result["id"],
		Code:        shortener.Code(result["short_code"]),
		OriginalURL: result["original_url"],
	}

	if clicks, err := strconv.ParseInt(result["clicks"], 10, 64); err == nil {
		link.Clicks = clicks
	}

	if nanos, err := strconv.ParseInt(result["created_at"], 10, 64); err == nil {
		link.CreatedAt = time.Unix(0, nanos).UTC()
	}

	return link, nil
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.Link) {
	r.boundedExec(ctx, func(ctx context.Context) error {
		return r.writeLink(ctx, link)
	})
}

func (r *RedisCacheRepository) writeLink(ctx context.Context, link *shortener.Link) error {
	pipe := r.client.Pipeline()
	key := r.prefix + string(link.Code)

	pipe.HSet(ctx, key, map[string]interface{}{
		"id":           link.ID,
		"short_code":   string(link.Code),
		"original_url": link.OriginalURL,
		"clicks":       link.Clicks,
		"created_at":   link.CreatedAt.UnixNano(),
	})

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	pipe.HSet(ctx, r.indexKey, urlKey(link.OriginalURL), string(link.Code))

	_, err := pipe.Exec(ctx)

	return err
}

func (r *RedisCacheRepository) evict(ctx context.Context, code shortener.Code) {
	r.boundedExec(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, r.prefix+string(code)).Err()
	})
}

// Shutdown is a no-op for RedisCacheRepository (client managed externally).
func (r *RedisCacheRepository) Shutdown() error {
	return nil
}

// urlKey indexes URLs by digest so long URLs make short hash fields.
func urlKey(originalURL string) string {
	sum := sha256.Sum256([]byte(originalURL))

	return hex.EncodeToString(sum[:])
}

// Compile-time check.
var _ shortener.Repository = (*RedisCacheRepository)(nil)
