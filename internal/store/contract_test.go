package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/serroba/short-links/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepository runs the behavior every shortener.Repository must share.
func testRepository(t *testing.T, newRepo func(t *testing.T) shortener.Repository) {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newLink := func(code, url string, createdAt time.Time) *shortener.Link {
		return &shortener.Link{Code: shortener.Code(code), OriginalURL: url, CreatedAt: createdAt}
	}

	t.Run("insert assigns id and get by code", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("abc123", "https://example.com/a", base)

		require.NoError(t, repo.Insert(ctx, link))
		assert.NotEmpty(t, link.ID)

		got, err := repo.GetByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, "https://example.com/a", got.OriginalURL)
		assert.Equal(t, int64(0), got.Clicks)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("insert with taken code conflicts", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("dup123", "https://example.com/1", base)))

		err := repo.Insert(ctx, newLink("dup123", "https://example.com/2", base))

		assert.ErrorIs(t, err, shortener.ErrConflict)

		got, err := repo.GetByCode(ctx, "dup123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/1", got.OriginalURL)
	})

	t.Run("get by original url is exact", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("url123", "https://example.com/path", base)
		require.NoError(t, repo.Insert(ctx, link))

		got, err := repo.GetByOriginalURL(ctx, "https://example.com/path")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)

		_, err = repo.GetByOriginalURL(ctx, "https://example.com/path/")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("get by id", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("id1234", "https://example.com/id", base)
		require.NoError(t, repo.Insert(ctx, link))

		got, err := repo.GetByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, shortener.Code("id1234"), got.Code)
	})

	t.Run("missing records return ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		missingID := "00000000-0000-4000-8000-000000000000"

		_, err := repo.GetByCode(ctx, "zzzzzz")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.GetByOriginalURL(ctx, "https://nowhere.test")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.GetByID(ctx, missingID)
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		assert.ErrorIs(t, repo.Save(ctx, &shortener.Link{ID: missingID, OriginalURL: "https://x.test"}),
			shortener.ErrNotFound)
		assert.ErrorIs(t, repo.IncrementClicks(ctx, "zzzzzz"), shortener.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, missingID), shortener.ErrNotFound)
	})

	t.Run("list is newest first", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("old111", "https://example.com/old", base)))
		require.NoError(t, repo.Insert(ctx, newLink("new111", "https://example.com/new", base.Add(2*time.Hour))))
		require.NoError(t, repo.Insert(ctx, newLink("mid111", "https://example.com/mid", base.Add(time.Hour))))

		links, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, shortener.Code("new111"), links[0].Code)
		assert.Equal(t, shortener.Code("mid111"), links[1].Code)
		assert.Equal(t, shortener.Code("old111"), links[2].Code)
	})

	t.Run("save replaces only the original url", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("sav123", "https://example.com/before", base)
		require.NoError(t, repo.Insert(ctx, link))
		require.NoError(t, repo.IncrementClicks(ctx, "sav123"))

		update := *link
		update.OriginalURL = "https://example.com/after"
		require.NoError(t, repo.Save(ctx, &update))

		got, err := repo.GetByCode(ctx, "sav123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/after", got.OriginalURL)
		assert.Equal(t, int64(1), got.Clicks)
		assert.True(t, base.Equal(got.CreatedAt))

		_, err = repo.GetByOriginalURL(ctx, "https://example.com/before")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("concurrent click increments are all counted", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Insert(ctx, newLink("clk123", "https://example.com/clicks", base)))

		var wg sync.WaitGroup

		for range 20 {
			wg.Add(1)

			go func() {
				defer wg.Done()
				assert.NoError(t, repo.IncrementClicks(ctx, "clk123"))
			}()
		}

		wg.Wait()

		got, err := repo.GetByCode(ctx, "clk123")
		require.NoError(t, err)
		assert.Equal(t, int64(20), got.Clicks)
	})

	t.Run("delete removes the link and frees its code", func(t *testing.T) {
		repo := newRepo(t)
		link := newLink("del123", "https://example.com/delete", base)
		require.NoError(t, repo.Insert(ctx, link))

		require.NoError(t, repo.Delete(ctx, link.ID))

		_, err := repo.GetByCode(ctx, "del123")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.GetByID(ctx, link.ID)
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		assert.NoError(t, repo.Insert(ctx, newLink("del123", "https://example.com/reused", base)))
	})

	t.Run("concurrent inserts keep codes unique", func(t *testing.T) {
		repo := newRepo(t)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			conflicts int
		)

		for i := range 10 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				err := repo.Insert(ctx, newLink("same11", fmt.Sprintf("https://example.com/%d", i), base))
				if err != nil {
					assert.ErrorIs(t, err, shortener.ErrConflict)
					mu.Lock()
					conflicts++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, 9, conflicts)

		links, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})
}
