package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/serroba/short-links/internal/shortener"
	"github.com/serroba/short-links/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "links.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func TestSQLiteStore(t *testing.T) {
	testRepository(t, func(t *testing.T) shortener.Repository {
		return openSQLite(t)
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "links.db")

	s, err := store.OpenSQLite(ctx, path)
	require.NoError(t, err)

	link := &shortener.Link{Code: "keep12", OriginalURL: "https://example.com", CreatedAt: time.Now()}
	require.NoError(t, s.Insert(ctx, link))
	require.NoError(t, s.Shutdown())

	reopened, err := store.OpenSQLite(ctx, path)
	require.NoError(t, err)

	defer func() { _ = reopened.Shutdown() }()

	got, err := reopened.GetByCode(ctx, "keep12")
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
}

func TestSQLiteStore_Ping(t *testing.T) {
	s := openSQLite(t)

	assert.NoError(t, s.Ping(context.Background()))
}
