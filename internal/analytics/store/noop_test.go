package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewNoop(t *testing.T) {
	logger := zap.NewNop()
	noop := store.NewNoop(logger)

	assert.NotNil(t, noop)
}

func TestNoop_SaveLinkCreated(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	noop := store.NewNoop(zap.New(core))

	event := &analytics.LinkCreatedEvent{
		Code:        "abc123",
		OriginalURL: "https://example.com",
		CreatedAt:   time.Now(),
	}

	err := noop.SaveLinkCreated(context.Background(), event)

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc123", logs.All()[0].ContextMap()["code"])
}

func TestNoop_SaveLinkVisited(t *testing.T) {
	logger := zap.NewNop()
	noop := store.NewNoop(logger)

	event := &analytics.LinkVisitedEvent{
		Code:      "abc123",
		VisitedAt: time.Now(),
		ClientIP:  "127.0.0.1",
		UserAgent: "TestAgent/1.0",
		Referrer:  "https://referrer.com",
	}

	err := noop.SaveLinkVisited(context.Background(), event)

	require.NoError(t, err)
}
