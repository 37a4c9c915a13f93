package store

import (
	"context"

	"github.com/serroba/short-links/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveLinkCreated(_ context.Context, event *analytics.LinkCreatedEvent) error {
	n.logger.Info("link created event received",
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.Time("createdAt", event.CreatedAt),
	)

	return nil
}

func (n *Noop) SaveLinkVisited(_ context.Context, event *analytics.LinkVisitedEvent) error {
	n.logger.Info("link visited event received",
		zap.String("code", event.Code),
		zap.Time("visitedAt", event.VisitedAt),
		zap.String("referrer", event.Referrer),
	)

	return nil
}

var _ analytics.Store = (*Noop)(nil)
