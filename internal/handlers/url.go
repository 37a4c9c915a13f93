package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serroba/short-links/internal/analytics"
	"github.com/serroba/short-links/internal/messaging"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// URLHandler serves the link API on top of a Registry.
type URLHandler struct {
	registry          *shortener.Registry
	publishLinkCreate messaging.Publish[analytics.LinkCreatedEvent]
	publishLinkVisit  messaging.Publish[analytics.LinkVisitedEvent]
	now               func() time.Time
	logger            *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	registry *shortener.Registry,
	publishLinkCreate messaging.Publish[analytics.LinkCreatedEvent],
	publishLinkVisit messaging.Publish[analytics.LinkVisitedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		registry:          registry,
		publishLinkCreate: publishLinkCreate,
		publishLinkVisit:  publishLinkVisit,
		now:               time.Now,
		logger:            logger,
	}
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	meta := RequestMetaFromContext(ctx)

	shortened, err := h.registry.Create(ctx, req.Body.OriginalURL, meta.Origin)
	if err != nil {
		return nil, toHTTPError(h.logger, "create", err)
	}

	link := shortened.Link

	resp := &CreateShortURLResponse{Status: http.StatusOK}
	resp.Location = shortened.ShortURL
	resp.Body.Success = true
	resp.Body.LinkBody = newLinkBody(link, shortened.ShortURL)

	if !shortened.Created {
		return resp, nil
	}

	resp.Status = http.StatusCreated

	event := &analytics.LinkCreatedEvent{
		LinkID:      link.ID,
		Code:        string(link.Code),
		OriginalURL: link.OriginalURL,
		ShortURL:    shortened.ShortURL,
		CreatedAt:   link.CreatedAt,
		ClientIP:    meta.ClientIP,
		UserAgent:   meta.UserAgent,
	}

	if err := h.publishLinkCreate(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return resp, nil
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.registry.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		return nil, toHTTPError(h.logger, "redirect", err)
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.LinkVisitedEvent{
		Code:      req.Code,
		VisitedAt: h.now(),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
		Referrer:  meta.Referrer,
	}

	if err = h.publishLinkVisit(ctx, event); err != nil {
		h.logger.Error("failed to publish visit event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: link.OriginalURL,
	}, nil
}

func (h *URLHandler) ListURLs(ctx context.Context, _ *struct{}) (*ListURLsResponse, error) {
	shortURL := h.shortURLs(ctx, "list")

	links, err := h.registry.List(ctx)
	if err != nil {
		return nil, toHTTPError(h.logger, "list", err)
	}

	resp := &ListURLsResponse{Body: make([]LinkBody, 0, len(links))}
	for _, link := range links {
		resp.Body = append(resp.Body, newLinkBody(link, shortURL(link.Code)))
	}

	return resp, nil
}

func (h *URLHandler) GetURL(ctx context.Context, req *LinkIDRequest) (*GetURLResponse, error) {
	shortURL := h.shortURLs(ctx, "get")

	link, err := h.registry.Get(ctx, req.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, "get", err)
	}

	return &GetURLResponse{Body: newLinkBody(link, shortURL(link.Code))}, nil
}

func (h *URLHandler) UpdateURL(ctx context.Context, req *UpdateURLRequest) (*UpdateURLResponse, error) {
	shortURL := h.shortURLs(ctx, "update")

	link, err := h.registry.Update(ctx, req.ID, req.Body.OriginalURL)
	if err != nil {
		return nil, toHTTPError(h.logger, "update", err)
	}

	resp := &UpdateURLResponse{}
	resp.Body.Success = true
	resp.Body.LinkBody = newLinkBody(link, shortURL(link.Code))

	return resp, nil
}

func (h *URLHandler) DeleteURL(ctx context.Context, req *LinkIDRequest) (*DeleteURLResponse, error) {
	if err := h.registry.Remove(ctx, req.ID); err != nil {
		return nil, toHTTPError(h.logger, "delete", err)
	}

	resp := &DeleteURLResponse{}
	resp.Body.Success = true
	resp.Body.Message = "URL deleted successfully"

	return resp, nil
}

func (h *URLHandler) GetStats(ctx context.Context, _ *struct{}) (*StatsResponse, error) {
	shortURL := h.shortURLs(ctx, "stats")

	stats, err := h.registry.Stats(ctx)
	if err != nil {
		return nil, toHTTPError(h.logger, "stats", err)
	}

	resp := &StatsResponse{}
	resp.Body.TotalURLs = stats.TotalURLs
	resp.Body.TotalClicks = stats.TotalClicks
	resp.Body.RecentURLs = stats.RecentURLs

	if stats.MostClicked != nil {
		body := newLinkBody(stats.MostClicked, shortURL(stats.MostClicked.Code))
		resp.Body.MostClickedURL = &body
	}

	return resp, nil
}

// shortURLs renders short URLs for the request origin. When no base URL can be resolved
// the links are still returned, with empty short URLs.
func (h *URLHandler) shortURLs(ctx context.Context, op string) func(shortener.Code) string {
	base, err := h.registry.BaseURL(RequestMetaFromContext(ctx).Origin)
	if err != nil {
		h.logger.Warn("short urls omitted", zap.String("op", op), zap.Error(err))

		return func(shortener.Code) string { return "" }
	}

	return func(code shortener.Code) string {
		return shortener.JoinShortURL(base, code)
	}
}

func newLinkBody(link *shortener.Link, shortURL string) LinkBody {
	return LinkBody{
		ID:          link.ID,
		ShortCode:   string(link.Code),
		ShortURL:    shortURL,
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
	}
}
