package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/short-links/internal/connection"
)

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var stateNames = map[connection.State]string{
	connection.StateDisconnected:  "Disconnected",
	connection.StateConnected:     "Connected",
	connection.StateConnecting:    "Connecting",
	connection.StateDisconnecting: "Disconnecting",
}

// DefaultCacheTimeout bounds the cache ping.
const DefaultCacheTimeout = time.Second

// Handler handles health check operations.
type Handler struct {
	database     connection.Status
	cache        Checker
	cacheTimeout time.Duration
	environment  string
	started      time.Time
	now          func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCacheTimeout caps the cache ping. Non-positive values keep DefaultCacheTimeout.
func WithCacheTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.cacheTimeout = d
		}
	}
}

// NewHandler creates a new health handler. cache may be nil when no cache is configured.
func NewHandler(database connection.Status, cache Checker, environment string, opts ...HandlerOption) *Handler {
	h := &Handler{
		database:     database,
		cache:        cache,
		cacheTimeout: DefaultCacheTimeout,
		environment:  environment,
		started:      time.Now(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// DatabaseStatus reports the tracked connection state.
type DatabaseStatus struct {
	State  int    `doc:"0 disconnected, 1 connected, 2 connecting, 3 disconnecting" json:"state"`
	Status string `example:"Connected"                                         json:"status"`
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status      string         `enum:"ok,degraded"                json:"status"`
		Timestamp   time.Time      `json:"timestamp"`
		Uptime      float64        `doc:"Seconds since start"          json:"uptime"`
		Environment string         `json:"environment"`
		Database    DatabaseStatus `json:"database"`
		Cache       string         `doc:"Empty when no cache is used" json:"cache,omitempty"`
	}
}

// Check reports process and dependency health. It always answers, even when the store is down.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	now := h.now()
	state := h.database.State()

	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Timestamp = now
	resp.Body.Uptime = now.Sub(h.started).Seconds()
	resp.Body.Environment = h.environment
	resp.Body.Database = DatabaseStatus{State: int(state), Status: stateNames[state]}

	if state != connection.StateConnected {
		resp.Body.Status = "degraded"
	}

	if h.cache != nil {
		if err := h.pingCache(ctx); err != nil {
			resp.Body.Cache = "unhealthy"
			resp.Body.Status = "degraded"
		} else {
			resp.Body.Cache = "healthy"
		}
	}

	return resp, nil
}

// pingCache gives up after cacheTimeout even when the checker ignores ctx.
func (h *Handler) pingCache(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.cacheTimeout)
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- h.cache.Ping(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
	}, h.Check)
}
