package middleware

import (
	"net"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/short-links/internal/handlers"
)

// RequestMeta is a middleware that adds client IP, user-agent, referrer and origin to the request context.
// X-Forwarded-Host and X-Forwarded-Proto shape the origin only when trustProxy is set.
func RequestMeta(_ huma.API, trustProxy bool) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			ClientIP:  extractClientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			Origin:    extractOrigin(ctx, trustProxy),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}

func extractClientIP(ctx huma.Context) string {
	// Check X-Forwarded-For first (may contain multiple IPs)
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		// Take the first IP (original client)
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}

		return strings.TrimSpace(xff)
	}

	if xri := ctx.Header("X-Real-IP"); xri != "" {
		return xri
	}

	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

// extractOrigin rebuilds the scheme and host the client used.
func extractOrigin(ctx huma.Context, trustProxy bool) string {
	host := ctx.Host()
	if fwd := ctx.Header("X-Forwarded-Host"); trustProxy && fwd != "" {
		host = fwd
	}

	if host == "" {
		return ""
	}

	scheme := "http"
	if ctx.TLS() != nil {
		scheme = "https"
	}

	if proto := ctx.Header("X-Forwarded-Proto"); trustProxy && proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	return scheme + "://" + host
}
