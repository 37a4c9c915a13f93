package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/short-links/internal/shortener"
	"go.uber.org/zap"
)

// toHTTPError maps registry errors to API errors. Unexpected errors are logged.
func toHTTPError(logger *zap.Logger, op string, err error) error {
	switch {
	case errors.Is(err, shortener.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("url not found")
	case errors.Is(err, shortener.ErrConflict):
		logger.Error("short code allocation failed", zap.String("op", op), zap.Error(err))

		return huma.Error409Conflict("could not allocate a unique short code, please retry")
	case errors.Is(err, shortener.ErrStoreUnavailable):
		return huma.Error503ServiceUnavailable("database unavailable, please try again later")
	case errors.Is(err, shortener.ErrInvalidConfig):
		logger.Error("invalid base url", zap.String("op", op), zap.Error(err))

		return huma.Error500InternalServerError("invalid base url")
	default:
		logger.Error("request failed", zap.String("op", op), zap.Error(err))

		return huma.Error500InternalServerError("server error, please try again later")
	}
}
