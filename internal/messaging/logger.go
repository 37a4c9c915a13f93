package messaging

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// ZapLogger adapts a zap logger to watermill.LoggerAdapter.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger creates a watermill logger backed by zap.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

func (z *ZapLogger) Error(msg string, err error, fields watermill.LogFields) {
	z.logger.Error(msg, append(toZap(fields), zap.Error(err))...)
}

func (z *ZapLogger) Info(msg string, fields watermill.LogFields) {
	z.logger.Info(msg, toZap(fields)...)
}

func (z *ZapLogger) Debug(msg string, fields watermill.LogFields) {
	z.logger.Debug(msg, toZap(fields)...)
}

// Trace maps to debug; zap has no trace level.
func (z *ZapLogger) Trace(msg string, fields watermill.LogFields) {
	z.logger.Debug(msg, toZap(fields)...)
}

func (z *ZapLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &ZapLogger{logger: z.logger.With(toZap(fields)...)}
}

func toZap(fields watermill.LogFields) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}

	return out
}

var _ watermill.LoggerAdapter = (*ZapLogger)(nil)
