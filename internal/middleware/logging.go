package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs command processing time.
func Logging() Middleware {
	return func(next CommandFunc) CommandFunc {
		return func(ctx context.Context, name string, args []any) (any, error) {
			start := time.Now()

			result, err := next(ctx, name, args)

			slog.Debug("command processed",
				"command", name,
				"duration", time.Since(start),
				"error", err,
			)
			return result, err
		}
	}
}
