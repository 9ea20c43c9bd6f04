package middleware

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// CommandFunc executes one host command.
type CommandFunc func(ctx context.Context, name string, args []any) (any, error)

// Middleware wraps command execution.
type Middleware func(next CommandFunc) CommandFunc

// Recover returns middleware that recovers from panics so a misbehaving
// command can never take down the host page.
func Recover() Middleware {
	return func(next CommandFunc) CommandFunc {
		return func(ctx context.Context, name string, args []any) (result any, err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic recovered in command",
						"command", name,
						"panic", r,
						"stack", string(debug.Stack()),
					)
					result, err = nil, nil
				}
			}()
			return next(ctx, name, args)
		}
	}
}
