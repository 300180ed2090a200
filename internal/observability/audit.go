package observability

import (
	"context"
	"log/slog"
)

type clientKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClient records the caller's address and user agent for audit lines.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

func clientAttrs(ctx context.Context) []any {
	c, ok := ctx.Value(clientKey{}).(clientInfo)
	if !ok {
		return nil
	}
	return []any{"ip", c.ip, "user_agent", c.userAgent}
}

// Audit records a sensitive, successful operation (login, user changes).
func Audit(ctx context.Context, log *slog.Logger, action string, actorID int64, attrs ...any) {
	if log == nil {
		log = slog.Default()
	}

	args := append([]any{"action", action, "actor_id", actorID}, attrs...)
	args = append(args, clientAttrs(ctx)...)
	log.InfoContext(ctx, "audit", args...)
}

// Security records a rejected or suspicious attempt at warn level.
func Security(ctx context.Context, log *slog.Logger, event string, attrs ...any) {
	if log == nil {
		log = slog.Default()
	}

	args := append([]any{"event", event}, attrs...)
	args = append(args, clientAttrs(ctx)...)
	log.WarnContext(ctx, "security", args...)
}
