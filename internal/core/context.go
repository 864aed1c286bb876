package core

import (
	"context"

	"github.com/rs/xid"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying a fresh correlation ID,
// unless ctx already has one.
func WithCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := xid.New().String()
	return context.WithValue(ctx, correlationKey{}, id), id
}

// CorrelationID retrieves the correlation ID from the context.
func CorrelationID(ctx context.Context) string {
	id, ok := ctx.Value(correlationKey{}).(string)
	if !ok {
		return ""
	}
	return id
}
