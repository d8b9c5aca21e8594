package authflow

import (
	"context"

	"github.com/chatline/authflow/identity"
)

// WithRequestID attaches a correlation ID to ctx. The identity client sends it
// as X-Request-ID and audit events record it. Without one, a fresh ID is
// generated per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return identity.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	return identity.RequestIDFromContext(ctx)
}
