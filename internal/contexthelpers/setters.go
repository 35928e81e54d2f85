package contexthelpers

import (
	"context"
)

// WithRequestID stores the id of the decision request being served.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, requestID)
}
