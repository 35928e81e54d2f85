package contexthelpers

import (
	"context"
)

func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDContextKey).(string)
	if !ok {
		return ""
	}

	return requestID
}
