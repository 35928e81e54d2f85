package contexthelpers

type contextKey string

const RequestIDContextKey = contextKey("requestID")
