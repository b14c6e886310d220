// Package requestctx carries per-request values through the middleware
// chain: the request ID attached for log correlation and the result of
// admin session verification.
package requestctx

import "context"

type contextKey string

const (
	requestIDKey    contextKey = "request.id"
	adminSessionKey contextKey = "auth.admin"
)

// WithRequestID attaches the request ID to the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID retrieves the request ID from context
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// WithAdminSession marks the context as carrying a verified admin session
func WithAdminSession(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminSessionKey, true)
}

// IsAdminSession reports whether admin session verification succeeded
// earlier in the chain.
func IsAdminSession(ctx context.Context) bool {
	ok, _ := ctx.Value(adminSessionKey).(bool)
	return ok
}
