package credential

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

//nolint:gosec // G101 false positive - this is a context key name, not a credential
const tokenKey contextKey = "request_credential"

// WithToken returns a child context carrying the caller's token.
// An empty token leaves the context unchanged.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey, NewToken(token))
}

// TokenFromContext returns the caller's token and true, or "" and false when
// the request carries none.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, ok := ctx.Value(tokenKey).(Token)
	if !ok || token.IsEmpty() {
		return "", false
	}
	return token.Value(), true
}
