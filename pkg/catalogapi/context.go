package catalogapi

import "context"

type bearerKey struct{}

// WithBearer returns a context carrying the session token. A Client without
// its own token authenticates with the token found in the request context.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFrom returns the token stored by WithBearer, or "".
func BearerFrom(ctx context.Context) string {
	if v, ok := ctx.Value(bearerKey{}).(string); ok {
		return v
	}
	return ""
}
