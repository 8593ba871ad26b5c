// Package correlation carries the request correlation ID across package boundaries.
package correlation

import "context"

const Header = "X-Correlation-ID"

type key struct{}

// FromContext retrieves the correlation ID from ctx, or "" if none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key{}).(string)
	return id
}

// NewContext stores id in ctx so outgoing calls can forward it.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key{}, id)
}
