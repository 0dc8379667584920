// Package owner carries the requesting owner's identity through a
// request context. The API middleware sets it from the request header;
// handlers and registries read it back for scoping list responses.
package owner

import "context"

type contextKey struct{}

// WithOwner returns a context carrying the owner id.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, contextKey{}, ownerID)
}

// FromContext extracts the owner id from the context.
// Returns an empty string and false when no owner is set.
func FromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(contextKey{}).(string)
	if !ok || ownerID == "" {
		return "", false
	}
	return ownerID, true
}
