package auth

import "context"

// Identity is the authenticated caller passed explicitly to service operations.
type Identity struct {
	UserID int64
	Name   string
	Email  string
}

type identityKey struct{}

// WithIdentity stores id on ctx for the transport layer to hand to services.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext extracts the identity attached by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID > 0
}
