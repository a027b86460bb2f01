package auth

import (
	"context"

	"github.com/anonto42/kdiary/backend/internal/models"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the resolved identity
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	return id, ok
}
