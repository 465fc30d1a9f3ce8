package accounts

import (
	"context"

	"github.com/goliatone/go-router"
)

var identityCtxKey = &contextKey{"identity"}

// IdentityLocalsKey is where ProtectedRoute stores the resolved identity in
// the router context locals.
const IdentityLocalsKey = "identity"

type contextKey struct {
	name string
}

// WithIdentity sets the acting Identity in the given context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the acting identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(*Identity)
	return raw, ok
}

// IdentityFromRouter extracts the acting identity stored by ProtectedRoute.
func IdentityFromRouter(ctx router.Context) (*Identity, bool) {
	raw := ctx.Locals(IdentityLocalsKey)
	if raw == nil {
		return nil, false
	}
	identity, ok := raw.(*Identity)
	return identity, ok
}
