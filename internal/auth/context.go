package auth

import (
	"context"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const (
	policyKey ctxKey = iota // stores *storage.Token for the guest session
	adminKey                // stores the admin username
)

// WithPolicy adds the guest's validated token policy to the context.
func WithPolicy(ctx context.Context, t *storage.Token) context.Context {
	return context.WithValue(ctx, policyKey, t)
}

// PolicyFromContext retrieves the guest's token policy from context.
// Returns nil outside a guest session.
func PolicyFromContext(ctx context.Context) *storage.Token {
	if v := ctx.Value(policyKey); v != nil {
		if t, ok := v.(*storage.Token); ok {
			return t
		}
	}
	return nil
}

// WithAdmin adds the authenticated admin username to the context.
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey, username)
}

// AdminFromContext retrieves the admin username from context.
// Returns "" outside an admin session.
func AdminFromContext(ctx context.Context) string {
	if v := ctx.Value(adminKey); v != nil {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
