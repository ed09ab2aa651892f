package middleware

import (
	"context"

	"github.com/angelmondragon/marketplace-client/internal/devserver"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the caller seeded by Auth.
func PrincipalFromContext(ctx context.Context) (devserver.Principal, bool) {
	if ctx == nil {
		return devserver.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(devserver.Principal)
	return p, ok
}

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, p devserver.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
