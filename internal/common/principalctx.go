package common

import (
	"context"

	"github.com/meridianwealth/ledger/internal/models"
)

type contextKey int

const principalContextKey contextKey = iota

// WithPrincipal stores the verified principal in the request context.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the principal from context, or nil if the
// request carried no verified identity.
func PrincipalFromContext(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalContextKey).(*models.Principal)
	return p
}
