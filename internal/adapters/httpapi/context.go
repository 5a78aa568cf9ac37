package httpapi

import (
	"context"

	"github.com/gatepass-registry/gatepass/internal/platform/auth/sessiontoken"
)

type accountKey struct{}

func WithAccount(ctx context.Context, c sessiontoken.Claims) context.Context {
	return context.WithValue(ctx, accountKey{}, c)
}

func AccountFromContext(ctx context.Context) (sessiontoken.Claims, bool) {
	v, ok := ctx.Value(accountKey{}).(sessiontoken.Claims)
	return v, ok && v.Subject != ""
}
