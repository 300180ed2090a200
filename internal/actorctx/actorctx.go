package actorctx

import (
	"context"

	"github.com/geocoder89/userhub/internal/auth"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(auth.Identity)

	return v, ok && v.ID > 0
}

func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := IdentityFrom(ctx)
	return id.ID, ok
}
