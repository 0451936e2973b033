package middleware

import (
	"context"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

type userKey struct{}

func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// CurrentUser returns the logged-in user, if any.
func CurrentUser(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}
