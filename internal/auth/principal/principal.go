// Package principal carries the authenticated user through a request.
package principal

import (
	"context"

	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

type ctxKey struct{}

func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func FromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(domain.User)
	return user, ok
}

// MustFromContext is for handlers mounted behind an authentication gate.
func MustFromContext(ctx context.Context) domain.User {
	user, ok := FromContext(ctx)
	if !ok {
		panic("principal: no authenticated user in context")
	}
	return user
}
