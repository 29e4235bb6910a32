// Package session keeps the server-side mapping from opaque session tokens
// to user ids. Sessions live for a fixed window from issue and are never
// extended.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/crypto"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

var ErrEmptyUserID = errors.New("session: empty user id")

type Session struct {
	Token     string
	UserID    domain.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Store interface {
	Issue(ctx context.Context, userID domain.ID) (Session, error)
	// Resolve reports ok=false for unknown, revoked or expired tokens.
	Resolve(ctx context.Context, token string) (domain.ID, bool, error)
	Revoke(ctx context.Context, token string) error
}

// TokenSource produces session tokens.
type TokenSource func() (string, error)

func DefaultTokenSource() (string, error) {
	return crypto.RandomToken(constants.SessionTokenSize)
}
