package session

import (
	"context"
	"sync"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

// MemoryStore is a single-process store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	clock    clock.Clock
	tokens   TokenSource
}

func NewMemoryStore(ttl time.Duration, clk clock.Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		clock:    clk,
		tokens:   DefaultTokenSource,
	}
}

func (s *MemoryStore) Issue(ctx context.Context, userID domain.ID) (Session, error) {
	if userID == "" {
		return Session{}, ErrEmptyUserID
	}
	token, err := s.tokens()
	if err != nil {
		return Session{}, err
	}
	now := s.clock.Now()
	sess := Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, token string) (domain.ID, bool, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || !s.clock.Now().Before(sess.ExpiresAt) {
		return "", false, nil
	}
	return sess.UserID, true, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	var deleted int64

	s.mu.Lock()
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
			deleted++
		}
	}
	s.mu.Unlock()
	return deleted, nil
}

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// StartCleanup sweeps expired sessions every interval until ctx is done.
func StartCleanup(ctx context.Context, store ExpiredDeleter, log *logger.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = constants.SessionSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpired(ctx)
			if err != nil {
				log.Errorf("session cleanup failed: %v", err)
				continue
			}
			if deleted > 0 {
				metrics.SessionsCleanupDeleted.Add(float64(deleted))
				log.Infof("session cleanup: deleted %d expired sessions", deleted)
			}
		}
	}
}
