package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

// RedisStore keeps token -> session records in Redis; key expiry enforces
// the session window.
type RedisStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	timeout time.Duration
	clock   clock.Clock
	tokens  TokenSource
}

type redisRecord struct {
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		prefix:  constants.SessionKeyPrefix,
		timeout: constants.SessionStoreTimeout,
		clock:   clock.NewRealClock(),
		tokens:  DefaultTokenSource,
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) Issue(ctx context.Context, userID domain.ID) (Session, error) {
	if userID == "" {
		return Session{}, ErrEmptyUserID
	}
	token, err := s.tokens()
	if err != nil {
		return Session{}, err
	}
	now := s.clock.Now()
	payload, err := json.Marshal(redisRecord{UserID: string(userID), IssuedAt: now})
	if err != nil {
		return Session{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ok, err := s.client.SetNX(ctx, s.key(token), payload, s.ttl).Result()
	if err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return Session{}, errors.New("store session: token collision")
	}

	return Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (domain.ID, bool, error) {
	if token == "" {
		return "", false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve session: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(val, &rec); err != nil || rec.UserID == "" {
		return "", false, nil
	}
	return domain.ID(rec.UserID), true, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
