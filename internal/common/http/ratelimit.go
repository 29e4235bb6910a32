package http

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	cleanup  *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		cleanup:  time.NewTicker(constants.RateLimitCleanupInterval),
		done:     make(chan struct{}),
	}

	go rl.cleanupLimiters()

	return rl
}

// cleanupLimiters drops buckets that have refilled completely; they carry no
// state a fresh limiter would not.
func (rl *RateLimiter) cleanupLimiters() {
	for {
		select {
		case <-rl.done:
			return
		case <-rl.cleanup.C:
			rl.mu.Lock()
			for key, limiter := range rl.limiters {
				if limiter.Tokens() >= float64(rl.burst) {
					delete(rl.limiters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanup.Stop()
		close(rl.done)
	})
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		limiter, exists = rl.limiters[key]
		if !exists {
			limiter = rate.NewLimiter(rl.rate, rl.burst)
			rl.limiters[key] = limiter
		}
		rl.mu.Unlock()
	}

	return limiter
}

func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

func (rl *RateLimiter) Middleware(limiterType string, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = GetClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(keyFn(r)) {
				metrics.RateLimitBlocked.WithLabelValues(r.URL.Path, limiterType).Inc()
				WriteErrorEnvelope(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", nil, getTraceIDFromContext(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type LimiterKind string

const (
	LimitLogin    LimiterKind = "login"
	LimitRegister LimiterKind = "register"
	LimitSend     LimiterKind = "send"
	LimitGeneral  LimiterKind = "general"
)

// StrictRateLimiter holds one bucket set per sensitive action, with a
// general set for everything else.
type StrictRateLimiter struct {
	limiters map[LimiterKind]*RateLimiter
	keyFn    KeyFunc
}

func NewStrictRateLimiter(keyFn KeyFunc) *StrictRateLimiter {
	return &StrictRateLimiter{
		limiters: map[LimiterKind]*RateLimiter{
			LimitLogin:    NewRateLimiter(constants.RateLimitLoginRequestsPerSecond, constants.RateLimitLoginBurst),
			LimitRegister: NewRateLimiter(constants.RateLimitRegisterRequestsPerSecond, constants.RateLimitRegisterBurst),
			LimitSend:     NewRateLimiter(constants.RateLimitSendRequestsPerSecond, constants.RateLimitSendBurst),
			LimitGeneral:  NewRateLimiter(constants.RateLimitGeneralRequestsPerSecond, constants.RateLimitGeneralBurst),
		},
		keyFn: keyFn,
	}
}

func (srl *StrictRateLimiter) Middleware(kind LimiterKind) func(http.Handler) http.Handler {
	limiter, ok := srl.limiters[kind]
	if !ok {
		kind = LimitGeneral
		limiter = srl.limiters[LimitGeneral]
	}
	return limiter.Middleware(string(kind), srl.keyFn)
}

func (srl *StrictRateLimiter) Stop() {
	for _, l := range srl.limiters {
		l.Stop()
	}
}
