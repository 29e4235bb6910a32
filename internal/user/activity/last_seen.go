package activity

import (
	"context"
	"sync"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/common/resilience"
	"github.com/AlibekovAA/social-hub/internal/observability/metrics"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

type LastSeenWriter interface {
	UpdateLastSeenBatch(ctx context.Context, ids []domain.ID, at time.Time) error
}

// LastSeenUpdater batches last_seen writes off the request path. A user is
// written at most once per minInterval.
type LastSeenUpdater struct {
	ctx            context.Context
	cancel         context.CancelFunc
	repo           LastSeenWriter
	log            *logger.Logger
	circuitBreaker *resilience.CircuitBreaker
	clock          clock.Clock
	minInterval    time.Duration
	queue          chan domain.ID
	recent         map[domain.ID]time.Time
	mu             sync.Mutex
	wg             sync.WaitGroup
	stopOnce       sync.Once
}

func NewLastSeenUpdater(ctx context.Context, repo LastSeenWriter, log *logger.Logger, minInterval time.Duration, circuitBreaker *resilience.CircuitBreaker, clk clock.Clock) *LastSeenUpdater {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	updateCtx, cancel := context.WithCancel(ctx)
	updater := &LastSeenUpdater{
		ctx:            updateCtx,
		cancel:         cancel,
		repo:           repo,
		log:            log,
		circuitBreaker: circuitBreaker,
		clock:          clk,
		minInterval:    minInterval,
		queue:          make(chan domain.ID, constants.LastSeenQueueSize),
		recent:         make(map[domain.ID]time.Time),
	}

	updater.wg.Add(1)
	go updater.run()

	return updater
}

// Touch records activity for userID. It never blocks; a full queue drops
// the update.
func (u *LastSeenUpdater) Touch(userID domain.ID) {
	now := u.clock.Now()

	u.mu.Lock()
	if last, ok := u.recent[userID]; ok && now.Sub(last) < u.minInterval {
		u.mu.Unlock()
		return
	}
	u.recent[userID] = now
	u.mu.Unlock()

	select {
	case u.queue <- userID:
		metrics.LastSeenQueueSize.Set(float64(len(u.queue)))
	default:
		metrics.LastSeenDropped.Inc()
		u.log.WithFields(context.Background(), logger.Fields{
			"user_id": userID,
			"action":  "last_seen_enqueue_dropped",
		}).Warn("last seen queue is full, dropping update")
	}
}

func (u *LastSeenUpdater) Stop() {
	u.stopOnce.Do(func() {
		u.cancel()
		u.wg.Wait()
	})
}

func (u *LastSeenUpdater) run() {
	defer u.wg.Done()

	ticker := time.NewTicker(constants.LastSeenFlushEvery)
	defer ticker.Stop()

	pending := make(map[domain.ID]struct{})

	for {
		select {
		case <-u.ctx.Done():
			u.drain(pending)
			u.flush(pending)
			return
		case userID := <-u.queue:
			pending[userID] = struct{}{}
			if len(pending) >= constants.LastSeenBatchSize {
				u.flush(pending)
			}
		case <-ticker.C:
			u.flush(pending)
			u.forgetStale()
		}
	}
}

func (u *LastSeenUpdater) drain(pending map[domain.ID]struct{}) {
	for {
		select {
		case userID := <-u.queue:
			pending[userID] = struct{}{}
		default:
			return
		}
	}
}

func (u *LastSeenUpdater) forgetStale() {
	now := u.clock.Now()
	u.mu.Lock()
	for id, at := range u.recent {
		if now.Sub(at) >= u.minInterval {
			delete(u.recent, id)
		}
	}
	u.mu.Unlock()
}

func (u *LastSeenUpdater) flush(pending map[domain.ID]struct{}) {
	metrics.LastSeenQueueSize.Set(float64(len(u.queue)))
	if len(pending) == 0 {
		return
	}

	ids := make([]domain.ID, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	at := u.clock.Now()

	ctx, cancel := context.WithTimeout(context.Background(), constants.LastSeenUpdateTimeout)
	defer cancel()

	var err error
	if u.circuitBreaker != nil {
		err = u.circuitBreaker.CallWithFallback(ctx, func(callCtx context.Context) error {
			return u.repo.UpdateLastSeenBatch(callCtx, ids, at)
		}, func() error {
			u.log.WithFields(ctx, logger.Fields{
				"count":  len(ids),
				"action": "last_seen_batch_skipped",
			}).Debug("last_seen update skipped: circuit breaker is open")
			return nil
		})
	} else {
		err = u.repo.UpdateLastSeenBatch(ctx, ids, at)
	}

	if err != nil {
		u.log.WithFields(ctx, logger.Fields{
			"count":  len(ids),
			"action": "last_seen_batch_failed",
		}).Warnf("failed to batch update last_seen: %v", err)
	}

	for id := range pending {
		delete(pending, id)
	}
}
