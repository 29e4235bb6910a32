package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AlibekovAA/social-hub/internal/common/clock"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/user/domain"
)

type recordingWriter struct {
	mu      sync.Mutex
	batches [][]domain.ID
}

func (w *recordingWriter) UpdateLastSeenBatch(ctx context.Context, ids []domain.ID, at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := append([]domain.ID(nil), ids...)
	w.batches = append(w.batches, cp)
	return nil
}

func (w *recordingWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func TestLastSeenUpdater_FlushesOnStop(t *testing.T) {
	writer := &recordingWriter{}
	mc := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	u := NewLastSeenUpdater(context.Background(), writer, logger.Discard(), time.Minute, nil, mc)

	u.Touch("a")
	u.Touch("b")
	u.Stop()

	if got := writer.total(); got != 2 {
		t.Errorf("expected 2 ids written, got %d", got)
	}
}

func TestLastSeenUpdater_ThrottlesPerUser(t *testing.T) {
	writer := &recordingWriter{}
	mc := clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	u := NewLastSeenUpdater(context.Background(), writer, logger.Discard(), time.Minute, nil, mc)

	u.Touch("a")
	u.Touch("a")
	mc.Advance(30 * time.Second)
	u.Touch("a")
	u.Stop()

	if got := writer.total(); got != 1 {
		t.Errorf("repeated touches inside the interval should collapse, got %d writes", got)
	}
}

func TestLastSeenUpdater_StopIsIdempotent(t *testing.T) {
	u := NewLastSeenUpdater(context.Background(), &recordingWriter{}, logger.Discard(), time.Minute, nil, nil)
	u.Stop()
	u.Stop()
}
