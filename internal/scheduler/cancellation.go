package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ChallengeStatus is the lifecycle state of one in-flight challenge as seen
// by the cancellation registry.
type ChallengeStatus string

const (
	ChallengeRunning   ChallengeStatus = "running"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeCancelled ChallengeStatus = "cancelled"
)

type trackedChallenge struct {
	internalID  int64
	cancel      context.CancelFunc
	status      ChallengeStatus
	cancelledAt time.Time
	completedAt time.Time
}

// CancellationRegistry tracks every challenge currently owned by the
// scheduler so a caller can cancel one mid-flight, grounded on the
// teacher's CancellationManager.
type CancellationRegistry struct {
	mu     sync.RWMutex
	active map[int64]*trackedChallenge

	cancellations metric.Int64Counter
	tracer        trace.Tracer
}

// NewCancellationRegistry builds a registry reporting through meter.
func NewCancellationRegistry(meter metric.Meter) *CancellationRegistry {
	cancellations, _ := meter.Int64Counter("judge_scheduler_cancellations_total")
	return &CancellationRegistry{
		active:        make(map[int64]*trackedChallenge),
		cancellations: cancellations,
		tracer:        otel.Tracer("judge-scheduler-cancellation"),
	}
}

// Register tracks a newly admitted challenge.
func (r *CancellationRegistry) Register(internalID int64, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[internalID] = &trackedChallenge{internalID: internalID, cancel: cancel, status: ChallengeRunning}
}

// Cancel requests cancellation of a running challenge. It is a no-op error
// to cancel an unknown or already-finished challenge.
func (r *CancellationRegistry) Cancel(ctx context.Context, internalID int64, reason string) error {
	ctx, span := r.tracer.Start(ctx, "scheduler.cancel", trace.WithAttributes(
		attribute.Int64("internal_id", internalID),
		attribute.String("reason", reason),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	tc, ok := r.active[internalID]
	if !ok {
		return fmt.Errorf("challenge %d not found or already finished", internalID)
	}
	if tc.status != ChallengeRunning {
		return fmt.Errorf("challenge %d is not running (status: %s)", internalID, tc.status)
	}

	tc.cancel()
	tc.status = ChallengeCancelled
	tc.cancelledAt = time.Now()
	r.cancellations.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	return nil
}

// Complete marks a challenge finished, retaining it briefly for status
// queries; StartCleanupLoop reaps it later.
func (r *CancellationRegistry) Complete(internalID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tc, ok := r.active[internalID]; ok && tc.status == ChallengeRunning {
		tc.status = ChallengeCompleted
		tc.completedAt = time.Now()
	}
}

// Status returns a challenge's current status, if tracked.
func (r *CancellationRegistry) Status(internalID int64) (ChallengeStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.active[internalID]
	if !ok {
		return "", false
	}
	return tc.status, true
}

// Cleanup evicts completed/cancelled entries older than retention.
func (r *CancellationRegistry) Cleanup(retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cleaned := 0
	for id, tc := range r.active {
		if tc.status == ChallengeRunning {
			continue
		}
		finishedAt := tc.completedAt
		if tc.status == ChallengeCancelled {
			finishedAt = tc.cancelledAt
		}
		if !finishedAt.IsZero() && now.Sub(finishedAt) > retention {
			delete(r.active, id)
			cleaned++
		}
	}
	return cleaned
}

// StartCleanupLoop runs Cleanup on a ticker until ctx is done.
func (r *CancellationRegistry) StartCleanupLoop(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cleanup(retention)
		}
	}
}

// CancelAll cancels every running challenge, used on scheduler shutdown.
func (r *CancellationRegistry) CancelAll(ctx context.Context, reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := 0
	for _, tc := range r.active {
		if tc.status == ChallengeRunning {
			tc.cancel()
			tc.status = ChallengeCancelled
			tc.cancelledAt = time.Now()
			cancelled++
		}
	}
	return cancelled
}
