package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/swarmguard/judge-engine/internal/audit"
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
	"github.com/swarmguard/judge-engine/internal/scheduler"
)

// Submitter is the subset of *scheduler.Scheduler the control endpoint
// depends on, narrowed for testability.
type Submitter interface {
	Submit(chal *model.Challenge, entries []*model.TaskEntry, onDone func(*model.Challenge))
}

// Server is the evaluation engine's external interface: it accepts
// challenge submissions over a persistent per-backend connection and
// streams back incremental reports, mirroring the original's single
// JudgeWebSocketClient handler.
type Server struct {
	Scheduler   Submitter
	Env         *model.Env
	Archive     *audit.Archive
	ScratchRoot string

	submissions metric.Int64Counter
	nextID      atomic.Int64
}

// NewServer builds a Server. meter may be a no-op meter in tests.
func NewServer(sched Submitter, env *model.Env, archive *audit.Archive, scratchRoot string, meter metric.Meter) *Server {
	submissions, _ := meter.Int64Counter("judge_control_submissions_total")
	return &Server{
		Scheduler:   sched,
		Env:         env,
		Archive:     archive,
		ScratchRoot: scratchRoot,
		submissions: submissions,
	}
}

// Submit parses obj into a Challenge, allocates its scratch box, builds its
// task DAG, and hands it to the scheduler. reporter is called for every
// task's incremental report plus the final summary; onDone runs once, after
// every task has finished, so the caller can archive the result and release
// the scratch box.
func (s *Server) Submit(obj map[string]any, reporter model.Reporter, onDone func(*model.Challenge)) error {
	internalID := s.nextID.Add(1)

	box, err := sandbox.NewChallengeBox(s.ScratchRoot, internalID)
	if err != nil {
		return fmt.Errorf("allocate scratch box: %w", err)
	}

	chal, err := buildChallenge(obj, internalID, box, reporter)
	if err != nil {
		box.Cleanup()
		return err
	}

	entries := chal.ProblemContext.BuildTaskDAG(chal)

	s.submissions.Add(context.Background(), 1)
	s.Scheduler.Submit(chal, entries, func(finished *model.Challenge) {
		if s.Archive != nil {
			rec := audit.Record{
				ChalID:      finished.ChalID,
				FinishedAt:  time.Now(),
				TotalStatus: totalStatusInt(finished),
				Result:      finished.Result,
			}
			if err := s.Archive.Put(rec); err != nil {
				slog.Error("failed to archive challenge report", "chal_id", finished.ChalID, "error", err)
			}
		}
		if err := finished.Box.Cleanup(); err != nil {
			slog.Warn("failed to clean up scratch box", "chal_id", finished.ChalID, "error", err)
		}
		if onDone != nil {
			onDone(finished)
		}
	})
	return nil
}

func totalStatusInt(chal *model.Challenge) int {
	if s := chal.TotalStatus(); s != nil {
		return int(*s)
	}
	return 0
}
