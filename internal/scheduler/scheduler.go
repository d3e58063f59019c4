// Package scheduler drives the task-entry DAG built by internal/problem:
// it is the long-lived, many-challenges-at-once engine the control endpoint
// submits work to, grounded structurally on the teacher's dag_engine.go
// (Kahn's-algorithm ready queue + worker pool) and semantically on the
// original's task_loop/finish_task_loop wake-signal pattern, since unlike
// the teacher's one-workflow-at-a-time DAGEngine this scheduler stays alive
// across many concurrently in-flight challenges.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/swarmguard/judge-engine/internal/model"
)

// Scheduler owns the task-entry DAG for every in-flight challenge: it
// releases tasks whose indegree has dropped to zero onto a priority queue,
// runs up to maxConcurrent of them at once, and walks each finished task's
// edges to release its successors. Indegree is decremented in exactly one
// place — handleFinished, run from the single dispatch goroutine — never on
// a worker goroutine, so a panic mid-task can never double-decrement.
type Scheduler struct {
	env          *model.Env
	sem          *semaphore.Weighted
	Cancellation *CancellationRegistry

	// parentCtx is the root context every challenge's cancelable context is
	// derived from, so an external Cancel/CancelAll can abort its in-flight
	// sandbox runs without touching unrelated challenges.
	parentCtx context.Context

	mu    sync.Mutex
	ready taskHeap
	tasks map[int64]map[int64]*model.TaskEntry // internalID -> taskID -> entry
	chals map[int64]*trackedState

	wake     chan struct{}
	finished chan finishedTask

	tracer trace.Tracer
}

type trackedState struct {
	chal      *model.Challenge
	remaining int
	onDone    func(*model.Challenge)
	ctx       context.Context
	cancel    context.CancelFunc
}

type finishedTask struct {
	internalID int64
	taskID     int64
}

// New builds a Scheduler that runs at most maxConcurrent tasks at once.
// Every challenge Submit admits derives its cancelable context from ctx, so
// cancelling ctx (process shutdown) tears down every in-flight challenge too.
func New(ctx context.Context, env *model.Env, maxConcurrent int64, cancelReg *CancellationRegistry) *Scheduler {
	return &Scheduler{
		env:          env,
		sem:          semaphore.NewWeighted(maxConcurrent),
		Cancellation: cancelReg,
		parentCtx:    ctx,
		tasks:        make(map[int64]map[int64]*model.TaskEntry),
		chals:        make(map[int64]*trackedState),
		wake:         make(chan struct{}, 1),
		finished:     make(chan finishedTask, 64),
		tracer:       otel.Tracer("judge-scheduler"),
	}
}

// Submit registers a challenge's full task DAG and releases its zero-indegree
// roots onto the ready queue. onDone runs exactly once, from the dispatch
// goroutine, once every task in the DAG has finished. Each challenge gets its
// own cancelable context, registered with Cancellation so Cancel/CancelAll
// can abort its in-flight sandbox runs without affecting other challenges.
func (s *Scheduler) Submit(chal *model.Challenge, entries []*model.TaskEntry, onDone func(*model.Challenge)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskCtx, cancel := context.WithCancel(s.parentCtx)
	if s.Cancellation != nil {
		s.Cancellation.Register(chal.InternalID, cancel)
	}

	byID := make(map[int64]*model.TaskEntry, len(entries))
	for _, e := range entries {
		byID[e.TaskID] = e
	}
	s.tasks[chal.InternalID] = byID
	s.chals[chal.InternalID] = &trackedState{
		chal:      chal,
		remaining: len(entries),
		onDone:    onDone,
		ctx:       taskCtx,
		cancel:    cancel,
	}

	for _, e := range entries {
		if e.IndegCnt == 0 {
			heap.Push(&s.ready, e)
		}
	}
	s.signal()
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the dispatch loop until ctx is cancelled. Callers run it in its
// own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.dispatchReady(ctx)

		select {
		case <-ctx.Done():
			return
		case ft := <-s.finished:
			s.handleFinished(ft)
		case <-s.wake:
		}
	}
}

// dispatchReady launches as many ready tasks as the semaphore currently
// allows, returning as soon as the queue empties or the semaphore is
// exhausted — it never blocks waiting for a slot.
func (s *Scheduler) dispatchReady(ctx context.Context) {
	for {
		s.mu.Lock()
		if len(s.ready) == 0 {
			s.mu.Unlock()
			return
		}
		if !s.sem.TryAcquire(1) {
			s.mu.Unlock()
			return
		}
		entry := heap.Pop(&s.ready).(*model.TaskEntry)
		s.mu.Unlock()

		go s.runTask(entry)
	}
}

// runTask always runs against its challenge's own cancelable context (set up
// in Submit), never the dispatch loop's top-level context, so a per-challenge
// Cancel only ever aborts that challenge's sandboxes.
func (s *Scheduler) runTask(entry *model.TaskEntry) {
	defer s.sem.Release(1)

	s.mu.Lock()
	state := s.chals[entry.InternalID]
	s.mu.Unlock()
	if state == nil {
		return
	}
	chal := state.chal

	ctx, span := s.tracer.Start(state.ctx, "scheduler.task", trace.WithAttributes(
		attribute.Int64("internal_id", entry.InternalID),
		attribute.Int64("task_id", entry.TaskID),
		attribute.Int("task_type", int(entry.Type)),
	))
	defer span.End()

	panicked := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("task panicked", "internal_id", entry.InternalID, "task_id", entry.TaskID, "panic", r)
				panicked = true
			}
		}()

		ok, err := entry.Task.Setup(chal, entry)
		if err != nil {
			slog.Error("task setup failed", "internal_id", entry.InternalID, "task_id", entry.TaskID, "error", err)
		}
		if ok && err == nil {
			if runErr := entry.Task.Run(ctx, s.env, chal, entry); runErr != nil {
				slog.Error("task run failed", "internal_id", entry.InternalID, "task_id", entry.TaskID, "error", runErr)
			}
		}
		entry.Task.Finish(chal, entry)
	}()

	if panicked {
		s.failChallenge(entry.InternalID, entry.TaskID)
	}

	s.finished <- finishedTask{internalID: entry.InternalID, taskID: entry.TaskID}
}

// failChallenge implements the uncaught-panic contract of spec §4.1/§7: every
// testdata and subtask result that has no status yet, and the total, are set
// to InternalError (statuses already decided are kept) and the terminal
// summary report is emitted immediately, since the panicking task will never
// reach SummaryTask on its own. It also cancels the challenge's context so
// any of its still-running sibling tasks abort their sandboxes promptly.
func (s *Scheduler) failChallenge(internalID, taskID int64) {
	s.mu.Lock()
	state := s.chals[internalID]
	s.mu.Unlock()
	if state == nil {
		return
	}
	chal := state.chal
	result := chal.Result

	for _, tr := range result.TestDataResults {
		if tr.Status == nil {
			tr.Status = model.StatusPtr(model.InternalError)
		}
	}
	for _, sr := range result.SubtaskResults {
		if sr.Status == nil {
			sr.Status = model.StatusPtr(model.InternalError)
		}
	}
	result.Total.Status = model.StatusPtr(model.InternalError)
	if result.Total.IEMessage == "" {
		result.Total.IEMessage = fmt.Sprintf("task %d panicked", taskID)
		result.Total.MessageType = model.MessageText
	}

	if chal.Reporter != nil {
		chal.Reporter(chal.ChalID, "summary", nil, result)
	}

	if state.cancel != nil {
		state.cancel()
	}
}

// handleFinished is the sole place indegree is decremented and challenge
// completion is detected, per spec.md §9's double-decrement resolution.
func (s *Scheduler) handleFinished(ft finishedTask) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.tasks[ft.internalID]
	state := s.chals[ft.internalID]
	if byID == nil || state == nil {
		return
	}
	entry := byID[ft.taskID]
	if entry == nil {
		return
	}

	for _, succID := range entry.Edges {
		succ, ok := byID[succID]
		if !ok {
			continue
		}
		succ.IndegCnt--
		if succ.IndegCnt == 0 {
			heap.Push(&s.ready, succ)
		}
	}

	state.remaining--
	if state.remaining == 0 {
		delete(s.tasks, ft.internalID)
		delete(s.chals, ft.internalID)
		if s.Cancellation != nil {
			s.Cancellation.Complete(ft.internalID)
		}
		if state.cancel != nil {
			state.cancel()
		}
		if state.onDone != nil {
			state.onDone(state.chal)
		}
	}
}
