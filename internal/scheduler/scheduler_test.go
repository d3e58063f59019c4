package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/swarmguard/judge-engine/internal/model"
)

type recordingTask struct {
	name string
	mu   *sync.Mutex
	log  *[]string
}

func (t *recordingTask) Setup(_ *model.Challenge, _ *model.TaskEntry) (bool, error) { return true, nil }
func (t *recordingTask) Run(_ context.Context, _ *model.Env, _ *model.Challenge, _ *model.TaskEntry) error {
	t.mu.Lock()
	*t.log = append(*t.log, t.name)
	t.mu.Unlock()
	return nil
}
func (t *recordingTask) Finish(_ *model.Challenge, _ *model.TaskEntry) {}

func TestSchedulerRunsDAGInDependencyOrder(t *testing.T) {
	var mu sync.Mutex
	var log []string

	a := &model.TaskEntry{Task: &recordingTask{name: "a", mu: &mu, log: &log}, TaskID: 1, InternalID: 1}
	b := &model.TaskEntry{Task: &recordingTask{name: "b", mu: &mu, log: &log}, TaskID: 2, InternalID: 1}
	c := &model.TaskEntry{Task: &recordingTask{name: "c", mu: &mu, log: &log}, TaskID: 3, InternalID: 1}

	a.Edges = []int64{2}
	b.IndegCnt = 1
	b.Edges = []int64{3}
	c.IndegCnt = 1

	chal := model.NewChallenge(1, nil)
	chal.Result = model.NewResult(chal.ChalID)

	meter := noop.NewMeterProvider().Meter("test")
	reg := NewCancellationRegistry(meter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(ctx, &model.Env{}, 4, reg)
	go s.Run(ctx)

	done := make(chan struct{})
	s.Submit(chal, []*model.TaskEntry{a, b, c}, func(*model.Challenge) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for DAG completion")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(log) != 3 || log[0] != "a" || log[1] != "b" || log[2] != "c" {
		t.Fatalf("expected strict a,b,c order, got %v", log)
	}
}

type blockingTask struct {
	cancelled chan struct{}
}

func (t *blockingTask) Setup(_ *model.Challenge, _ *model.TaskEntry) (bool, error) { return true, nil }
func (t *blockingTask) Run(ctx context.Context, _ *model.Env, _ *model.Challenge, _ *model.TaskEntry) error {
	<-ctx.Done()
	close(t.cancelled)
	return ctx.Err()
}
func (t *blockingTask) Finish(_ *model.Challenge, _ *model.TaskEntry) {}

// TestSchedulerCancelAbortsOnlyThatChallenge verifies Submit registers a
// per-challenge cancelable context with Cancellation, so Cancel on one
// challenge's internal ID aborts its running task without affecting a
// concurrently running sibling challenge.
func TestSchedulerCancelAbortsOnlyThatChallenge(t *testing.T) {
	victim := &blockingTask{cancelled: make(chan struct{})}
	bystander := &blockingTask{cancelled: make(chan struct{})}

	victimEntry := &model.TaskEntry{Task: victim, TaskID: 1, InternalID: 1}
	bystanderEntry := &model.TaskEntry{Task: bystander, TaskID: 1, InternalID: 2}

	victimChal := model.NewChallenge(1, nil)
	victimChal.Result = model.NewResult(victimChal.ChalID)
	bystanderChal := model.NewChallenge(2, nil)
	bystanderChal.Result = model.NewResult(bystanderChal.ChalID)

	meter := noop.NewMeterProvider().Meter("test")
	reg := NewCancellationRegistry(meter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New(ctx, &model.Env{}, 4, reg)
	go s.Run(ctx)

	victimDone := make(chan struct{})
	bystanderDone := make(chan struct{})
	s.Submit(victimChal, []*model.TaskEntry{victimEntry}, func(*model.Challenge) { close(victimDone) })
	s.Submit(bystanderChal, []*model.TaskEntry{bystanderEntry}, func(*model.Challenge) { close(bystanderDone) })

	if err := reg.Cancel(context.Background(), 1, "test cancel"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case <-victim.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for victim task's context to cancel")
	}
	select {
	case <-victimDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for victim challenge to finish")
	}

	select {
	case <-bystander.cancelled:
		t.Fatal("bystander challenge's context was cancelled by an unrelated Cancel")
	case <-time.After(100 * time.Millisecond):
	}

	reg2status, ok := reg.Status(2)
	if !ok || reg2status != ChallengeRunning {
		t.Fatalf("expected bystander challenge to still be running, got status=%v ok=%v", reg2status, ok)
	}

	if err := reg.Cancel(context.Background(), 2, "test cleanup"); err != nil {
		t.Fatalf("Cancel bystander: %v", err)
	}
	<-bystanderDone
}
