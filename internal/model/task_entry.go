package model

import (
	"context"
	"sync/atomic"

	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// Env bundles the dependencies a Task needs at Run time that don't belong on
// Challenge: the sandbox gateway, the built-in DIFF-family checker binaries'
// directory, and the CPU affinity pool tasks round-robin across.
type Env struct {
	Gateway           *sandbox.Gateway
	DefaultCheckerDir string
	Cpusets           []string

	cpusetCursor atomic.Uint64
}

// NextCpuset returns the next cpuset string to pin an execute invocation to,
// round-robining across Cpusets, or "" if none are configured.
func (e *Env) NextCpuset() string {
	if len(e.Cpusets) == 0 {
		return ""
	}
	i := e.cpusetCursor.Add(1) - 1
	return e.Cpusets[i%uint64(len(e.Cpusets))]
}

// Task is the contract every task type (compile, execute, scoring, summary)
// implements. Setup decides whether Run should actually execute (a checker
// that needs no build, a testdata already covered by a skipped subtask, ...)
// and reports that decision back to the scheduler. Run does the work. Finish
// always runs, even when Setup declined Run, so bookkeeping (skip-set
// propagation, reporting) stays uniform; indegree is decremented by the
// scheduler, not by tasks.
type Task interface {
	Setup(chal *Challenge, entry *TaskEntry) (bool, error)
	Run(ctx context.Context, env *Env, chal *Challenge, entry *TaskEntry) error
	Finish(chal *Challenge, entry *TaskEntry)
}

// TaskEntry is one node of a challenge's task DAG: a unit of work plus its
// position in the dependency graph. TaskID is assigned by BuildTaskDAG and is
// only unique within the owning challenge, not globally.
type TaskEntry struct {
	Task Task

	InternalID int64 // owning challenge's InternalID, used for priority-queue tie-breaking
	Priority   int
	TaskID     int64
	Order      int

	IndegCnt int
	Edges    []int64 // successor TaskIDs released when this entry finishes

	Type     TaskType
	TestData *TestData
	Subtask  *Subtask
}

// Less implements the runnable queue's ordering: lower Priority value runs
// first, ties broken by the owning challenge's InternalID (older challenges
// first), then by Order (the position BuildTaskDAG assigned within the
// challenge).
func (t *TaskEntry) Less(other *TaskEntry) bool {
	if t.Priority != other.Priority {
		return t.Priority < other.Priority
	}
	if t.InternalID != other.InternalID {
		return t.InternalID < other.InternalID
	}
	return t.Order < other.Order
}
