package model

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// Limits is the immutable resource triple attached to a Challenge. Time is
// nanoseconds, Memory and Output are bytes; sandbox-facing code converts to
// milliseconds / kibibytes at the boundary.
type Limits struct {
	Time   int64
	Memory int64
	Output int64
}

// TestData is one (input, reference-output) pair. UserOutputPath is non-empty
// only between a successful Execute and either Scoring completion or
// cleanup on a non-Accepted Execute.
type TestData struct {
	ID             int
	InputPath      string
	OutputPath     string
	UserOutputPath string
	Subtasks       map[int]struct{}
}

// NewTestData returns a TestData with an initialized subtask membership set.
func NewTestData(id int, inputPath, outputPath string) *TestData {
	return &TestData{ID: id, InputPath: inputPath, OutputPath: outputPath, Subtasks: make(map[int]struct{})}
}

// Subtask groups TestData under a score weight and optional dependencies on
// other subtasks.
type Subtask struct {
	ID                 int
	Score              decimal.Decimal
	TestDatas          []*TestData
	DependencySubtasks []int
}

// TestDataResult is the per-testdata leaf of the result tree.
type TestDataResult struct {
	ID          int
	Score       decimal.Decimal
	Time        int64
	Memory      int64
	Message     string
	MessageType MessageType
	Status      *Status
}

// SubtaskResult is the per-subtask node of the result tree.
type SubtaskResult struct {
	Time   int64
	Memory int64
	Score  decimal.Decimal
	Status *Status
}

// TotalResult is the root of the result tree.
type TotalResult struct {
	Time        int64
	Memory      int64
	Score       decimal.Decimal
	Status      *Status
	CEMessage   string
	IEMessage   string
	MessageType MessageType
}

// Result is the full per-challenge result tree: total + per-subtask +
// per-testdata.
type Result struct {
	ChalID          int64
	Total           TotalResult
	SubtaskResults  map[int]*SubtaskResult
	TestDataResults map[int]*TestDataResult
}

// NewResult allocates an empty result tree for a challenge.
func NewResult(chalID int64) *Result {
	return &Result{
		ChalID:          chalID,
		SubtaskResults:  make(map[int]*SubtaskResult),
		TestDataResults: make(map[int]*TestDataResult),
	}
}

// StatusPtr is a small helper since Go has no enum-literal address-of.
func StatusPtr(s Status) *Status { return &s }

// InitTree allocates empty result nodes for every testdata and subtask id so
// task code can index result.TestDataResults[id] unconditionally, the way
// the original relies on the dict having been pre-populated before any task
// runs.
func (r *Result) InitTree(testDataIDs, subtaskIDs []int) {
	for _, id := range testDataIDs {
		r.TestDataResults[id] = &TestDataResult{ID: id}
	}
	for _, id := range subtaskIDs {
		r.SubtaskResults[id] = &SubtaskResult{}
	}
}

// Reporter streams an incremental report for one task's contribution to a
// challenge. task is one of "execute", "scoring", "summary". testdataResult
// is set for execute/scoring reports, result is set for the summary report.
type Reporter func(chalID int64, task string, testdataResult *TestDataResult, result *Result)

// ProblemContext is the per-challenge, per-problem-type object: it owns
// problem-specific configuration and builds the task DAG. Concrete
// implementations live in internal/problem. The accessor methods below are
// the flattened shape of the original's UserProgramMixin/CheckerMixin/
// SummaryMixin dataclasses — one interface instead of multiple inheritance,
// per spec.md §9's "tagged variants, not inheritance" instruction.
type ProblemContext interface {
	ProblemType() string
	BuildTaskDAG(chal *Challenge) []*TaskEntry
	CreateTestData(chal *Challenge, obj map[string]any) (*TestData, error)

	UserProgCompiler() Compiler
	UserProgCompileArgs() []string
	HasGrader() bool
	UserProgPath() string
	SetUserProgPath(path string)

	CheckerKind() CheckerType
	CheckerCompiler() Compiler
	CheckerCompileArgs() []string
	CheckerPath() string
	SetCheckerPath(path string)

	SummaryKind() SummaryType
}

// Challenge is the root entity for one submission under evaluation. It is
// owned exclusively by the scheduler for its lifetime and destroyed after
// Summary completes and scratch is released.
type Challenge struct {
	ChalID     int64
	ProID      int64
	ContestID  int64
	AcctID     int64
	Priority   int

	CodePath string
	ResPath  string
	Limits   Limits
	Result   *Result

	ProblemContext ProblemContext
	Reporter       Reporter

	SkipNonAC bool

	InternalID int64
	Box        *sandbox.ChallengeBox

	TestDatas map[int]*TestData
	Subtasks  map[int]*Subtask

	mu           sync.Mutex
	skipSubtasks map[int]struct{}
}

// NewChallenge constructs a Challenge with its internal bookkeeping
// initialized. internalID must be unique and monotonically assigned by the
// caller (the control endpoint, from its own atomic counter).
func NewChallenge(internalID int64, box *sandbox.ChallengeBox) *Challenge {
	return &Challenge{
		InternalID:   internalID,
		Box:          box,
		TestDatas:    make(map[int]*TestData),
		Subtasks:     make(map[int]*Subtask),
		skipSubtasks: make(map[int]struct{}),
	}
}

// MarkSkipSubtasks merges ids into the challenge's skip set. Safe for
// concurrent use by Execute.finish and Scoring.finish running on different
// worker goroutines.
func (c *Challenge) MarkSkipSubtasks(ids map[int]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range ids {
		c.skipSubtasks[id] = struct{}{}
	}
}

// SkippedSubtasks returns a point-in-time snapshot of the skip set.
func (c *Challenge) SkippedSubtasks() map[int]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]struct{}, len(c.skipSubtasks))
	for id := range c.skipSubtasks {
		out[id] = struct{}{}
	}
	return out
}

// AllSubtasksSkipped reports whether every id in subtaskIDs is already in
// the challenge's skip set.
func (c *Challenge) AllSubtasksSkipped(subtaskIDs map[int]struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range subtaskIDs {
		if _, ok := c.skipSubtasks[id]; !ok {
			return false
		}
	}
	return true
}

// TotalStatus returns the challenge's current terminal status, or nil if
// none has been decided yet.
func (c *Challenge) TotalStatus() *Status {
	return c.Result.Total.Status
}
