package task

import (
	"github.com/shopspring/decimal"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// fakeProblemContext is a minimal model.ProblemContext stub for exercising
// task logic without pulling in internal/problem.
type fakeProblemContext struct {
	userProgCompiler model.Compiler
	hasGrader        bool
	userProgPath     string
	checkerKind      model.CheckerType
	checkerCompiler  model.Compiler
	checkerPath      string
	summaryKind      model.SummaryType
}

func (f *fakeProblemContext) ProblemType() string                                  { return "batch" }
func (f *fakeProblemContext) BuildTaskDAG(chal *model.Challenge) []*model.TaskEntry { return nil }
func (f *fakeProblemContext) CreateTestData(chal *model.Challenge, obj map[string]any) (*model.TestData, error) {
	return nil, nil
}
func (f *fakeProblemContext) UserProgCompiler() model.Compiler    { return f.userProgCompiler }
func (f *fakeProblemContext) UserProgCompileArgs() []string       { return nil }
func (f *fakeProblemContext) HasGrader() bool                     { return f.hasGrader }
func (f *fakeProblemContext) UserProgPath() string                { return f.userProgPath }
func (f *fakeProblemContext) SetUserProgPath(path string)         { f.userProgPath = path }
func (f *fakeProblemContext) CheckerKind() model.CheckerType      { return f.checkerKind }
func (f *fakeProblemContext) CheckerCompiler() model.Compiler     { return f.checkerCompiler }
func (f *fakeProblemContext) CheckerCompileArgs() []string        { return nil }
func (f *fakeProblemContext) CheckerPath() string                 { return f.checkerPath }
func (f *fakeProblemContext) SetCheckerPath(path string)          { f.checkerPath = path }
func (f *fakeProblemContext) SummaryKind() model.SummaryType      { return f.summaryKind }

// newTestChallenge builds a minimal Challenge wired with box, ctx, and a
// pre-initialized result tree for testdataIDs/subtaskIDs.
func newTestChallenge(box *sandbox.ChallengeBox, ctx model.ProblemContext, testdataIDs, subtaskIDs []int) *model.Challenge {
	chal := model.NewChallenge(1, box)
	chal.ChalID = 100
	chal.ProblemContext = ctx
	chal.Result = model.NewResult(chal.ChalID)
	chal.Result.InitTree(testdataIDs, subtaskIDs)
	return chal
}

func scoreOf(d decimal.Decimal) string { return d.String() }
