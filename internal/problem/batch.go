// Package problem implements the evaluation engine's one supported problem
// type, batch scoring: compile the submission, run it against every
// testdata, score each output, then summarize subtask and total results.
// Other problem types would live alongside BatchContext behind the same
// NewContext switch; none are specified, so none are built.
package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/task"
)

// BatchContext is the flattened product of the original's
// UserProgramMixin/CheckerMixin/SummaryMixin dataclasses — one struct
// implementing model.ProblemContext's full accessor surface, per spec.md
// §9's "tagged variants, not inheritance" instruction.
type BatchContext struct {
	userProgCompiler     model.Compiler
	userProgCompileArgs  []string
	hasGrader            bool
	userProgPath         string

	checkerType         model.CheckerType
	checkerCompiler     model.Compiler
	checkerCompileArgs  []string
	checkerPath         string

	summaryType model.SummaryType
}

func (c *BatchContext) ProblemType() string { return "batch" }

func (c *BatchContext) UserProgCompiler() model.Compiler    { return c.userProgCompiler }
func (c *BatchContext) UserProgCompileArgs() []string       { return c.userProgCompileArgs }
func (c *BatchContext) HasGrader() bool                     { return c.hasGrader }
func (c *BatchContext) UserProgPath() string                { return c.userProgPath }
func (c *BatchContext) SetUserProgPath(path string)         { c.userProgPath = path }

func (c *BatchContext) CheckerKind() model.CheckerType   { return c.checkerType }
func (c *BatchContext) CheckerCompiler() model.Compiler  { return c.checkerCompiler }
func (c *BatchContext) CheckerCompileArgs() []string     { return c.checkerCompileArgs }
func (c *BatchContext) CheckerPath() string              { return c.checkerPath }
func (c *BatchContext) SetCheckerPath(path string)       { c.checkerPath = path }

func (c *BatchContext) SummaryKind() model.SummaryType { return c.summaryType }

// CreateTestData builds one TestData from its wire representation, pointing
// at the resource-bundle testdata directory.
func (c *BatchContext) CreateTestData(chal *model.Challenge, obj map[string]any) (*model.TestData, error) {
	idFloat, ok := obj["id"].(float64)
	if !ok {
		return nil, fmt.Errorf("testdata missing numeric id")
	}
	input, _ := obj["input"].(string)
	output, _ := obj["output"].(string)
	if input == "" || output == "" {
		return nil, fmt.Errorf("testdata %v missing input/output file name", obj["id"])
	}
	return model.NewTestData(
		int(idFloat),
		filepath.Join(chal.ResPath, "testdata", input),
		filepath.Join(chal.ResPath, "testdata", output),
	), nil
}

// BuildTaskDAG wires one compile task, an optional checker-compile task, one
// execute+score task pair per testdata, and a single summary task, mirroring
// BatchProblemContext.build_task_dag.
func (c *BatchContext) BuildTaskDAG(chal *model.Challenge) []*model.TaskEntry {
	var nextTaskID int64
	newID := func() int64 {
		nextTaskID++
		return nextTaskID
	}

	var tasks []*model.TaskEntry

	compileTask := &model.TaskEntry{
		Task:       &task.CompileTask{Target: &UserProgramCompilationTarget{ctx: c}},
		InternalID: chal.InternalID,
		Priority:   chal.Priority,
		TaskID:     newID(),
		Type:       model.TaskCompile,
	}

	summaryTask := &model.TaskEntry{
		Task:       &task.SummaryTask{},
		InternalID: chal.InternalID,
		Priority:   chal.Priority,
		TaskID:     newID(),
		Type:       model.TaskSummary,
	}

	testDataIDs := make([]int, 0, len(chal.TestDatas))
	for id := range chal.TestDatas {
		testDataIDs = append(testDataIDs, id)
	}
	sort.Ints(testDataIDs)
	execOrder := computeExecOrder(chal, testDataIDs, chal.SkipNonAC)

	var execTasks, scoringTasks []*model.TaskEntry
	for _, id := range testDataIDs {
		td := chal.TestDatas[id]
		order := execOrder[id]

		execTask := &model.TaskEntry{
			Task:       &task.ExecuteTask{TestData: td},
			InternalID: chal.InternalID,
			Priority:   chal.Priority,
			TaskID:     newID(),
			Order:      order,
			Type:       model.TaskExecute,
			TestData:   td,
		}
		scoringTask := &model.TaskEntry{
			Task:       &task.ScoringTask{TestData: td},
			InternalID: chal.InternalID,
			Priority:   chal.Priority,
			TaskID:     newID(),
			Order:      order,
			Type:       model.TaskScoring,
			TestData:   td,
		}
		linkTask(execTask, scoringTask)
		linkTask(scoringTask, summaryTask)
		execTasks = append(execTasks, execTask)
		scoringTasks = append(scoringTasks, scoringTask)
	}

	for _, execTask := range execTasks {
		linkTask(compileTask, execTask)
	}

	if c.checkerType.NeedsBuiltChecker() {
		checkerCompileTask := &model.TaskEntry{
			Task:       &task.CompileTask{Target: &CheckerCompilationTarget{ctx: c}},
			InternalID: chal.InternalID,
			Priority:   chal.Priority,
			TaskID:     newID(),
			Type:       model.TaskCompile,
		}
		for _, scoringTask := range scoringTasks {
			linkTask(checkerCompileTask, scoringTask)
		}
		tasks = append(tasks, checkerCompileTask)
	}

	tasks = append(tasks, compileTask)
	tasks = append(tasks, execTasks...)
	tasks = append(tasks, scoringTasks...)
	tasks = append(tasks, summaryTask)

	outputZipPath := filepath.Join(filepath.Dir(chal.CodePath), "output.zip")
	if _, err := os.Stat(outputZipPath); err == nil {
		_ = os.Remove(outputZipPath)
	}

	return tasks
}

// linkTask adds an edge from a to b: a's completion releases b by
// decrementing its indegree.
func linkTask(a, b *model.TaskEntry) {
	a.Edges = append(a.Edges, b.TaskID)
	b.IndegCnt++
}
