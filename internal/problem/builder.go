package problem

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/swarmguard/judge-engine/internal/model"
)

// NewContext is the explicit constructor switch spec.md §9 asks for in
// place of the original's decorator-based context registry: problemType
// picks the concrete ProblemContext, obj carries its problem-specific wire
// fields. "batch" is the only problem type this deployment supports.
func NewContext(problemType string, obj map[string]any) (model.ProblemContext, error) {
	switch problemType {
	case "batch":
		return newBatchContext(obj)
	default:
		return nil, fmt.Errorf("unsupported problem type %q", problemType)
	}
}

func newBatchContext(obj map[string]any) (*BatchContext, error) {
	userProgCompiler, err := intField(obj, "userprog_compiler")
	if err != nil {
		return nil, err
	}
	checkerTypeVal, err := intField(obj, "checker_type")
	if err != nil {
		return nil, err
	}

	ctx := &BatchContext{
		userProgCompiler:    model.Compiler(userProgCompiler),
		userProgCompileArgs: stringSliceField(obj, "userprog_compile_args"),
		hasGrader:           boolField(obj, "has_grader", false),

		checkerType:        model.CheckerType(checkerTypeVal),
		checkerCompileArgs: stringSliceField(obj, "checker_compile_args"),

		summaryType: model.SummaryType(intFieldOr(obj, "summary_type", int(model.SummaryGroupMin))),
	}
	if v, ok := obj["checker_compiler"]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("checker_compiler: %w", err)
		}
		ctx.checkerCompiler = model.Compiler(n)
	}
	return ctx, nil
}

// ParseLimits extracts a challenge's resource ceiling, defaulting to the
// original's 1s / 256MiB / 64MiB ceiling when fields are absent.
func ParseLimits(obj map[string]any) model.Limits {
	lim, _ := obj["limit"].(map[string]any)
	return model.Limits{
		Time:   int64(numberFieldOr(lim, "time", 1000*1_000_000)),
		Memory: int64(numberFieldOr(lim, "memory", 262144*1024)),
		Output: int64(numberFieldOr(lim, "output", 64*1024*1024)),
	}
}

// ParseTestDatasAndSubtasks builds every TestData (via the context's
// CreateTestData) and Subtask named in obj, cross-linking each TestData's
// Subtasks membership set.
func ParseTestDatasAndSubtasks(obj map[string]any, chal *model.Challenge, ctx model.ProblemContext) (map[int]*model.TestData, map[int]*model.Subtask, error) {
	testDatas := make(map[int]*model.TestData)
	subtasks := make(map[int]*model.Subtask)

	rawTestDatas, _ := obj["testdatas"].([]any)
	for _, raw := range rawTestDatas {
		tdObj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		td, err := ctx.CreateTestData(chal, tdObj)
		if err != nil {
			return nil, nil, err
		}
		testDatas[td.ID] = td
	}

	rawSubtasks, _ := obj["subtasks"].([]any)
	for _, raw := range rawSubtasks {
		stObj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, err := intField(stObj, "id")
		if err != nil {
			return nil, nil, err
		}
		scoreVal := stObj["score"]
		score, err := decimal.NewFromString(fmt.Sprint(scoreVal))
		if err != nil {
			return nil, nil, fmt.Errorf("subtask %d: invalid score: %w", id, err)
		}

		subtask := &model.Subtask{
			ID:                 id,
			Score:              score,
			DependencySubtasks: intSliceField(stObj, "dependency_subtasks"),
		}
		for _, tdID := range intSliceField(stObj, "testdatas") {
			td, ok := testDatas[tdID]
			if !ok {
				return nil, nil, fmt.Errorf("subtask %d references unknown testdata %d", id, tdID)
			}
			subtask.TestDatas = append(subtask.TestDatas, td)
			td.Subtasks[id] = struct{}{}
		}
		subtasks[id] = subtask
	}

	return testDatas, subtasks, nil
}
