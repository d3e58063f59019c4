package control

import (
	"fmt"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/problem"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// buildChallenge parses a decoded submission object into a fully linked
// Challenge, ready for the scheduler. internalID must be unique for the
// process lifetime; box is the challenge's freshly allocated scratch
// directory.
func buildChallenge(obj map[string]any, internalID int64, box *sandbox.ChallengeBox, reporter model.Reporter) (*model.Challenge, error) {
	problemType, _ := obj["problem_type"].(string)
	if problemType == "" {
		problemType = "batch"
	}

	ctx, err := problem.NewContext(problemType, obj)
	if err != nil {
		return nil, fmt.Errorf("build challenge: %w", err)
	}

	chalID, err := requireInt64(obj, "chal_id")
	if err != nil {
		return nil, err
	}

	chal := model.NewChallenge(internalID, box)
	chal.ChalID = chalID
	chal.ProID = int64(optionalNumber(obj, "pro_id"))
	chal.ContestID = int64(optionalNumber(obj, "contest_id"))
	chal.AcctID = int64(optionalNumber(obj, "acct_id"))
	chal.Priority = int(optionalNumber(obj, "priority"))
	chal.SkipNonAC, _ = obj["skip_nonac"].(bool)
	chal.ResPath, _ = obj["res_path"].(string)
	chal.CodePath, _ = obj["code_path"].(string)
	chal.ProblemContext = ctx
	chal.Reporter = reporter
	chal.Limits = problem.ParseLimits(obj)
	chal.MarkSkipSubtasks(skipSubtaskSet(obj))

	testDatas, subtasks, err := problem.ParseTestDatasAndSubtasks(obj, chal, ctx)
	if err != nil {
		return nil, fmt.Errorf("build challenge %d: %w", chalID, err)
	}
	chal.TestDatas = testDatas
	chal.Subtasks = subtasks

	testDataIDs := make([]int, 0, len(testDatas))
	for id := range testDatas {
		testDataIDs = append(testDataIDs, id)
	}
	subtaskIDs := make([]int, 0, len(subtasks))
	for id := range subtasks {
		subtaskIDs = append(subtaskIDs, id)
	}

	chal.Result = model.NewResult(chalID)
	chal.Result.InitTree(testDataIDs, subtaskIDs)

	return chal, nil
}

func requireInt64(obj map[string]any, key string) (int64, error) {
	v, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	n, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("field %q: expected number, got %T", key, v)
	}
	return int64(n), nil
}

func optionalNumber(obj map[string]any, key string) float64 {
	v, ok := obj[key]
	if !ok {
		return 0
	}
	n, _ := v.(float64)
	return n
}

// skipSubtaskSet reads the inbound message's pre-seeded skip_subtasks field
// (present in the original's parse_base_challenge_info) so a backend can
// tell the engine a subtask is already known-skipped before any task runs.
func skipSubtaskSet(obj map[string]any) map[int]struct{} {
	raw, _ := obj["skip_subtasks"].([]any)
	set := make(map[int]struct{}, len(raw))
	for _, v := range raw {
		if n, ok := v.(float64); ok {
			set[int(n)] = struct{}{}
		}
	}
	return set
}
