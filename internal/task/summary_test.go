package task

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

func TestSummaryTaskGroupMinAcceptedAllSubtasks(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{checkerKind: model.CheckerCMSTPSTestlib, summaryKind: model.SummaryGroupMin}
	chal := newTestChallenge(box, ctx, []int{0, 1}, []int{0})

	chal.Subtasks[0] = &model.Subtask{
		ID:    0,
		Score: decimal.NewFromInt(100),
		TestDatas: []*model.TestData{
			{ID: 0, Subtasks: map[int]struct{}{0: {}}},
			{ID: 1, Subtasks: map[int]struct{}{0: {}}},
		},
	}
	chal.Result.TestDataResults[0].Status = model.StatusPtr(model.Accepted)
	chal.Result.TestDataResults[0].Score = decimal.NewFromFloat(1.0)
	chal.Result.TestDataResults[1].Status = model.StatusPtr(model.Accepted)
	chal.Result.TestDataResults[1].Score = decimal.NewFromFloat(1.0)

	task := &SummaryTask{}
	if ok, err := task.Setup(chal, nil); err != nil || !ok {
		t.Fatalf("Setup() = %v, %v", ok, err)
	}
	if err := task.Run(nil, nil, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := chal.Result.SubtaskResults[0].Score; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("subtask score = %s, want 100", got)
	}
	if status := chal.Result.Total.Status; status == nil || *status != model.Accepted {
		t.Errorf("total status = %v, want Accepted", status)
	}
	if got := chal.Result.Total.Score; !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total score = %s, want 100", got)
	}
}

func TestSummaryTaskDependencySkipsDependentSubtask(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{checkerKind: model.CheckerDIFF, summaryKind: model.SummaryGroupMin}
	chal := newTestChallenge(box, ctx, []int{0, 1}, []int{0, 1})

	chal.Subtasks[0] = &model.Subtask{
		ID:        0,
		Score:     decimal.NewFromInt(30),
		TestDatas: []*model.TestData{{ID: 0, Subtasks: map[int]struct{}{0: {}}}},
	}
	chal.Subtasks[1] = &model.Subtask{
		ID:                 1,
		Score:               decimal.NewFromInt(70),
		TestDatas:           []*model.TestData{{ID: 1, Subtasks: map[int]struct{}{1: {}}}},
		DependencySubtasks:  []int{0},
	}
	chal.Result.TestDataResults[0].Status = model.StatusPtr(model.WrongAnswer)
	chal.Result.TestDataResults[1].Status = model.StatusPtr(model.Accepted)

	task := &SummaryTask{}
	if err := task.Run(nil, nil, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	dep1 := chal.Result.SubtaskResults[1]
	if dep1.Status == nil || *dep1.Status != model.Skipped {
		t.Errorf("dependent subtask status = %v, want Skipped", dep1.Status)
	}
	if !dep1.Score.IsZero() {
		t.Errorf("dependent subtask score = %s, want 0", dep1.Score)
	}
}

func TestSummaryTaskDependencySkipsPropagateTransitively(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 5)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{checkerKind: model.CheckerDIFF, summaryKind: model.SummaryGroupMin}
	chal := newTestChallenge(box, ctx, []int{0, 1, 2}, []int{0, 1, 2})

	// A fails outright; B depends on A; C depends on B. C must end up
	// Skipped even though it never directly depends on the failing A, and
	// regardless of the order chal.Result.SubtaskResults happens to be
	// ranged over.
	chal.Subtasks[0] = &model.Subtask{
		ID:        0,
		Score:     decimal.NewFromInt(10),
		TestDatas: []*model.TestData{{ID: 0, Subtasks: map[int]struct{}{0: {}}}},
	}
	chal.Subtasks[1] = &model.Subtask{
		ID:                 1,
		Score:               decimal.NewFromInt(20),
		TestDatas:           []*model.TestData{{ID: 1, Subtasks: map[int]struct{}{1: {}}}},
		DependencySubtasks:  []int{0},
	}
	chal.Subtasks[2] = &model.Subtask{
		ID:                 2,
		Score:               decimal.NewFromInt(70),
		TestDatas:           []*model.TestData{{ID: 2, Subtasks: map[int]struct{}{2: {}}}},
		DependencySubtasks:  []int{1},
	}
	chal.Result.TestDataResults[0].Status = model.StatusPtr(model.WrongAnswer)
	chal.Result.TestDataResults[1].Status = model.StatusPtr(model.Accepted)
	chal.Result.TestDataResults[2].Status = model.StatusPtr(model.Accepted)

	task := &SummaryTask{}
	if err := task.Run(nil, nil, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, id := range []int{1, 2} {
		sr := chal.Result.SubtaskResults[id]
		if sr.Status == nil || *sr.Status != model.Skipped {
			t.Errorf("subtask %d status = %v, want Skipped", id, sr.Status)
		}
		if !sr.Score.IsZero() {
			t.Errorf("subtask %d score = %s, want 0", id, sr.Score)
		}
	}
}

func TestSummaryTaskEmptyProblemIsJudgeError(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{checkerKind: model.CheckerDIFF, summaryKind: model.SummaryGroupMin}
	chal := newTestChallenge(box, ctx, nil, nil)

	task := &SummaryTask{}
	if err := task.Run(nil, nil, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status := chal.Result.Total.Status; status == nil || *status != model.JudgeError {
		t.Errorf("total status = %v, want JudgeError", status)
	}
}

func TestSummaryTaskCustomSummaryIsUnsupported(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{summaryKind: model.SummaryCustom}
	chal := newTestChallenge(box, ctx, []int{0}, []int{0})

	task := &SummaryTask{}
	if err := task.Run(nil, nil, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status := chal.Result.Total.Status; status == nil || *status != model.JudgeError {
		t.Errorf("total status = %v, want JudgeError", status)
	}
}
