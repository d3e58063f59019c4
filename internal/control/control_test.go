package control

import (
	"strings"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/swarmguard/judge-engine/internal/model"
)

type recordingSubmitter struct {
	chal    *model.Challenge
	entries []*model.TaskEntry
	onDone  func(*model.Challenge)
}

func (r *recordingSubmitter) Submit(chal *model.Challenge, entries []*model.TaskEntry, onDone func(*model.Challenge)) {
	r.chal = chal
	r.entries = entries
	r.onDone = onDone
}

func testSubmissionObj() map[string]any {
	return map[string]any{
		"acct_id":               float64(1),
		"pro_id":                float64(2),
		"contest_id":            float64(0),
		"chal_id":               float64(1110),
		"priority":              float64(1),
		"skip_nonac":            false,
		"res_path":              "/tmp/res",
		"code_path":             "/tmp/res/test.cpp",
		"userprog_compiler":     float64(3),
		"userprog_compile_args": []any{},
		"checker_type":          float64(1),
		"checker_compile_args":  []any{},
		"summary_type":          float64(1),
		"has_grader":            false,
		"limit": map[string]any{
			"time":   float64(1000 * 1_000_000),
			"memory": float64(262144 * 1024),
			"output": float64(64 * 1024 * 1024),
		},
		"testdatas": []any{
			map[string]any{"id": float64(0), "input": "1.in", "output": "1.out"},
		},
		"subtasks": []any{
			map[string]any{"id": float64(0), "score": float64(100), "testdatas": []any{float64(0)}, "dependency_subtasks": []any{}},
		},
	}
}

func TestServerSubmitBuildsAndDispatchesChallenge(t *testing.T) {
	sub := &recordingSubmitter{}
	meter := noop.NewMeterProvider().Meter("test")
	s := NewServer(sub, &model.Env{}, nil, t.TempDir(), meter)

	var reports []string
	reporter := func(chalID int64, task string, tr *model.TestDataResult, res *model.Result) {
		reports = append(reports, task)
	}

	if err := s.Submit(testSubmissionObj(), reporter, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if sub.chal == nil {
		t.Fatal("expected scheduler.Submit to be called")
	}
	if sub.chal.ChalID != 1110 {
		t.Fatalf("expected chal_id 1110, got %d", sub.chal.ChalID)
	}
	if len(sub.entries) == 0 {
		t.Fatal("expected a non-empty task DAG")
	}
	if sub.chal.Box == nil {
		t.Fatal("expected a scratch box to be allocated")
	}
}

func TestServerSubmitSeedsPreSkippedSubtasks(t *testing.T) {
	sub := &recordingSubmitter{}
	meter := noop.NewMeterProvider().Meter("test")
	s := NewServer(sub, &model.Env{}, nil, t.TempDir(), meter)

	obj := testSubmissionObj()
	obj["skip_subtasks"] = []any{float64(0)}

	discard := func(int64, string, *model.TestDataResult, *model.Result) {}
	if err := s.Submit(obj, discard, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	skipped := sub.chal.SkippedSubtasks()
	if _, ok := skipped[0]; !ok {
		t.Fatalf("expected subtask 0 to be pre-seeded as skipped, got %v", skipped)
	}
}

func TestServerSubmitRejectsUnknownProblemType(t *testing.T) {
	sub := &recordingSubmitter{}
	meter := noop.NewMeterProvider().Meter("test")
	s := NewServer(sub, &model.Env{}, nil, t.TempDir(), meter)

	obj := testSubmissionObj()
	obj["problem_type"] = "interactive"

	discard := func(int64, string, *model.TestDataResult, *model.Result) {}
	if err := s.Submit(obj, discard, nil); err == nil {
		t.Fatal("expected an error for an unsupported problem type")
	}
}

func TestMarshalReportEncodesDecimalAsString(t *testing.T) {
	res := model.NewResult(42)
	res.Total.Status = model.StatusPtr(model.Accepted)
	payload, err := marshalReport(42, "summary", nil, res)
	if err != nil {
		t.Fatalf("marshalReport: %v", err)
	}
	if !strings.Contains(string(payload), `"score":"0"`) {
		t.Fatalf("expected quoted decimal score in payload, got %s", payload)
	}
	if !strings.Contains(string(payload), `"status":1`) {
		t.Fatalf("expected numeric status in payload, got %s", payload)
	}
}
