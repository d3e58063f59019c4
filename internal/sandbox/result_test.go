package sandbox

import "testing"

func TestParseResultValid(t *testing.T) {
	data := []byte(`{"status":1,"exitStatus":0,"error":"","time":120,"runTime":118,"memory":2048,"procPeak":1}`)
	r := parseResult(data)
	if r.Status != Normal {
		t.Errorf("Status = %d, want Normal", r.Status)
	}
	if r.Time != 120 || r.RunTime != 118 || r.Memory != 2048 {
		t.Errorf("unexpected result fields: %+v", r)
	}
}

func TestParseResultMalformed(t *testing.T) {
	r := parseResult([]byte("not json"))
	if r.Status != RunnerError {
		t.Errorf("Status = %d, want RunnerError", r.Status)
	}
	if r.Error == "" {
		t.Error("expected a non-empty error message")
	}
}

func TestParseResultEmpty(t *testing.T) {
	r := parseResult(nil)
	if r.Status != RunnerError {
		t.Errorf("Status = %d, want RunnerError for empty payload", r.Status)
	}
}
