package audit

import (
	"path/filepath"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/swarmguard/judge-engine/internal/model"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	meter := noop.NewMeterProvider().Meter("test")
	a, err := Open(dbPath, meter)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchivePutGetRoundTrip(t *testing.T) {
	a := openTestArchive(t)

	rec := Record{
		ChalID:      42,
		FinishedAt:  time.Now(),
		TotalStatus: 1,
		Result:      model.NewResult(42),
	}
	if err := a.Put(rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := a.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected record to be found")
	}
	if got.ChalID != 42 {
		t.Fatalf("expected ChalID 42, got %d", got.ChalID)
	}
}

func TestArchiveGetMissing(t *testing.T) {
	a := openTestArchive(t)
	_, ok, err := a.Get(999)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected no record for unknown id")
	}
}

func TestArchivePruneOlderThan(t *testing.T) {
	a := openTestArchive(t)

	old := Record{ChalID: 1, FinishedAt: time.Now().Add(-48 * time.Hour), Result: model.NewResult(1)}
	fresh := Record{ChalID: 2, FinishedAt: time.Now(), Result: model.NewResult(2)}
	if err := a.Put(old); err != nil {
		t.Fatalf("Put old: %v", err)
	}
	if err := a.Put(fresh); err != nil {
		t.Fatalf("Put fresh: %v", err)
	}

	removed, err := a.PruneOlderThan(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	if _, ok, _ := a.Get(1); ok {
		t.Fatal("expected old record to be pruned")
	}
	if _, ok, _ := a.Get(2); !ok {
		t.Fatal("expected fresh record to survive")
	}
}
