package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepScratchRemovesStaleChallengeDirs(t *testing.T) {
	root := t.TempDir()
	a := openTestArchive(t)

	staleDir := filepath.Join(root, "101")
	freshDir := filepath.Join(root, "102")
	nonChallengeDir := filepath.Join(root, "not-a-challenge-id")
	for _, dir := range []string{staleDir, freshDir, nonChallengeDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("Mkdir %s: %v", dir, err)
		}
	}

	staleTime := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(staleDir, staleTime, staleTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	s := NewSweeper(a, root, 24*time.Hour, 30*24*time.Hour)
	reaped := s.sweepScratch()

	if reaped != 1 {
		t.Fatalf("expected 1 reaped dir, got %d", reaped)
	}
	if _, err := os.Stat(staleDir); !os.IsNotExist(err) {
		t.Errorf("expected stale challenge dir to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(freshDir); err != nil {
		t.Errorf("expected fresh challenge dir to survive, stat err = %v", err)
	}
	if _, err := os.Stat(nonChallengeDir); err != nil {
		t.Errorf("expected non-integer-named dir to be left alone, stat err = %v", err)
	}
}

func TestSweepScratchIgnoresMissingRoot(t *testing.T) {
	a := openTestArchive(t)
	s := NewSweeper(a, filepath.Join(t.TempDir(), "does-not-exist"), time.Hour, time.Hour)
	if reaped := s.sweepScratch(); reaped != 0 {
		t.Errorf("expected 0 reaped for a missing scratch root, got %d", reaped)
	}
}

func TestSweeperStartAndStop(t *testing.T) {
	a := openTestArchive(t)
	s := NewSweeper(a, t.TempDir(), time.Hour, time.Hour)
	if err := s.Start("0 0 0 1 1 *"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
