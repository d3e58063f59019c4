package audit

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically reclaims disk space: scratch directories left behind
// by challenges that never called ChallengeBox.Cleanup (crash, panic-during-
// task) and archive entries past their retention window. Grounded on the
// teacher's cron-driven scheduler.go trigger loop, repurposed from workflow
// scheduling to janitorial sweeps.
type Sweeper struct {
	archive       *Archive
	scratchRoot   string
	scratchMaxAge time.Duration
	reportMaxAge  time.Duration

	cron *cron.Cron
}

// NewSweeper builds a Sweeper that scans scratchRoot for stale per-challenge
// directories and prunes archive entries, both older than their respective
// max ages.
func NewSweeper(archive *Archive, scratchRoot string, scratchMaxAge, reportMaxAge time.Duration) *Sweeper {
	return &Sweeper{
		archive:       archive,
		scratchRoot:   scratchRoot,
		scratchMaxAge: scratchMaxAge,
		reportMaxAge:  reportMaxAge,
		cron:          cron.New(cron.WithSeconds()),
	}
}

// Start schedules the sweep on spec (a standard cron expression, seconds
// field included) and begins running it in the background. Call Stop to
// drain in-flight runs before shutdown.
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) runOnce() {
	reaped := s.sweepScratch()
	pruned := 0
	if s.archive != nil {
		var err error
		pruned, err = s.archive.PruneOlderThan(time.Now().Add(-s.reportMaxAge))
		if err != nil {
			slog.Error("archive prune failed", "error", err)
		}
	}
	slog.Info("sweep complete", "scratch_dirs_reaped", reaped, "reports_pruned", pruned)
}

// sweepScratch removes scratch directories named by a bare challenge id
// (ChallengeBox's naming convention) whose modification time is older than
// scratchMaxAge. A directory still in active use keeps getting touched by
// the sandbox gateway's per-invocation workdirs, so a genuinely stale mtime
// means the owning challenge never called Cleanup.
func (s *Sweeper) sweepScratch() int {
	entries, err := os.ReadDir(s.scratchRoot)
	if err != nil {
		slog.Error("sweep: read scratch root failed", "error", err)
		return 0
	}

	cutoff := time.Now().Add(-s.scratchMaxAge)
	reaped := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := strconv.ParseInt(entry.Name(), 10, 64); err != nil {
			continue
		}
		path := filepath.Join(s.scratchRoot, entry.Name())
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			slog.Warn("sweep: failed to remove stale scratch dir", "path", path, "error", err)
			continue
		}
		reaped++
	}
	return reaped
}
