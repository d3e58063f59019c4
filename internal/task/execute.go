package task

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/swarmguard/judge-engine/internal/langregistry"
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// outputZipMu serializes writes to a challenge's output.zip archive; every
// ExecuteTask for a challenge runs on its own worker goroutine but they all
// append to the same file.
var outputZipMu sync.Mutex

// ExecuteTask runs the compiled user program against one testdata's input
// and records the raw sandbox outcome (status, time, memory). Scoring
// happens in a later task; Execute only produces the user's output.
type ExecuteTask struct {
	TestData *model.TestData
}

func (t *ExecuteTask) Setup(chal *model.Challenge, _ *model.TaskEntry) (bool, error) {
	if chal.Result.Total.Status != nil {
		return false, nil
	}

	if chal.SkipNonAC {
		skipped := chal.SkippedSubtasks()
		all := true
		for id := range t.TestData.Subtasks {
			if _, ok := skipped[id]; !ok {
				all = false
				break
			}
		}
		if all {
			tr := chal.Result.TestDataResults[t.TestData.ID]
			tr.Status = model.StatusPtr(model.Skipped)
			if chal.Reporter != nil {
				chal.Reporter(chal.ChalID, "execute", tr, nil)
			}
			return false, nil
		}
	}
	return true, nil
}

func (t *ExecuteTask) Run(ctx context.Context, env *model.Env, chal *model.Challenge, _ *model.TaskEntry) error {
	lang := langregistry.Get(chal.ProblemContext.UserProgCompiler())
	if lang == nil {
		return fmt.Errorf("execute: unsupported compiler for testdata %d", t.TestData.ID)
	}

	var exe string
	var args []string
	if chal.ProblemContext.UserProgCompiler() != model.Java {
		exe, args = lang.ExecuteCommand("a", "", nil)
	} else if chal.ProblemContext.HasGrader() {
		exe, args = lang.ExecuteCommand("a", "grader", nil)
	} else {
		exe, args = lang.ExecuteCommand("a", "main", nil)
	}

	stdinName := fmt.Sprintf("%d-input", t.TestData.ID)
	stdoutName := fmt.Sprintf("%d-stdout", t.TestData.ID)

	params := sandbox.NewParams().
		SetExe(exe).
		SetArgs(args).
		SetTimeLimit(chal.Limits.Time / 1_000_000).
		SetMemoryLimit(chal.Limits.Memory / 1024).
		SetStackLimit(65536).
		SetOutputLimit(chal.Limits.Output / 1024).
		SetProcLimit(lang.AllowThreadCount).
		SetStdin(stdinName).
		SetStdout(stdoutName).
		SetAllowProc(lang.AllowThreadCount > 1).
		SetAllowMountProc(chal.ProblemContext.UserProgCompiler() == model.Java).
		SetCpuset(env.NextCpuset()).
		AddCopyOutCacheFile(stdoutName)
	params.AddCopyInPath(t.TestData.InputPath, stdinName, true)
	params.AddCopyInPath(chal.ProblemContext.UserProgPath(), "a", true)

	res, err := env.Gateway.Run(ctx, chal.Box, params)
	if err != nil {
		return err
	}

	tr := chal.Result.TestDataResults[t.TestData.ID]
	tr.Memory = res.Memory
	tr.Time = max64(res.RunTime, res.Time)

	if outPath := chal.Box.GetFile(stdoutName); outPath != "" {
		t.TestData.UserOutputPath = outPath
		archiveUserOutput(chal, t.TestData, outPath)
	}

	switch res.Status {
	case sandbox.Normal:
		tr.Status = model.StatusPtr(model.Accepted)
	case sandbox.TimeLimitExceeded:
		tr.Status = model.StatusPtr(model.TimeLimitExceeded)
	case sandbox.MemoryLimitExceeded:
		tr.Status = model.StatusPtr(model.MemoryLimitExceeded)
	case sandbox.OutputLimitExceeded:
		tr.Status = model.StatusPtr(model.OutputLimitExceeded)
	case sandbox.NonzeroExitStatus:
		tr.Status = model.StatusPtr(model.RuntimeError)
	case sandbox.Signalled:
		tr.Status = model.StatusPtr(model.RuntimeErrorSignalled)
		if msg, ok := model.SignalMessage[res.ExitStatus]; ok {
			tr.Message = msg
			tr.MessageType = model.MessageText
		}
	case sandbox.RunnerError:
		tr.Status = model.StatusPtr(model.InternalError)
		slog.Error("sandbox runner error during execute", "chal", chal.ChalID, "testdata", t.TestData.ID)
	}
	return nil
}

func (t *ExecuteTask) Finish(chal *model.Challenge, _ *model.TaskEntry) {
	tr := chal.Result.TestDataResults[t.TestData.ID]
	if chal.Reporter != nil {
		chal.Reporter(chal.ChalID, "execute", tr, nil)
	}

	if tr.Status == nil || *tr.Status != model.Accepted {
		chal.MarkSkipSubtasks(t.TestData.Subtasks)
		if t.TestData.UserOutputPath != "" {
			chal.Box.DeleteFile(filepath.Base(t.TestData.UserOutputPath))
		}
	}
}

// archiveUserOutput appends the user's raw output for one testdata into
// output.zip next to the submitted source, named "<testdata+1>.ans" so it
// lines up 1-indexed with the problem's testdata listing.
func archiveUserOutput(chal *model.Challenge, td *model.TestData, outputPath string) {
	codeFolder := filepath.Dir(chal.CodePath)
	zipPath := filepath.Join(codeFolder, "output.zip")
	entryName := fmt.Sprintf("%d.ans", td.ID+1)

	outputZipMu.Lock()
	defer outputZipMu.Unlock()

	f, err := os.OpenFile(zipPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		slog.Error("failed to open output.zip", "chal", chal.ChalID, "error", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("failed to stat output.zip", "chal", chal.ChalID, "error", err)
		return
	}

	var zw *zip.Writer
	if info.Size() > 0 {
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			slog.Error("failed to reopen output.zip for append", "chal", chal.ChalID, "error", err)
			return
		}
		// archive/zip has no in-place append; rebuild into a fresh buffer
		// carrying forward existing entries plus the new one.
		tmp, err := os.CreateTemp(codeFolder, "output-*.zip")
		if err != nil {
			slog.Error("failed to create temp zip", "chal", chal.ChalID, "error", err)
			return
		}
		defer os.Remove(tmp.Name())
		zw = zip.NewWriter(tmp)
		for _, entry := range zr.File {
			if entry.Name == entryName {
				continue
			}
			w, err := zw.CreateHeader(&entry.FileHeader)
			if err != nil {
				continue
			}
			r, err := entry.Open()
			if err != nil {
				continue
			}
			copyAll(w, r)
			r.Close()
		}
		writeZipEntry(zw, entryName, outputPath)
		zw.Close()
		tmp.Close()
		f.Close()
		os.Rename(tmp.Name(), zipPath)
		return
	}

	zw = zip.NewWriter(f)
	writeZipEntry(zw, entryName, outputPath)
	zw.Close()
}

func writeZipEntry(zw *zip.Writer, name, srcPath string) {
	src, err := os.Open(srcPath)
	if err != nil {
		return
	}
	defer src.Close()
	w, err := zw.Create(name)
	if err != nil {
		return
	}
	copyAll(w, src)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
