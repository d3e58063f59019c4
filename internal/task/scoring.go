package task

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/swarmguard/judge-engine/internal/langregistry"
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// defaultCheckerBinary maps the DIFF checker family to the built-in
// comparator binary shipped alongside the sandbox.
var defaultCheckerBinary = map[model.CheckerType]string{
	model.CheckerDIFF:       "lcmp",
	model.CheckerDIFFStrict: "fcmp",
	model.CheckerDIFFFloat4: "rcmp4",
	model.CheckerDIFFFloat6: "rcmp6",
	model.CheckerDIFFFloat9: "rcmp9",
}

const scoringTimeLimitMs int64 = 2000
const scoringMemoryLimitKB int64 = 262144

// ScoringTask runs the problem's checker against one testdata's user output
// and assigns its Status (and, for fractional checkers, its Score).
type ScoringTask struct {
	TestData *model.TestData
}

func (t *ScoringTask) setJudgeError(chal *model.Challenge) {
	tr := chal.Result.TestDataResults[t.TestData.ID]
	tr.Status = model.StatusPtr(model.JudgeError)
	tr.Memory = 0
	tr.Time = 0
}

func (t *ScoringTask) Setup(chal *model.Challenge, _ *model.TaskEntry) (bool, error) {
	if s := chal.Result.Total.Status; s != nil {
		switch *s {
		case model.CompileError, model.CompileLimitExceeded, model.JudgeError:
			return false, nil
		}
	}

	kind := chal.ProblemContext.CheckerKind()
	if kind == model.CheckerTOJ {
		return true, nil
	}
	tr := chal.Result.TestDataResults[t.TestData.ID]
	return tr.Status != nil && *tr.Status == model.Accepted, nil
}

func (t *ScoringTask) Run(ctx context.Context, env *model.Env, chal *model.Challenge, _ *model.TaskEntry) error {
	kind := chal.ProblemContext.CheckerKind()
	tr := chal.Result.TestDataResults[t.TestData.ID]

	switch kind {
	case model.CheckerDIFF, model.CheckerDIFFStrict, model.CheckerDIFFFloat4, model.CheckerDIFFFloat6, model.CheckerDIFFFloat9:
		binary := filepath.Join(env.DefaultCheckerDir, defaultCheckerBinary[kind])
		params := sandbox.NewParams().
			SetExe(binary).
			SetArgs([]string{"in", "out", "ans"}).
			SetTimeLimit(scoringTimeLimitMs).
			SetMemoryLimit(scoringMemoryLimitKB).
			SetStackLimit(65536).
			SetProcLimit(1)
		params.AddCopyInPath(t.TestData.InputPath, "in", true)
		params.AddCopyInPath(t.TestData.OutputPath, "out", true)
		params.AddCopyInPath(t.TestData.UserOutputPath, "ans", true)

		res, err := env.Gateway.Run(ctx, chal.Box, params)
		if err != nil {
			return err
		}
		if res.Status == sandbox.Normal && res.ExitStatus == 0 {
			tr.Status = model.StatusPtr(model.Accepted)
		} else {
			tr.Status = model.StatusPtr(model.WrongAnswer)
		}

	case model.CheckerCMSTPSTestlib, model.CheckerSTDTestlib:
		checkerCompiler := chal.ProblemContext.CheckerCompiler()
		lang := langregistry.Get(checkerCompiler)
		if lang == nil {
			t.setJudgeError(chal)
			return nil
		}
		var exe string
		var args []string
		if chal.ProblemContext.UserProgCompiler() != model.Java {
			exe, args = lang.ExecuteCommand("checker", "", []string{"in", "out", "ans"})
		} else {
			exe, args = lang.ExecuteCommand("checker", "checker", []string{"in", "out", "ans"})
		}

		params := sandbox.NewParams().
			SetExe(exe).
			SetArgs(args).
			SetTimeLimit(scoringTimeLimitMs).
			SetMemoryLimit(scoringMemoryLimitKB).
			SetStackLimit(65536).
			SetProcLimit(lang.AllowThreadCount).
			SetStdout("stdout").
			SetStderr("stderr").
			AddCopyOutCacheFile("stdout").
			AddCopyOutCacheFile("stderr")
		params.AddCopyInPath(chal.ProblemContext.CheckerPath(), "checker", true)
		params.AddCopyInPath(t.TestData.InputPath, "in", true)
		params.AddCopyInPath(t.TestData.OutputPath, "out", true)
		params.AddCopyInPath(t.TestData.UserOutputPath, "ans", true)

		res, err := env.Gateway.Run(ctx, chal.Box, params)
		if err != nil {
			return err
		}

		stdout, stderr := "", ""
		if p := chal.Box.GetFile("stdout"); p != "" {
			stdout, _ = readFile(p)
			chal.Box.DeleteFile("stdout")
		}
		if p := chal.Box.GetFile("stderr"); p != "" {
			stderr, _ = readFile(p)
			chal.Box.DeleteFile("stderr")
		}

		if kind == model.CheckerCMSTPSTestlib {
			if res.Status != sandbox.Normal {
				t.setJudgeError(chal)
				return nil
			}
			if line := firstLine(stderr); line != "" {
				tr.Message = line
				tr.MessageType = model.MessageText
			}
			scoreStr := firstLine(stdout)
			score, err := strconv.ParseFloat(scoreStr, 64)
			if err != nil {
				t.setJudgeError(chal)
				return nil
			}
			switch {
			case score >= 1.0:
				tr.Status = model.StatusPtr(model.Accepted)
			case score <= 0.0:
				tr.Status = model.StatusPtr(model.WrongAnswer)
			default:
				tr.Status = model.StatusPtr(model.PartialCorrect)
			}
			tr.Score = decimal.NewFromFloat(score)
		} else {
			// STD_TESTLIB exit-code dispatch.
			switch res.ExitStatus {
			case 0:
				tr.Status = model.StatusPtr(model.Accepted)
			case 1, 2:
				tr.Status = model.StatusPtr(model.WrongAnswer)
			case 3:
				t.setJudgeError(chal)
				return nil
			case 7:
				tr.Status = model.StatusPtr(model.PartialCorrect)
				fields := strings.Fields(firstLine(stderr))
				if len(fields) < 2 || fields[0] != "points" {
					t.setJudgeError(chal)
				} else if score, err := decimal.NewFromString(fields[1]); err == nil {
					tr.Score = score
				} else {
					tr.Status = model.StatusPtr(model.JudgeError)
					tr.Score = decimal.Zero
				}
			default:
				t.setJudgeError(chal)
				return nil
			}
			if stdout != "" {
				tr.Message = stdout
				tr.MessageType = model.MessageText
			}
		}

	case model.CheckerTOJ, model.CheckerIOREDIR:
		// Not implemented: no grounded reference implementation covers
		// token-order-judge or I/O-redirection checkers.
		t.setJudgeError(chal)
	}
	return nil
}

func (t *ScoringTask) Finish(chal *model.Challenge, _ *model.TaskEntry) {
	tr := chal.Result.TestDataResults[t.TestData.ID]
	if chal.Reporter != nil {
		chal.Reporter(chal.ChalID, "scoring", tr, nil)
	}

	if tr.Status == nil || (*tr.Status != model.Accepted && *tr.Status != model.PartialCorrect) {
		chal.MarkSkipSubtasks(t.TestData.Subtasks)
	}
	if t.TestData.UserOutputPath != "" {
		chal.Box.DeleteFile(filepath.Base(t.TestData.UserOutputPath))
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
