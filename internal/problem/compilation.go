package problem

import (
	"os"
	"path/filepath"

	"github.com/swarmguard/judge-engine/internal/langregistry"
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
	"github.com/swarmguard/judge-engine/internal/task"
)

// UserProgramCompilationTarget compiles the contestant's submission,
// stitching in a problem-supplied grader when the problem has one.
type UserProgramCompilationTarget struct {
	ctx *BatchContext
}

func (u *UserProgramCompilationTarget) CanCompile(chal *model.Challenge) bool {
	if !u.ctx.hasGrader {
		return true
	}
	lang := langregistry.Get(u.ctx.userProgCompiler)
	graderFolder := filepath.Join(chal.ResPath, "grader", lang.Name)
	if _, err := os.Stat(graderFolder); err != nil {
		setJudgeErrorf(chal, "%s version grader not supported, please contact administrator or problem setter.", lang.Name)
		return false
	}
	if u.ctx.userProgCompiler == model.Python3 {
		graderPath := filepath.Join(graderFolder, "grader.py")
		if _, err := os.Stat(graderPath); err != nil {
			setJudgeErrorf(chal, "Python3 version grader needs grader.py, but the file was not found.\nPlease contact administrator or problem setter.")
			return false
		}
	}
	return true
}

func (u *UserProgramCompilationTarget) SourceFiles(chal *model.Challenge) []task.CopyIn {
	lang := langregistry.Get(u.ctx.userProgCompiler)
	copyIn := []task.CopyIn{{Src: chal.CodePath, Dst: "a" + lang.SourceExt}}
	if !u.ctx.hasGrader {
		return copyIn
	}
	graderFolder := filepath.Join(chal.ResPath, "grader", lang.Name)
	entries, err := os.ReadDir(graderFolder)
	if err != nil {
		return copyIn
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		copyIn = append(copyIn, task.CopyIn{Src: filepath.Join(graderFolder, e.Name()), Dst: e.Name()})
	}
	return copyIn
}

func (u *UserProgramCompilationTarget) SourceList(chal *model.Challenge) []string {
	lang := langregistry.Get(u.ctx.userProgCompiler)
	sources := []string{"a" + lang.SourceExt}
	if !u.ctx.hasGrader {
		return sources
	}

	switch u.ctx.userProgCompiler {
	case model.GCCc11, model.Clangc11, model.GCCcpp17, model.Clangcpp17:
		graderFolder := filepath.Join(chal.ResPath, "grader", lang.Name)
		matches, _ := filepath.Glob(filepath.Join(graderFolder, "*"+lang.SourceExt))
		for _, m := range matches {
			sources = append(sources, filepath.Base(m))
		}
	case model.Python3:
		sources = append(sources, "grader.py")
		reverseStrings(sources)
	}
	return sources
}

func (u *UserProgramCompilationTarget) Compiler(_ *model.Challenge) model.Compiler { return u.ctx.userProgCompiler }
func (u *UserProgramCompilationTarget) CompileArgs(_ *model.Challenge) []string    { return u.ctx.userProgCompileArgs }

func (u *UserProgramCompilationTarget) OutputName(_ *model.Challenge) string {
	return "a" + langregistry.Get(u.ctx.userProgCompiler).ExecutableExt
}

func (u *UserProgramCompilationTarget) OnCompileSuccess(_ *model.Challenge, outputPath string) {
	u.ctx.userProgPath = outputPath
}

// OnCompileFailure maps sandbox status to a verdict. Per the
// Signalled-during-compile resolution, both NonzeroExitStatus and Signalled
// map to CompileError (not RuntimeErrorSignalled — that status only applies
// to Execute).
func (u *UserProgramCompilationTarget) OnCompileFailure(chal *model.Challenge, res sandbox.Result, stderr string) {
	chal.Result.Total.CEMessage = stderr
	chal.Result.Total.MessageType = model.MessageText
	switch res.Status {
	case sandbox.NonzeroExitStatus, sandbox.Signalled:
		chal.Result.Total.Status = model.StatusPtr(model.CompileError)
	case sandbox.TimeLimitExceeded, sandbox.MemoryLimitExceeded, sandbox.OutputLimitExceeded:
		chal.Result.Total.Status = model.StatusPtr(model.CompileLimitExceeded)
	case sandbox.RunnerError:
		chal.Result.Total.Status = model.StatusPtr(model.InternalError)
	}
}

// CheckerCompilationTarget compiles a problem-supplied checker source for
// checker types that need one (CMS/TPS testlib, STD testlib, TOJ, IOREDIR).
type CheckerCompilationTarget struct {
	ctx *BatchContext
}

func (c *CheckerCompilationTarget) CanCompile(chal *model.Challenge) bool {
	lang := langregistry.Get(c.ctx.checkerCompiler)
	checkerName := "checker" + lang.SourceExt
	checkerPath := filepath.Join(chal.ResPath, "checker")
	if _, err := os.Stat(filepath.Join(checkerPath, checkerName)); err != nil {
		setJudgeErrorf(chal, "%s not found, please contact administrator or problem setter", checkerName)
		return false
	}
	return true
}

func (c *CheckerCompilationTarget) SourceFiles(chal *model.Challenge) []task.CopyIn {
	lang := langregistry.Get(c.ctx.checkerCompiler)
	checkerName := "checker" + lang.SourceExt
	checkerPath := filepath.Join(chal.ResPath, "checker")
	copyIn := []task.CopyIn{{Src: filepath.Join(checkerPath, checkerName), Dst: checkerName}}

	entries, err := os.ReadDir(checkerPath)
	if err != nil {
		return copyIn
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == checkerName {
			continue
		}
		copyIn = append(copyIn, task.CopyIn{Src: filepath.Join(checkerPath, e.Name()), Dst: e.Name()})
	}
	return copyIn
}

func (c *CheckerCompilationTarget) SourceList(_ *model.Challenge) []string {
	return []string{"checker" + langregistry.Get(c.ctx.checkerCompiler).SourceExt}
}

func (c *CheckerCompilationTarget) Compiler(_ *model.Challenge) model.Compiler { return c.ctx.checkerCompiler }
func (c *CheckerCompilationTarget) CompileArgs(_ *model.Challenge) []string    { return c.ctx.checkerCompileArgs }

func (c *CheckerCompilationTarget) OutputName(_ *model.Challenge) string {
	return "checker" + langregistry.Get(c.ctx.checkerCompiler).ExecutableExt
}

func (c *CheckerCompilationTarget) OnCompileSuccess(_ *model.Challenge, outputPath string) {
	c.ctx.checkerPath = outputPath
}

func (c *CheckerCompilationTarget) OnCompileFailure(chal *model.Challenge, _ sandbox.Result, stderr string) {
	chal.Result.Total.Status = model.StatusPtr(model.JudgeError)
	chal.Result.Total.IEMessage = stderr
	chal.Result.Total.MessageType = model.MessageText
}

func setJudgeErrorf(chal *model.Challenge, format string, args ...any) {
	chal.Result.Total.Status = model.StatusPtr(model.JudgeError)
	chal.Result.Total.IEMessage = sprintf(format, args...)
	chal.Result.Total.MessageType = model.MessageText
}
