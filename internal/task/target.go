// Package task implements the four DAG node kinds (compile, execute, score,
// summarize) as model.Task values. Each type follows the same three-phase
// contract: Setup decides whether Run is worth doing, Run does the sandbox
// work, Finish reports and cleans up — always, even when Setup declined Run.
package task

import (
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// CopyIn is one (host path, workdir-relative name) pair a CompilationTarget
// wants staged before compilation.
type CopyIn struct {
	Src string
	Dst string
}

// CompilationTarget is what differs between compiling the submitted program
// and compiling a custom checker: which files to stage, which compiler to
// use, and what to do with the result. Implementations live in
// internal/problem, grounded on the original's UserProgramCompilationTarget
// / CheckerCompilationTarget.
type CompilationTarget interface {
	CanCompile(chal *model.Challenge) bool
	SourceFiles(chal *model.Challenge) []CopyIn
	SourceList(chal *model.Challenge) []string
	Compiler(chal *model.Challenge) model.Compiler
	CompileArgs(chal *model.Challenge) []string
	OutputName(chal *model.Challenge) string
	OnCompileSuccess(chal *model.Challenge, outputPath string)
	OnCompileFailure(chal *model.Challenge, res sandbox.Result, stderr string)
}
