// Package langregistry holds the fixed, per-compiler table of how to build a
// compile invocation and an execute command line. It is pure data: every
// entry describes argv templates and extensions, nothing here touches the
// network or the filesystem directly. Compile turns a Lang entry into
// sandbox.Params the caller hands to a Gateway; ExecuteCommand does the same
// for running the produced executable.
package langregistry

import (
	"strings"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// Lang describes one compiler/runtime combination.
type Lang struct {
	Name             string
	HeaderExt        string
	SourceExt        string
	ObjectExt        string
	ExecutableExt    string
	AllowThreadCount int

	// compile builds the sandbox.Params for a compile invocation given the
	// staged source file names and the desired executable name.
	compile func(sources []string, additionArgs []string, executableName string) *sandbox.Params

	// executeCommand returns the argv used to run the compiled artifact.
	// main is only meaningful for Java (the -cp entry class); args are the
	// program's own arguments.
	executeCommand func(executableName, main string, args []string) (string, []string)
}

// Compile returns the sandbox.Params describing how to compile this
// language's sources into executableName. Callers still need to attach
// copy-in bind paths for sources/headers and a copy-out-cache entry for
// executableName; Compile sets argv, the compile-time resource ceiling, and
// stderr capture.
func (l *Lang) Compile(sources []string, additionArgs []string, executableName string) *sandbox.Params {
	return l.compile(sources, additionArgs, executableName)
}

// ExecuteCommand returns the argv for running executableName.
func (l *Lang) ExecuteCommand(executableName, main string, args []string) (string, []string) {
	return l.executeCommand(executableName, main, args)
}

// compileTimeLimits mirrors the original's fixed 10s / 512MiB compile
// ceiling, applied uniformly regardless of source language.
const (
	compileTimeLimitMs   int64 = 10000
	compileMemoryLimitKB int64 = 524288
	compileProcLimit     int   = 10
)

func newCompileParams(exePath string, args []string) *sandbox.Params {
	return sandbox.NewParams().
		SetExe(exePath).
		SetArgs(args).
		SetTimeLimit(compileTimeLimitMs).
		SetMemoryLimit(compileMemoryLimitKB).
		SetProcLimit(compileProcLimit).
		SetStderr("stderr").
		AddEnv("PATH=/usr/bin:/bin").
		AddCopyOutCacheFile("stderr")
}

// compiledExecuteCommand is the shared get_execute_command for every
// directly-compiled-to-native-binary language (C, C++, Rust, asm): just run
// "./<executable>" with the caller's args, main is ignored.
func compiledExecuteCommand(executableName, _ string, args []string) (string, []string) {
	if args == nil {
		args = []string{}
	}
	return "./" + executableName, args
}

// registry is the fixed compiler -> Lang table, populated by init() in each
// sibling file (c.go, cpp.go, java.go, python3.go, rust.go, asm.go). There is
// no dynamic registration surface by design: the set of supported compilers
// is a build-time decision, not a runtime plugin point.
var registry = make(map[model.Compiler]*Lang)

func register(c model.Compiler, l *Lang) {
	registry[c] = l
}

// Get returns the Lang for compiler, or nil if unsupported.
func Get(c model.Compiler) *Lang {
	return registry[c]
}

// SourceFileName returns the staged file name a source should be copied in
// as, given the submission's base name and this language's source extension.
func SourceFileName(base string, l *Lang) string {
	if strings.HasSuffix(base, l.SourceExt) {
		return base
	}
	return base + l.SourceExt
}
