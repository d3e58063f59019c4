package langregistry

import (
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

func init() {
	register(model.GCCcpp17, newCpp17("/usr/bin/g++", "-std=gnu++17"))
	register(model.Clangcpp17, newCpp17("/usr/bin/clang++", "-std=c++17"))
}

// newCpp17 mirrors the original's _Cpp17: no -lm, otherwise the same shape as
// the C compile line.
func newCpp17(compiler, standard string) *Lang {
	return &Lang{
		Name:             "cpp",
		HeaderExt:        ".h",
		SourceExt:        ".cpp",
		ObjectExt:        ".o",
		ExecutableExt:    "",
		AllowThreadCount: 1,
		compile: func(sources []string, additionArgs []string, executableName string) *sandbox.Params {
			args := []string{standard, "-O2", "-pipe", "-static", "-s", "-o", executableName}
			args = append(args, sources...)
			args = append(args, additionArgs...)
			return newCompileParams(compiler, args)
		},
		executeCommand: compiledExecuteCommand,
	}
}
