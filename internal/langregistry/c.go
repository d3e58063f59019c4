package langregistry

import (
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

func init() {
	register(model.GCCc11, newC11("/usr/bin/gcc", "-std=gnu11"))
	register(model.Clangc11, newC11("/usr/bin/clang", "-std=c11"))
}

// newC11 mirrors the original's _C11: compiler -std -O2 -pipe -static -s -o
// <exe> <sources> <extra> -lm.
func newC11(compiler, standard string) *Lang {
	return &Lang{
		Name:             "c",
		HeaderExt:        ".h",
		SourceExt:        ".c",
		ObjectExt:        ".o",
		ExecutableExt:    "",
		AllowThreadCount: 1,
		compile: func(sources []string, additionArgs []string, executableName string) *sandbox.Params {
			args := []string{standard, "-O2", "-pipe", "-static", "-s", "-o", executableName}
			args = append(args, sources...)
			args = append(args, additionArgs...)
			args = append(args, "-lm")
			return newCompileParams(compiler, args)
		},
		executeCommand: compiledExecuteCommand,
	}
}
