package langregistry

import (
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

func init() {
	register(model.AsmWithLibc, newAsm("/usr/bin/gcc"))
	register(model.AsmWithLibstdcpp, newAsm("/usr/bin/g++"))
}

func newAsm(compiler string) *Lang {
	return &Lang{
		Name:             "asm",
		HeaderExt:        "",
		SourceExt:        ".s",
		ObjectExt:        ".o",
		ExecutableExt:    "",
		AllowThreadCount: 1,
		compile: func(sources []string, additionArgs []string, executableName string) *sandbox.Params {
			args := []string{"-o", executableName}
			args = append(args, sources...)
			args = append(args, additionArgs...)
			args = append(args, "-lm")
			return newCompileParams(compiler, args)
		},
		executeCommand: compiledExecuteCommand,
	}
}
