package langregistry

import (
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

func init() {
	register(model.Rust, &Lang{
		Name:             "rust",
		HeaderExt:        "",
		SourceExt:        ".rs",
		ObjectExt:        ".o",
		ExecutableExt:    "",
		AllowThreadCount: 1,
		compile: func(sources []string, additionArgs []string, executableName string) *sandbox.Params {
			args := []string{"-O", "-o", executableName, sources[0]}
			args = append(args, additionArgs...)
			return newCompileParams("/usr/bin/rustc", args)
		},
		executeCommand: compiledExecuteCommand,
	})
}
