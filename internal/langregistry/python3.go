package langregistry

import (
	"path/filepath"
	"strings"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

func init() {
	register(model.Python3, &Lang{
		Name:             "python",
		HeaderExt:        "",
		SourceExt:        ".py",
		ObjectExt:        ".pyc",
		ExecutableExt:    ".pyz",
		AllowThreadCount: 1,
		compile: func(sources []string, additionArgs []string, executableName string) *sandbox.Params {
			stem := strings.TrimSuffix(sources[0], ".py")
			p := newCompileParams("/usr/bin/bash", []string{"compile_python3.sh", stem, executableName})
			p.AddCopyInPath(filepath.Join(ToolsPath, "compile_python3.sh"), "compile_python3.sh", true)
			return p
		},
		executeCommand: func(executableName, _ string, args []string) (string, []string) {
			if args == nil {
				args = []string{}
			}
			return "/usr/bin/python3", append([]string{executableName}, args...)
		},
	})
}
