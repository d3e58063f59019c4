package langregistry

import (
	"path/filepath"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// ToolsPath is the directory holding the compile helper scripts
// (compile_java.sh, compile_python3.sh). Overridable at startup from config.
var ToolsPath = "./tools"

func init() {
	register(model.Java, &Lang{
		Name:             "java",
		HeaderExt:        "",
		SourceExt:        ".java",
		ObjectExt:        ".javac",
		ExecutableExt:    ".jar",
		AllowThreadCount: 16,
		compile: func(sources []string, additionArgs []string, executableName string) *sandbox.Params {
			p := newCompileParams("/usr/bin/bash", []string{"compile_java.sh", executableName})
			p.AddCopyInPath(filepath.Join(ToolsPath, "compile_java.sh"), "compile_java.sh", true)
			return p
		},
		executeCommand: func(executableName, main string, args []string) (string, []string) {
			if args == nil {
				args = []string{}
			}
			command := append([]string{"-cp", executableName, main}, args...)
			return "/usr/bin/java", command
		},
	})
}
