package task

import (
	"context"

	"github.com/swarmguard/judge-engine/internal/langregistry"
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

// CompileTask compiles either the submitted program or a custom checker,
// depending on which CompilationTarget it was built with.
type CompileTask struct {
	Target CompilationTarget
}

func (t *CompileTask) Setup(chal *model.Challenge, _ *model.TaskEntry) (bool, error) {
	if chal.Result.Total.Status != nil {
		return false, nil
	}
	return t.Target.CanCompile(chal), nil
}

func (t *CompileTask) Run(ctx context.Context, env *model.Env, chal *model.Challenge, _ *model.TaskEntry) error {
	compiler := t.Target.Compiler(chal)
	lang := langregistry.Get(compiler)
	if lang == nil {
		chal.Result.Total.Status = model.StatusPtr(model.JudgeError)
		chal.Result.Total.IEMessage = "unsupported compiler, please contact administrator"
		chal.Result.Total.MessageType = model.MessageText
		return nil
	}

	outputName := t.Target.OutputName(chal)
	params := lang.Compile(t.Target.SourceList(chal), t.Target.CompileArgs(chal), outputName)
	params.AddCopyOutCacheFile(outputName)
	for _, src := range t.Target.SourceFiles(chal) {
		params.AddCopyInPath(src.Src, src.Dst, true)
	}

	res, err := env.Gateway.Run(ctx, chal.Box, params)
	if err != nil {
		return err
	}

	if res.Status == sandbox.Normal && res.ExitStatus == 0 {
		t.Target.OnCompileSuccess(chal, chal.Box.GetFile(outputName))
	} else {
		stderr := ""
		if path := chal.Box.GetFile("stderr"); path != "" {
			if data, readErr := readFile(path); readErr == nil {
				stderr = data
			}
			chal.Box.DeleteFile("stderr")
		}
		t.Target.OnCompileFailure(chal, res, stderr)
	}
	return nil
}

func (t *CompileTask) Finish(_ *model.Challenge, _ *model.TaskEntry) {}
