package task

import (
	"context"
	"testing"

	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
)

type fakeCompilationTarget struct {
	canCompile    bool
	compiler      model.Compiler
	outputName    string
	successPath   string
	failureRes    sandbox.Result
	failureStderr string
}

func (f *fakeCompilationTarget) CanCompile(chal *model.Challenge) bool          { return f.canCompile }
func (f *fakeCompilationTarget) SourceFiles(chal *model.Challenge) []CopyIn     { return nil }
func (f *fakeCompilationTarget) SourceList(chal *model.Challenge) []string      { return []string{"main.cpp"} }
func (f *fakeCompilationTarget) Compiler(chal *model.Challenge) model.Compiler  { return f.compiler }
func (f *fakeCompilationTarget) CompileArgs(chal *model.Challenge) []string     { return nil }
func (f *fakeCompilationTarget) OutputName(chal *model.Challenge) string       { return f.outputName }
func (f *fakeCompilationTarget) OnCompileSuccess(chal *model.Challenge, path string) {
	f.successPath = path
}
func (f *fakeCompilationTarget) OnCompileFailure(chal *model.Challenge, res sandbox.Result, stderr string) {
	f.failureRes = res
	f.failureStderr = stderr
}

func TestCompileTaskSetupDeclinesWhenTotalDecided(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 1)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{}
	chal := newTestChallenge(box, ctx, nil, nil)
	chal.Result.Total.Status = model.StatusPtr(model.JudgeError)

	target := &fakeCompilationTarget{canCompile: true}
	task := &CompileTask{Target: target}

	ok, err := task.Setup(chal, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if ok {
		t.Error("expected Setup to decline once total status is decided")
	}
}

func TestCompileTaskSetupDelegatesToTarget(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 2)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{}
	chal := newTestChallenge(box, ctx, nil, nil)

	target := &fakeCompilationTarget{canCompile: false}
	task := &CompileTask{Target: target}

	ok, err := task.Setup(chal, nil)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if ok {
		t.Error("expected Setup to reflect target.CanCompile() == false")
	}
}

func TestCompileTaskRunUnsupportedCompilerIsJudgeError(t *testing.T) {
	box, err := sandbox.NewChallengeBox(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{}
	chal := newTestChallenge(box, ctx, nil, nil)

	target := &fakeCompilationTarget{canCompile: true, compiler: model.Compiler(99), outputName: "a.out"}
	task := &CompileTask{Target: target}

	if err := task.Run(context.Background(), &model.Env{}, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if status := chal.Result.Total.Status; status == nil || *status != model.JudgeError {
		t.Errorf("total status = %v, want JudgeError", status)
	}
}

func TestCompileTaskRunSuccess(t *testing.T) {
	bin := writeFakeSandboxBinary(t, `
while [ "$#" -gt 0 ]; do
	if [ "$1" = "--workpath" ]; then
		touch "$2/a.out"
	fi
	shift
done
echo '{"status":1,"exitStatus":0,"error":"","time":100,"runTime":90,"memory":1024,"procPeak":1}'`)

	box, err := sandbox.NewChallengeBox(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{}
	chal := newTestChallenge(box, ctx, nil, nil)

	target := &fakeCompilationTarget{canCompile: true, compiler: model.GCCcpp17, outputName: "a.out"}
	task := &CompileTask{Target: target}
	env := &model.Env{Gateway: sandbox.NewGateway(bin)}

	if err := task.Run(context.Background(), env, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if target.successPath == "" {
		t.Error("expected OnCompileSuccess to be called with a file path")
	}
}

func TestCompileTaskRunFailure(t *testing.T) {
	bin := writeFakeSandboxBinary(t, `echo '{"status":1,"exitStatus":1,"error":"","time":1,"runTime":1,"memory":1,"procPeak":1}'`)

	box, err := sandbox.NewChallengeBox(t.TempDir(), 5)
	if err != nil {
		t.Fatalf("NewChallengeBox: %v", err)
	}
	ctx := &fakeProblemContext{}
	chal := newTestChallenge(box, ctx, nil, nil)

	target := &fakeCompilationTarget{canCompile: true, compiler: model.GCCcpp17, outputName: "a.out"}
	task := &CompileTask{Target: target}
	env := &model.Env{Gateway: sandbox.NewGateway(bin)}

	if err := task.Run(context.Background(), env, chal, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if target.failureRes.ExitStatus != 1 {
		t.Errorf("expected OnCompileFailure to receive exit status 1, got %+v", target.failureRes)
	}
}
