// Package sandbox wraps the external sandbox binary: it builds parameter
// records, invokes the binary as a subprocess, parses its JSON result, and
// owns the per-challenge scratch directory (file store + named-pipe store)
// artifacts are staged in and copied out of.
package sandbox

import "fmt"

// BindPath is one bind-mount entry: a host (or workdir-relative) source, a
// destination inside the sandbox, and whether the mount is read-only.
type BindPath struct {
	Src      string
	Dst      string
	ReadOnly bool
}

// Params is a fluent builder for one sandbox invocation. Workdir is assigned
// by the Gateway at invocation time, never set by callers directly.
type Params struct {
	ExePath string
	Args    []string
	Workdir string

	TimeLimit      int64 // ms
	MemoryLimit    int64 // KiB
	StackLimit     int64 // KiB
	VSSMemoryLimit int64 // KiB
	ProcLimit      int
	OutputLimit    int64 // KiB
	OpenFileLimit  int

	Stdin  string
	Stdout string
	Stderr string

	ExtraEnv []string

	AllowProc          bool
	AllowMountProc     bool
	AllowMountProcRW   bool
	Cpuset             string

	BindPaths           []BindPath
	BindToWorkdirPaths  []BindPath
	CopyOutCacheFiles   []string
}

// NewParams returns a Params with the original implementation's defaults.
func NewParams() *Params {
	return &Params{
		TimeLimit:     1000,
		MemoryLimit:   262144,
		StackLimit:    65536,
		ProcLimit:     1,
		OutputLimit:   65536,
		OpenFileLimit: 16,
	}
}

func (p *Params) SetExe(path string) *Params          { p.ExePath = path; return p }
func (p *Params) SetArgs(args []string) *Params       { p.Args = args; return p }
func (p *Params) SetTimeLimit(ms int64) *Params       { p.TimeLimit = ms; return p }
func (p *Params) SetMemoryLimit(kib int64) *Params    { p.MemoryLimit = kib; return p }
func (p *Params) SetStackLimit(kib int64) *Params     { p.StackLimit = kib; return p }
func (p *Params) SetOutputLimit(kib int64) *Params    { p.OutputLimit = kib; return p }
func (p *Params) SetProcLimit(n int) *Params          { p.ProcLimit = n; return p }
func (p *Params) SetStdin(name string) *Params        { p.Stdin = name; return p }
func (p *Params) SetStdout(name string) *Params       { p.Stdout = name; return p }
func (p *Params) SetStderr(name string) *Params       { p.Stderr = name; return p }
func (p *Params) AddEnv(env string) *Params           { p.ExtraEnv = append(p.ExtraEnv, env); return p }
func (p *Params) SetAllowProc(allow bool) *Params     { p.AllowProc = allow; return p }
func (p *Params) SetAllowMountProc(allow bool) *Params { p.AllowMountProc = allow; return p }
func (p *Params) SetCpuset(cpuset string) *Params     { p.Cpuset = cpuset; return p }

// AddBindPath adds a bind-mount rooted at an absolute host path.
func (p *Params) AddBindPath(src, dst string, readonly bool) *Params {
	p.BindPaths = append(p.BindPaths, BindPath{Src: src, Dst: dst, ReadOnly: readonly})
	return p
}

// AddCopyInPath adds a bind-mount whose destination is relative to the
// per-invocation workdir (the "copy an artifact/input in as this name"
// case).
func (p *Params) AddCopyInPath(src, dst string, readonly bool) *Params {
	p.BindToWorkdirPaths = append(p.BindToWorkdirPaths, BindPath{Src: src, Dst: dst, ReadOnly: readonly})
	return p
}

// AddCopyOutCacheFile marks a workdir-relative filename to be moved into the
// challenge's file store once the sandbox invocation completes.
func (p *Params) AddCopyOutCacheFile(name string) *Params {
	p.CopyOutCacheFiles = append(p.CopyOutCacheFiles, name)
	return p
}

// ToFlags serializes Params into the external sandbox binary's CLI contract.
func (p *Params) ToFlags() []string {
	flags := []string{
		"--workpath", p.Workdir,
		"--time-limit", fmt.Sprint(p.TimeLimit),
		"--memory-limit", fmt.Sprint(p.MemoryLimit),
		"--stack-limit", fmt.Sprint(p.StackLimit),
		"--proc-limit", fmt.Sprint(p.ProcLimit),
		"--output-limit", fmt.Sprint(p.OutputLimit),
		"--open-file-limit", fmt.Sprint(p.OpenFileLimit),
		"--vss-memory-limit", fmt.Sprint(p.VSSMemoryLimit),
		"--redir-output-to-null",
	}
	if p.Stdin != "" {
		flags = append(flags, "--stdin", p.Stdin)
	}
	if p.Stdout != "" {
		flags = append(flags, "--stdout", p.Stdout)
	}
	if p.Stderr != "" {
		flags = append(flags, "--stderr", p.Stderr)
	}
	if p.AllowProc {
		flags = append(flags, "--allow-proc")
	}
	if p.AllowMountProc {
		flags = append(flags, "--allow-mount-proc")
	} else if p.AllowMountProcRW {
		flags = append(flags, "--allow-mount-proc-rw")
	}
	if p.Cpuset != "" {
		flags = append(flags, "--cpuset", p.Cpuset)
	}
	for _, env := range p.ExtraEnv {
		flags = append(flags, "--add-env", env)
	}
	for _, b := range p.BindPaths {
		flags = append(flags, "--add-bind-path", fmt.Sprintf("%s:%s:%s", b.Src, b.Dst, roFlag(b.ReadOnly)))
	}
	for _, b := range p.BindToWorkdirPaths {
		flags = append(flags, "--add-bind-path", fmt.Sprintf("%s:work/%s:%s", b.Src, b.Dst, roFlag(b.ReadOnly)))
	}
	flags = append(flags, p.ExePath)
	flags = append(flags, p.Args...)
	return flags
}

func roFlag(readonly bool) string {
	if readonly {
		return "true"
	}
	return "false"
}
