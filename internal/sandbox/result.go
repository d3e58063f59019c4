package sandbox

import "encoding/json"

// Status mirrors model.SandboxStatus, duplicated here (as a plain int) so
// this package stays a leaf with no dependency on internal/model.
type Status int

const (
	Normal             Status = 1
	TimeLimitExceeded  Status = 2
	MemoryLimitExceeded Status = 3
	OutputLimitExceeded Status = 4
	DisallowedSyscall  Status = 5
	Signalled          Status = 6
	NonzeroExitStatus  Status = 7
	RunnerError        Status = 8
)

// Result is the sandbox binary's one-shot JSON stdout contract:
// {status, exitStatus, error, time, runTime, memory, procPeak}.
type Result struct {
	Status     Status `json:"status"`
	ExitStatus int    `json:"exitStatus"`
	Error      string `json:"error"`
	Time       int64  `json:"time"`
	RunTime    int64  `json:"runTime"`
	Memory     int64  `json:"memory"`
	ProcPeak   int64  `json:"procPeak"`
}

// parseResult decodes the sandbox binary's stdout. A malformed payload is
// reported as a RunnerError result rather than a Go error, matching the
// original's "never let a gateway parse failure propagate as an exception"
// behavior — callers still get a Result they can dispatch on.
func parseResult(data []byte) Result {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{Status: RunnerError, Error: "parse error: " + err.Error()}
	}
	return r
}
