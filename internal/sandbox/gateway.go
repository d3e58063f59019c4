package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Gateway is the one-shot process launcher: it turns a Params record into a
// subprocess invocation of the external sandbox binary and returns a parsed
// Result. It also drives the per-invocation workdir lifecycle on a
// ChallengeBox (allocate, run, copy out cache files, remove).
type Gateway struct {
	BinaryPath string
	tracer     trace.Tracer
}

// NewGateway returns a Gateway that invokes binaryPath as the sandbox
// subprocess.
func NewGateway(binaryPath string) *Gateway {
	return &Gateway{BinaryPath: binaryPath, tracer: otel.Tracer("judge-sandbox")}
}

// Run executes one sandbox invocation against box, allocating and tearing
// down its per-invocation workdir. It never returns a Go error for a
// sandbox-side failure — those come back as Result{Status: RunnerError}; a
// Go error here means the gateway itself could not even launch the
// subprocess (binary missing, workdir alloc failed).
func (g *Gateway) Run(ctx context.Context, box *ChallengeBox, p *Params) (Result, error) {
	ctx, span := g.tracer.Start(ctx, "sandbox.run", trace.WithAttributes(
		attribute.String("exe", p.ExePath),
	))
	defer span.End()

	workdir, err := box.allocWorkdir()
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(workdir)

	p.Workdir = workdir
	args := p.ToFlags()

	cmd := exec.CommandContext(ctx, g.BinaryPath, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stdin = nil

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			slog.Error("sandbox subprocess failed to launch", "error", err)
			return Result{}, fmt.Errorf("launch sandbox: %w", err)
		}
	}

	result := parseResult(bytes.TrimSpace(stdout.Bytes()))
	if result.Status == RunnerError && result.Error != "" {
		slog.Error("sandbox result parse error", "raw", stdout.String())
	}

	for _, name := range p.CopyOutCacheFiles {
		src := filepath.Join(workdir, name)
		if info, statErr := os.Stat(src); statErr == nil && !info.IsDir() {
			dst := box.GenFilePath(name)
			if renameErr := os.Rename(src, dst); renameErr != nil {
				slog.Warn("failed to copy out cache file", "name", name, "error", renameErr)
			}
		}
	}

	span.SetAttributes(attribute.Int("sandbox.status", int(result.Status)))
	return result, nil
}
