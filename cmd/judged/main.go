// Command judged runs the evaluation engine: it loads judged.toml, stands
// up the task scheduler and sandbox gateway, opens the audit archive, and
// serves the control endpoint until told to stop.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/swarmguard/judge-engine/internal/audit"
	"github.com/swarmguard/judge-engine/internal/config"
	"github.com/swarmguard/judge-engine/internal/control"
	"github.com/swarmguard/judge-engine/internal/langregistry"
	"github.com/swarmguard/judge-engine/internal/model"
	"github.com/swarmguard/judge-engine/internal/sandbox"
	"github.com/swarmguard/judge-engine/internal/scheduler"
	"github.com/swarmguard/judge-engine/pkg/logging"
	"github.com/swarmguard/judge-engine/pkg/otelinit"
	"go.opentelemetry.io/otel"
)

const serviceName = "judge-engine"

func main() {
	configPath := flag.String("config", "/etc/judge-engine/judged.toml", "path to judged.toml")
	flag.Parse()

	logging.Init(serviceName)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		return
	}

	shutdownTrace := otelinit.InitTracer(ctx, serviceName)
	shutdownMetrics, _ := otelinit.InitMetrics(ctx, serviceName)
	meter := otel.Meter(serviceName)

	archive, err := audit.Open(cfg.Audit.DBPath, meter)
	if err != nil {
		slog.Error("failed to open audit archive", "path", cfg.Audit.DBPath, "error", err)
		return
	}
	defer archive.Close()

	sweeper := audit.NewSweeper(archive, cfg.Sandbox.ScratchRoot, cfg.Audit.ScratchMaxAge.Duration, cfg.Audit.ReportMaxAge.Duration)
	if err := sweeper.Start(cfg.Audit.SweepCron); err != nil {
		slog.Error("failed to start audit sweeper", "error", err)
		return
	}
	defer sweeper.Stop()

	langregistry.ToolsPath = cfg.Sandbox.ToolsPath

	env := &model.Env{
		Gateway:           sandbox.NewGateway(cfg.Sandbox.BinaryPath),
		DefaultCheckerDir: cfg.Sandbox.DefaultCheckerDir,
		Cpusets:           cfg.Sandbox.Cpusets,
	}

	cancelReg := scheduler.NewCancellationRegistry(meter)
	go cancelReg.StartCleanupLoop(ctx, cfg.Scheduler.CancelSweepEvery.Duration, cfg.Scheduler.CancelRetention.Duration)

	sched := scheduler.New(ctx, env, cfg.Scheduler.MaxConcurrent, cancelReg)
	go sched.Run(ctx)

	ctrl := control.NewServer(sched, env, archive, cfg.Sandbox.ScratchRoot, meter)
	httpSrv := &http.Server{Addr: cfg.Control.HTTPListenAddr, Handler: ctrl.NewMux()}

	go func() {
		slog.Info("control endpoint listening", "addr", cfg.Control.HTTPListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("control endpoint failed", "error", err)
			cancel()
		}
	}()

	slog.Info("judge engine started", "config", cfg.Path())
	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancelReg.CancelAll(shutdownCtx, "engine shutdown")
	_ = httpSrv.Shutdown(shutdownCtx)
	otelinit.Flush(shutdownCtx, shutdownTrace)
	_ = shutdownMetrics(shutdownCtx)
	slog.Info("shutdown complete")
}
