package otelinit

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
)

// Instruments holds the scheduler-wide metrics shared across packages.
type Instruments struct {
	TasksRunning    metric.Int64UpDownCounter
	TasksFinished   metric.Int64Counter
	TaskDuration    metric.Float64Histogram
	QueueDepth      metric.Int64UpDownCounter
	ChallengesDone  metric.Int64Counter
	SandboxInvokes  metric.Int64Counter
}

// InitMetrics sets up a global OTLP metrics exporter (push). Returns a shutdown
// function and the common instrument set; safe to call even without a collector.
func InitMetrics(ctx context.Context, component string) (shutdown func(context.Context) error, instruments Instruments) {
	res, _ := sdkresource.Merge(sdkresource.Default(), sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(component),
		attribute.String("component", component),
	))
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	ctxInit, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exp, err := otlpmetricgrpc.New(ctxInit,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithInsecure()),
	)
	if err != nil {
		slog.Warn("metrics exporter init failed", "error", err)
		return func(context.Context) error { return nil }, newInstruments()
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(10*time.Second))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)
	slog.Info("metrics initialized", "endpoint", endpoint)
	return mp.Shutdown, newInstruments()
}

func newInstruments() Instruments {
	meter := otel.Meter("judge-engine")
	running, _ := meter.Int64UpDownCounter("judge_tasks_running")
	finished, _ := meter.Int64Counter("judge_tasks_finished_total")
	duration, _ := meter.Float64Histogram("judge_task_duration_ms")
	queue, _ := meter.Int64UpDownCounter("judge_runnable_queue_depth")
	challenges, _ := meter.Int64Counter("judge_challenges_completed_total")
	sandbox, _ := meter.Int64Counter("judge_sandbox_invocations_total")
	return Instruments{
		TasksRunning:   running,
		TasksFinished:  finished,
		TaskDuration:   duration,
		QueueDepth:     queue,
		ChallengesDone: challenges,
		SandboxInvokes: sandbox,
	}
}
