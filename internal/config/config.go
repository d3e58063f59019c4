// Package config loads the judge engine's TOML configuration file, grounded
// on the teacher's BurntSushi/toml project-config loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration for TOML unmarshalling from strings like
// "30s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	return nil
}

// Config is the top-level structure parsed from the engine's judged.toml.
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Sandbox   SandboxConfig   `toml:"sandbox"`
	Control   ControlConfig   `toml:"control"`
	Audit     AuditConfig     `toml:"audit"`
	Telemetry TelemetryConfig `toml:"telemetry"`

	path string
}

// Path returns the filesystem path this config was loaded from.
func (c *Config) Path() string { return c.path }

// SchedulerConfig tunes the task-DAG scheduler.
type SchedulerConfig struct {
	MaxConcurrent      int64    `toml:"max_concurrent"`
	CancelRetention    Duration `toml:"cancel_retention"`
	CancelSweepEvery   Duration `toml:"cancel_sweep_every"`
}

// SandboxConfig points at the external sandbox binary and its supporting
// files.
type SandboxConfig struct {
	BinaryPath        string   `toml:"binary_path"`
	DefaultCheckerDir string   `toml:"default_checker_dir"`
	ToolsPath         string   `toml:"tools_path"`
	ScratchRoot       string   `toml:"scratch_root"`
	Cpusets           []string `toml:"cpusets"`
}

// ControlConfig configures the control endpoint's HTTP front end (health
// probe, one-shot submission, and the persistent WebSocket submit/report
// stream all share this listener).
type ControlConfig struct {
	HTTPListenAddr string `toml:"http_listen_addr"`
}

// AuditConfig configures the bbolt report archive and its retention sweep.
type AuditConfig struct {
	DBPath         string   `toml:"db_path"`
	SweepCron      string   `toml:"sweep_cron"`
	ScratchMaxAge  Duration `toml:"scratch_max_age"`
	ReportMaxAge   Duration `toml:"report_max_age"`
}

// TelemetryConfig holds the parsed [telemetry] table. Nothing reads these
// fields at present: pkg/otelinit takes its exporter endpoint from the
// standard OTEL_EXPORTER_OTLP_* environment variables.
type TelemetryConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// defaults are applied before parsing so a minimal config file still
// produces a runnable engine.
func defaults() Config {
	return Config{
		Scheduler: SchedulerConfig{
			MaxConcurrent:    8,
			CancelRetention:  Duration{10 * time.Minute},
			CancelSweepEvery: Duration{time.Minute},
		},
		Sandbox: SandboxConfig{
			BinaryPath:        "/usr/local/bin/sandbox",
			DefaultCheckerDir: "/usr/local/share/judge/checkers",
			ToolsPath:         "./tools",
			ScratchRoot:       "/var/lib/judge-engine/scratch",
		},
		Control: ControlConfig{
			HTTPListenAddr: ":8080",
		},
		Audit: AuditConfig{
			DBPath:        "/var/lib/judge-engine/audit.db",
			SweepCron:     "0 */5 * * * *",
			ScratchMaxAge: Duration{6 * time.Hour},
			ReportMaxAge:  Duration{30 * 24 * time.Hour},
		},
		Telemetry: TelemetryConfig{
			ServiceName: "judge-engine",
		},
	}
}

// Load parses path into a Config seeded with defaults.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", absPath, err)
	}

	cfg := defaults()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", absPath, err)
	}

	cfg.path = absPath
	return &cfg, nil
}
