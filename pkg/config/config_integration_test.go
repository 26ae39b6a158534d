package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fluxorio/workpool/pkg/config"
)

func TestLoadFile_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workpool.yaml")
	content := `
pool:
  name: thumbnails
log:
  level: debug
tracing:
  exporter: zipkin
  endpoint: http://localhost:9411/api/v2/spans
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Setenv("WORKPOOL_POOL_WORKERS", "12")
	t.Setenv("WORKPOOL_METRICS_ENABLED", "false")

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Pool.Name != "thumbnails" || cfg.Pool.Workers != 12 {
		t.Errorf("Pool = %+v", cfg.Pool)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be overridden to false")
	}
	if cfg.Tracing.ServiceName != "workpool" {
		t.Errorf("Tracing.ServiceName = %q, want default", cfg.Tracing.ServiceName)
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Pool.Workers != runtime.NumCPU() {
		t.Errorf("Pool.Workers = %d, want %d", cfg.Pool.Workers, runtime.NumCPU())
	}
}

func TestConfig_ValidateAcceptsZeroLevelAndExporter(t *testing.T) {
	cfg := config.Config{
		Pool: config.PoolConfig{Name: "inline", Workers: 2},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestConfig_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero workers", func(c *config.Config) { c.Pool.Workers = 0 }},
		{"empty name", func(c *config.Config) { c.Pool.Name = "" }},
		{"unknown level", func(c *config.Config) { c.Log.Level = "trace" }},
		{"unknown exporter", func(c *config.Config) { c.Tracing.Exporter = "jaeger" }},
		{"zipkin without endpoint", func(c *config.Config) { c.Tracing.Exporter = config.ExporterZipkin }},
		{"metrics without namespace", func(c *config.Config) { c.Metrics.Namespace = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestSaveYAML_LoadFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	want := config.Default()
	want.Pool.Name = "resize"
	want.Pool.Workers = 5
	want.Tracing.Exporter = config.ExporterStdout
	if err := config.SaveYAML(path, want); err != nil {
		t.Fatalf("SaveYAML failed: %v", err)
	}

	got, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got != want {
		t.Errorf("LoadFile() = %+v, want %+v", got, want)
	}
}
