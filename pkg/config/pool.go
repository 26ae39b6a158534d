package config

import (
	"fmt"
	"runtime"
)

// EnvPrefix is the prefix for environment overrides, e.g. WORKPOOL_POOL_WORKERS
const EnvPrefix = "WORKPOOL"

// Tracing exporters understood by the observability/tracing package
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterZipkin = "zipkin"
)

// Config is the file schema for a worker pool deployment
type Config struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

type PoolConfig struct {
	Name    string `yaml:"name" json:"name"`
	Workers int    `yaml:"workers" json:"workers"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

type TracingConfig struct {
	Exporter    string `yaml:"exporter" json:"exporter"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// Default returns a config sized to the machine with metrics on and tracing off
func Default() Config {
	return Config{
		Pool: PoolConfig{
			Name:    "workpool",
			Workers: runtime.NumCPU(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "workpool",
		},
		Tracing: TracingConfig{
			Exporter:    ExporterNone,
			ServiceName: "workpool",
		},
	}
}

// LoadFile reads path over Default() and applies WORKPOOL_* overrides
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := LoadWithEnv(path, EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config before a pool is built from it
func (c *Config) Validate() error {
	validators := []Validator{
		RequiredFields("Pool.Name"),
		RangeValidator("Pool.Workers", 1, 1<<16),
		// Empty level means info and empty exporter means none
		OneOfValidator("Log.Level", "", "debug", "info", "warn", "warning", "error"),
		OneOfValidator("Tracing.Exporter", "", ExporterNone, ExporterStdout, ExporterZipkin),
	}
	if c.Tracing.Exporter == ExporterZipkin {
		validators = append(validators, RequiredFields("Tracing.Endpoint"))
	}
	if c.Metrics.Enabled {
		validators = append(validators, RequiredFields("Metrics.Namespace"))
	}

	if err := Validate(c, validators...); err != nil {
		return fmt.Errorf("invalid workpool config: %w", err)
	}
	return nil
}
