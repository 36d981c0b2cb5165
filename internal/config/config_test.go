package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/minimize"
)

var envVars = []string{
	"STACKELBERG_PORT", "STACKELBERG_METRICS_PORT", "STACKELBERG_RATE_LIMIT",
	"STACKELBERG_HERMES_URL", "STACKELBERG_STATS_INTERVAL_MS",
	"STACKELBERG_INNER_METHOD", "STACKELBERG_OUTER_METHOD", "STACKELBERG_INITIAL_GUESS",
	"STACKELBERG_MAX_ITERATIONS", "STACKELBERG_STRICT", "STACKELBERG_CURVE_SAMPLES",
	"STACKELBERG_OTEL_ENDPOINT", "STACKELBERG_LOG_LEVEL", "STACKELBERG_LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8700, cfg.Server.Port)
	assert.Equal(t, 8701, cfg.Server.MetricsPort)
	assert.Equal(t, 600, cfg.Server.RateLimitPerMinute)
	assert.Empty(t, cfg.Hermes.URL, "hermes is opt-in")
	assert.Equal(t, time.Minute, cfg.StatsInterval())

	assert.Equal(t, string(minimize.LBFGS), cfg.Solver.InnerMethod)
	assert.Equal(t, string(minimize.NelderMead), cfg.Solver.OuterMethod)
	assert.Equal(t, 0.1, cfg.Solver.InitialGuess)
	assert.False(t, cfg.Solver.Strict)

	assert.Equal(t, game.MinAction, cfg.Curve.From)
	assert.Equal(t, 3.0, cfg.Curve.To)
	assert.Equal(t, 100, cfg.Curve.Samples)

	assert.Equal(t, SliderRange{Min: 0.1, Max: 5, Step: 0.1}, cfg.Dashboard.Slider)
	assert.Equal(t, game.Params{A: 1, B: 2, C: 1, D: 2}, cfg.Dashboard.Defaults)

	assert.Empty(t, cfg.Tracing.Endpoint)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STACKELBERG_PORT", "9000")
	t.Setenv("STACKELBERG_METRICS_PORT", "9001")
	t.Setenv("STACKELBERG_HERMES_URL", "nats://nats:4222")
	t.Setenv("STACKELBERG_OUTER_METHOD", "bfgs")
	t.Setenv("STACKELBERG_STRICT", "true")
	t.Setenv("STACKELBERG_CURVE_SAMPLES", "50")
	t.Setenv("STACKELBERG_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 9001, cfg.Server.MetricsPort)
	assert.Equal(t, "nats://nats:4222", cfg.Hermes.URL)
	assert.Equal(t, "bfgs", cfg.Solver.OuterMethod)
	assert.True(t, cfg.Solver.Strict)
	assert.Equal(t, 50, cfg.Curve.Samples)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
solver:
  outer_method: lbfgs
  max_iterations: 50
curve:
  to: 5
  samples: 20
dashboard:
  defaults: {a: 2, b: 3, c: 1.5, d: 0.5}
logging:
  format: text
`), 0o644))
	t.Setenv("STACKELBERG_PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "env wins over file")
	assert.Equal(t, 8701, cfg.Server.MetricsPort, "unset keys keep defaults")
	assert.Equal(t, "lbfgs", cfg.Solver.OuterMethod)
	assert.Equal(t, 50, cfg.Solver.MaxIterations)
	assert.Equal(t, 5.0, cfg.Curve.To)
	assert.Equal(t, 20, cfg.Curve.Samples)
	assert.Equal(t, game.Params{A: 2, B: 3, C: 1.5, D: 0.5}, cfg.Dashboard.Defaults)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown inner method", func(c *Config) { c.Solver.InnerMethod = "newton" }, "solver.inner_method"},
		{"unknown outer method", func(c *Config) { c.Solver.OuterMethod = "" }, "solver.outer_method"},
		{"guess below floor", func(c *Config) { c.Solver.InitialGuess = 0 }, "solver.initial_guess"},
		{"curve below floor", func(c *Config) { c.Curve.From = 0 }, "curve domain"},
		{"curve too short", func(c *Config) { c.Curve.Samples = 1 }, "curve.samples"},
		{"slider inverted", func(c *Config) { c.Dashboard.Slider.Max = 0.05 }, "dashboard.slider"},
		{"bad default", func(c *Config) { c.Dashboard.Defaults.B = -1 }, "dashboard.defaults"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	cfg, _ := Load("")
	cfg.Dashboard.Defaults.A = 0
	assert.True(t, errors.Is(cfg.Validate(), game.ErrDomain))
}

func TestLoggingConfigLogger(t *testing.T) {
	var buf bytes.Buffer
	LoggingConfig{Level: "warn", Format: "text"}.Logger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LoggingConfig{Level: "debug", Format: "json"}.Logger(&buf).Debug("shown", "k", 1)
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
