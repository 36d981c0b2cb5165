package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/minimize"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Hermes    HermesConfig    `yaml:"hermes"`
	Solver    SolverConfig    `yaml:"solver"`
	Curve     CurveConfig     `yaml:"curve"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port               int `yaml:"port" env:"STACKELBERG_PORT"`
	MetricsPort        int `yaml:"metrics_port" env:"STACKELBERG_METRICS_PORT"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"STACKELBERG_RATE_LIMIT"`
}

type HermesConfig struct {
	URL             string `yaml:"url" env:"STACKELBERG_HERMES_URL"`
	StatsIntervalMs int    `yaml:"stats_interval_ms" env:"STACKELBERG_STATS_INTERVAL_MS"`
}

type SolverConfig struct {
	InnerMethod   string  `yaml:"inner_method" env:"STACKELBERG_INNER_METHOD"`
	OuterMethod   string  `yaml:"outer_method" env:"STACKELBERG_OUTER_METHOD"`
	InitialGuess  float64 `yaml:"initial_guess" env:"STACKELBERG_INITIAL_GUESS"`
	MaxIterations int     `yaml:"max_iterations" env:"STACKELBERG_MAX_ITERATIONS"`
	Strict        bool    `yaml:"strict" env:"STACKELBERG_STRICT"`
}

// CurveConfig is the leader-action domain sampled for the response curve.
type CurveConfig struct {
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Samples int     `yaml:"samples" env:"STACKELBERG_CURVE_SAMPLES"`
}

type DashboardConfig struct {
	Title    string      `yaml:"title" json:"title"`
	Slider   SliderRange `yaml:"slider" json:"slider"`
	Defaults game.Params `yaml:"defaults" json:"defaults"`
}

type SliderRange struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint" env:"STACKELBERG_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"STACKELBERG_LOG_LEVEL"`
	Format string `yaml:"format" env:"STACKELBERG_LOG_FORMAT"`
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Hermes.StatsIntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 600,
		},
		Hermes: HermesConfig{
			StatsIntervalMs: 60000,
		},
		Solver: SolverConfig{
			InnerMethod:   string(minimize.LBFGS),
			OuterMethod:   string(minimize.NelderMead),
			InitialGuess:  0.1,
			MaxIterations: minimize.DefaultMaxIterations,
		},
		Curve: CurveConfig{
			From:    game.MinAction,
			To:      3,
			Samples: 100,
		},
		Dashboard: DashboardConfig{
			Title:    "Game-Theoretic Power Allocation Simulator",
			Slider:   SliderRange{Min: 0.1, Max: 5, Step: 0.1},
			Defaults: game.Params{A: 1, B: 2, C: 1, D: 2},
		},
		Tracing: TracingConfig{
			ServiceName: "stackelberg",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the solver or dashboard cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := minimize.ParseMethod(c.Solver.InnerMethod); err != nil {
		errs = append(errs, fmt.Errorf("solver.inner_method: %w", err))
	}
	if _, err := minimize.ParseMethod(c.Solver.OuterMethod); err != nil {
		errs = append(errs, fmt.Errorf("solver.outer_method: %w", err))
	}
	if c.Solver.InitialGuess < game.MinAction {
		errs = append(errs, fmt.Errorf("solver.initial_guess must be >= %v", game.MinAction))
	}
	if c.Curve.From < game.MinAction || c.Curve.To <= c.Curve.From {
		errs = append(errs, fmt.Errorf("curve domain [%v, %v] invalid", c.Curve.From, c.Curve.To))
	}
	if c.Curve.Samples < 2 {
		errs = append(errs, errors.New("curve.samples must be at least 2"))
	}
	s := c.Dashboard.Slider
	if s.Min <= 0 || s.Max <= s.Min || s.Step <= 0 {
		errs = append(errs, fmt.Errorf("dashboard.slider %+v invalid", s))
	}
	if err := c.Dashboard.Defaults.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dashboard.defaults: %w", err))
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Logger builds the process logger described by the logging section.
func (l LoggingConfig) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level %q: %w", s, err)
	}
	return level, nil
}
