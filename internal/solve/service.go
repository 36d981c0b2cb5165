// Package solve instruments the solver for the service front-ends. It adds
// spans, metrics and logging around the pure computations in stackelberg
// and assembles the figure the dashboard draws.
package solve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikeSquared-Agency/Stackelberg/internal/config"
	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/metrics"
	"github.com/MikeSquared-Agency/Stackelberg/internal/minimize"
	"github.com/MikeSquared-Agency/Stackelberg/internal/stackelberg"
)

const tracerName = "github.com/MikeSquared-Agency/Stackelberg/internal/solve"

// Figure is everything needed to draw the dashboard chart: the equilibrium
// marker and the sampled response curve.
type Figure struct {
	Params      game.Params             `json:"params"`
	Equilibrium stackelberg.Equilibrium `json:"equilibrium"`
	Status      string                  `json:"status"`
	Curve       []stackelberg.Point     `json:"curve"`
}

type Service struct {
	solver *stackelberg.Solver
	curve  config.CurveConfig
	tracer trace.Tracer
	logger *slog.Logger
}

// NewService builds the solver from the solver section of cfg.
func NewService(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	inner, err := minimize.ParseMethod(cfg.Solver.InnerMethod)
	if err != nil {
		return nil, fmt.Errorf("inner method: %w", err)
	}
	outer, err := minimize.ParseMethod(cfg.Solver.OuterMethod)
	if err != nil {
		return nil, fmt.Errorf("outer method: %w", err)
	}
	opts := []stackelberg.Option{
		stackelberg.WithInnerMethod(inner),
		stackelberg.WithOuterMethod(outer),
		stackelberg.WithInitialGuess(cfg.Solver.InitialGuess),
		stackelberg.WithMaxIterations(cfg.Solver.MaxIterations),
	}
	if cfg.Solver.Strict {
		opts = append(opts, stackelberg.WithStrictConvergence())
	}
	return &Service{
		solver: stackelberg.New(opts...),
		curve:  cfg.Curve,
		tracer: otel.Tracer(tracerName),
		logger: logger,
	}, nil
}

// Equilibrium solves the game for params.
func (s *Service) Equilibrium(ctx context.Context, params game.Params) (stackelberg.Equilibrium, error) {
	_, span := s.tracer.Start(ctx, "solve.equilibrium", trace.WithAttributes(paramAttrs(params)...))
	defer span.End()

	start := time.Now()
	eq, err := s.solver.Equilibrium(params)
	outcome := classify(err, eq.Converged)
	metrics.ObserveSolve(metrics.KindEquilibrium, outcome, start)
	if err == nil {
		metrics.InnerSolves.Observe(float64(eq.InnerSolves))
	}

	span.SetAttributes(
		attribute.String("solve.outcome", outcome),
		attribute.Int("solve.inner_solves", eq.InnerSolves),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("equilibrium solve failed", "params", params, "error", err)
		return eq, err
	}
	span.SetAttributes(attribute.Float64("solve.p", eq.P), attribute.Float64("solve.q", eq.Q))
	if !eq.Converged {
		s.logger.Warn("equilibrium did not converge, returning best effort",
			"params", params, "status", eq.Status.String(), "p", eq.P, "q", eq.Q)
	}
	s.logger.Debug("equilibrium solved",
		"params", params, "p", eq.P, "q", eq.Q,
		"inner_solves", eq.InnerSolves, "duration_ms", time.Since(start).Milliseconds())
	return eq, nil
}

// BestResponse solves the follower's problem. A non-positive initialGuess
// selects the default.
func (s *Service) BestResponse(ctx context.Context, p, c, d, initialGuess float64) (float64, error) {
	_, span := s.tracer.Start(ctx, "solve.best_response", trace.WithAttributes(
		attribute.Float64("game.p", p),
		attribute.Float64("game.c", c),
		attribute.Float64("game.d", d),
	))
	defer span.End()

	if initialGuess <= 0 {
		initialGuess = stackelberg.DefaultInitialGuess
	}
	start := time.Now()
	q, err := s.solver.BestResponseFrom(p, c, d, initialGuess)
	metrics.ObserveSolve(metrics.KindBestResponse, classify(err, true), start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Float64("solve.q", q))
	return q, nil
}

// Figure solves the equilibrium and samples the response curve over the
// configured domain.
func (s *Service) Figure(ctx context.Context, params game.Params) (Figure, error) {
	ctx, span := s.tracer.Start(ctx, "solve.figure", trace.WithAttributes(paramAttrs(params)...))
	defer span.End()

	eq, err := s.Equilibrium(ctx, params)
	if err != nil {
		return Figure{}, err
	}

	start := time.Now()
	cv, err := s.solver.Curve(params.C, params.D, s.curve.From, s.curve.To, s.curve.Samples)
	if err != nil {
		metrics.ObserveSolve(metrics.KindCurve, classify(err, false), start)
		return Figure{}, err
	}
	pts, err := cv.Collect()
	metrics.ObserveSolve(metrics.KindCurve, classify(err, true), start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Figure{}, err
	}
	return Figure{Params: params, Equilibrium: eq, Status: eq.Status.String(), Curve: pts}, nil
}

// IsInputError reports whether err was caused by the caller's parameters
// rather than by the solver.
func IsInputError(err error) bool {
	return errors.Is(err, game.ErrDomain)
}

func classify(err error, converged bool) string {
	switch {
	case err == nil && converged:
		return metrics.OutcomeConverged
	case err == nil:
		return metrics.OutcomeBestEffort
	case IsInputError(err):
		return metrics.OutcomeDomainError
	default:
		return metrics.OutcomeSolverFailed
	}
}

func paramAttrs(p game.Params) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64("game.a", p.A),
		attribute.Float64("game.b", p.B),
		attribute.Float64("game.c", p.C),
		attribute.Float64("game.d", p.D),
	}
}
