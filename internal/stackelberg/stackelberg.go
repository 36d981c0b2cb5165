// Package stackelberg solves the leader-follower power allocation game.
//
// The follower picks q to minimise c*q^2 - d*log(1+q/p) given the leader's
// p. The leader picks p to minimise a*p^2 - b*log(1+p/q) knowing that q
// will be the follower's best response. Both searches are local bounded
// minimisations over [game.MinAction, +inf); the leader's search calls the
// follower's as an opaque oracle once per evaluation.
package stackelberg

import (
	"fmt"

	"gonum.org/v1/gonum/optimize"

	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
	"github.com/MikeSquared-Agency/Stackelberg/internal/minimize"
)

// Equilibrium is the outcome of the leader's search.
type Equilibrium struct {
	P            float64 `json:"p"`
	Q            float64 `json:"q"`
	LeaderCost   float64 `json:"leader_cost"`
	FollowerCost float64 `json:"follower_cost"`
	// Converged is false when either the leader's search or the final
	// best-response solve stopped without meeting a convergence test.
	Converged        bool            `json:"converged"`
	Status           optimize.Status `json:"-"`
	OuterEvaluations int             `json:"outer_evaluations"`
	InnerSolves      int             `json:"inner_solves"`
}

// Solver carries solve options. The zero value is not usable; use New.
// A Solver holds no mutable state and is safe for concurrent use.
type Solver struct {
	opts options
}

// New returns a Solver with the given options applied over the defaults.
func New(opts ...Option) *Solver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Solver{opts: o}
}

// BestResponse returns the follower's cost-minimising action against p.
func BestResponse(p, c, d float64, opts ...Option) (float64, error) {
	s := New(opts...)
	res, err := s.bestResponse(p, c, d, s.opts.initialGuess)
	return res.X, err
}

// FindEquilibrium returns the leader's action p* and the follower's best
// response q* to it.
func FindEquilibrium(a, b, c, d float64, opts ...Option) (p, q float64, err error) {
	eq, err := New(opts...).Equilibrium(game.Params{A: a, B: b, C: c, D: d})
	return eq.P, eq.Q, err
}

// BestResponse is the Solver form of the package-level BestResponse. The
// follower's search always starts from DefaultInitialGuess.
func (s *Solver) BestResponse(p, c, d float64) (float64, error) {
	return s.BestResponseFrom(p, c, d, DefaultInitialGuess)
}

// BestResponseFrom seeds the follower's search at initialGuess.
func (s *Solver) BestResponseFrom(p, c, d, initialGuess float64) (float64, error) {
	res, err := s.bestResponse(p, c, d, initialGuess)
	return res.X, err
}

func (s *Solver) bestResponse(p, c, d, initialGuess float64) (minimize.Result, error) {
	for _, v := range []struct {
		name string
		v    float64
	}{{"p", p}, {"c", c}, {"d", d}} {
		if err := game.CheckPositive(v.name, v.v); err != nil {
			return minimize.Result{}, fmt.Errorf("best response: %w", err)
		}
	}
	res, err := minimize.Bounded(minimize.Problem{
		Func:  func(q float64) float64 { return game.FollowerCost(q, p, c, d) },
		Deriv: func(q float64) float64 { return game.FollowerCostDeriv(q, p, c, d) },
		Lower: game.MinAction,
	}, initialGuess, s.opts.settings(s.opts.inner))
	if err != nil {
		return res, fmt.Errorf("best response at p=%v: %w", p, err)
	}
	return res, nil
}

// Equilibrium runs the nested search for the given parameters.
func (s *Solver) Equilibrium(params game.Params) (Equilibrium, error) {
	if err := params.Validate(); err != nil {
		return Equilibrium{}, fmt.Errorf("equilibrium: %w", err)
	}

	var (
		innerSolves int
		innerErr    error
	)
	leader := func(p float64) float64 {
		innerSolves++
		res, err := s.bestResponse(p, params.C, params.D, DefaultInitialGuess)
		if err != nil && innerErr == nil {
			innerErr = err
		}
		return game.LeaderCost(p, res.X, params.A, params.B)
	}

	outer, err := minimize.Bounded(minimize.Problem{
		Func:  leader,
		Lower: game.MinAction,
	}, s.opts.initialGuess, s.opts.settings(s.opts.outer))
	if innerErr != nil {
		return Equilibrium{}, fmt.Errorf("equilibrium: %w", innerErr)
	}

	eq := Equilibrium{
		P:                outer.X,
		Status:           outer.Status,
		Converged:        outer.Converged,
		OuterEvaluations: outer.Evaluations,
	}
	if err != nil {
		eq.InnerSolves = innerSolves
		return eq, fmt.Errorf("equilibrium: leader search: %w", err)
	}

	// Refresh q at the returned p rather than reusing the last evaluation,
	// which need not have been at p*.
	inner, err := s.bestResponse(eq.P, params.C, params.D, DefaultInitialGuess)
	innerSolves++
	eq.InnerSolves = innerSolves
	eq.Q = inner.X
	if err != nil {
		return eq, fmt.Errorf("equilibrium: %w", err)
	}
	eq.Converged = eq.Converged && inner.Converged
	eq.LeaderCost = game.LeaderCost(eq.P, eq.Q, params.A, params.B)
	eq.FollowerCost = game.FollowerCost(eq.Q, eq.P, params.C, params.D)
	return eq, nil
}
