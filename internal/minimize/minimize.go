// Package minimize finds local minima of scalar functions on a half-bounded
// interval [lower, +inf). It is a thin layer over gonum's optimize package:
// the bound is removed with the substitution x = lower + u^2 so that any
// unconstrained gonum method can be used.
package minimize

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Method names a gonum minimisation algorithm.
type Method string

const (
	LBFGS      Method = "lbfgs"
	BFGS       Method = "bfgs"
	NelderMead Method = "neldermead"
)

// DefaultMaxIterations bounds the number of major iterations of one solve.
const DefaultMaxIterations = 200

// startOffset keeps the starting point off the bound; u = 0 is a stationary
// point of the substituted objective.
const startOffset = 1e-6

// The substitution scales the gradient by 2u, which vanishes at the bound,
// so gonum's gradient test passes early there. Results are finished in x
// with a bound check and a few guarded Newton steps on Deriv.
const (
	polishSteps    = 8
	polishGradient = 1e-10
)

var (
	// ErrNotConverged is returned in strict mode when the method stops before
	// meeting a convergence criterion.
	ErrNotConverged  = errors.New("minimize: did not converge")
	ErrUnknownMethod = errors.New("minimize: unknown method")
)

// ParseMethod accepts a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case LBFGS, BFGS, NelderMead:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// NeedsGradient reports whether the method uses derivatives.
func (m Method) NeedsGradient() bool {
	return m == LBFGS || m == BFGS
}

func (m Method) gonum() (optimize.Method, error) {
	switch m {
	case LBFGS:
		return &optimize.LBFGS{}, nil
	case BFGS:
		return &optimize.BFGS{}, nil
	case NelderMead:
		return &optimize.NelderMead{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
	}
}

// Problem is a scalar objective on [Lower, +inf).
type Problem struct {
	Func func(x float64) float64
	// Deriv is optional. Gradient methods fall back to central finite
	// differences when it is nil.
	Deriv func(x float64) float64
	Lower float64
}

// Settings controls a single solve. The zero value uses L-BFGS with the
// default iteration budget and accepts best-effort results.
type Settings struct {
	Method        Method
	MaxIterations int
	Strict        bool
}

// Result is the outcome of a solve. X and F describe the best point found
// even when Converged is false.
type Result struct {
	X           float64
	F           float64
	Status      optimize.Status
	Converged   bool
	Iterations  int
	Evaluations int
}

// Bounded minimises prob.Func over x >= prob.Lower starting from x0.
func Bounded(prob Problem, x0 float64, s Settings) (Result, error) {
	if prob.Func == nil {
		return Result{}, errors.New("minimize: nil objective")
	}
	if s.Method == "" {
		s.Method = LBFGS
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	method, err := s.Method.gonum()
	if err != nil {
		return Result{}, err
	}

	lower := prob.Lower
	toX := func(u float64) float64 { return lower + u*u }
	f := func(u []float64) float64 { return prob.Func(toX(u[0])) }

	p := optimize.Problem{Func: f}
	if s.Method.NeedsGradient() {
		if prob.Deriv != nil {
			p.Grad = func(grad, u []float64) {
				grad[0] = 2 * u[0] * prob.Deriv(toX(u[0]))
			}
		} else {
			fdSettings := &fd.Settings{Formula: fd.Central}
			p.Grad = func(grad, u []float64) {
				fd.Gradient(grad, f, u, fdSettings)
			}
		}
	}

	start := x0 - lower
	if math.IsNaN(start) || start < startOffset {
		start = startOffset
	}
	u0 := []float64{math.Sqrt(start)}

	res, err := optimize.Minimize(p, u0, &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   s.MaxIterations,
		FuncEvaluations:   s.MaxIterations * 25,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 20,
		},
	}, method)
	if res == nil {
		if err == nil {
			err = errors.New("no result")
		}
		return Result{}, fmt.Errorf("minimize: %w", err)
	}

	out := Result{
		X:           toX(res.X[0]),
		F:           res.F,
		Status:      res.Status,
		Converged:   err == nil && converged(res.Status),
		Iterations:  res.MajorIterations,
		Evaluations: res.FuncEvaluations,
	}
	if math.IsNaN(out.F) {
		return out, fmt.Errorf("minimize: objective is NaN at x=%v", out.X)
	}
	out.X, out.F = polish(prob, out.X, out.F)
	if s.Strict && !out.Converged {
		if err != nil {
			return out, fmt.Errorf("%w: %s: %v", ErrNotConverged, res.Status, err)
		}
		return out, fmt.Errorf("%w: %s", ErrNotConverged, res.Status)
	}
	return out, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// polish returns a point no worse than x. If the bound is at least as good
// as x it is taken; with a derivative, Newton steps projected onto the
// bound then drive f' to zero, or stop at the bound when f' > 0 there.
func polish(prob Problem, x, fx float64) (float64, float64) {
	lower := prob.Lower
	if x != lower {
		if fl := prob.Func(lower); fl <= fx {
			x, fx = lower, fl
		}
	}
	if prob.Deriv == nil {
		return x, fx
	}
	settings := &fd.Settings{Formula: fd.Central}
	for i := 0; i < polishSteps; i++ {
		g := prob.Deriv(x)
		if math.Abs(g) <= polishGradient || (x == lower && g > 0) {
			break
		}
		h := fd.Derivative(prob.Deriv, x, settings)
		if !(h > 0) {
			break
		}
		next := math.Max(lower, x-g/h)
		fn := prob.Func(next)
		if next == x || fn > fx {
			break
		}
		x, fx = next, fn
	}
	return x, fx
}
