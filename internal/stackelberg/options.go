package stackelberg

import "github.com/MikeSquared-Agency/Stackelberg/internal/minimize"

// DefaultInitialGuess seeds both the inner and the outer search.
const DefaultInitialGuess = 0.1

type options struct {
	initialGuess  float64
	inner         minimize.Method
	outer         minimize.Method
	maxIterations int
	strict        bool
}

func defaultOptions() options {
	return options{
		initialGuess:  DefaultInitialGuess,
		inner:         minimize.LBFGS,
		outer:         minimize.NelderMead,
		maxIterations: minimize.DefaultMaxIterations,
	}
}

// Option configures a Solver or a single call.
type Option func(*options)

// WithInitialGuess sets the starting point of the search. For BestResponse
// it seeds the follower's search; for a Solver it seeds the outer search.
func WithInitialGuess(x float64) Option {
	return func(o *options) { o.initialGuess = x }
}

// WithInnerMethod selects the method used for best-response solves.
func WithInnerMethod(m minimize.Method) Option {
	return func(o *options) { o.inner = m }
}

// WithOuterMethod selects the method used for the leader's search.
func WithOuterMethod(m minimize.Method) Option {
	return func(o *options) { o.outer = m }
}

// WithMaxIterations caps the major iterations of every individual solve.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithStrictConvergence turns non-convergence into an error wrapping
// minimize.ErrNotConverged.
func WithStrictConvergence() Option {
	return func(o *options) { o.strict = true }
}

func (o options) settings(m minimize.Method) minimize.Settings {
	return minimize.Settings{Method: m, MaxIterations: o.maxIterations, Strict: o.strict}
}
