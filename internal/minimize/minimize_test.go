package minimize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadratic(center float64) Problem {
	return Problem{
		Func:  func(x float64) float64 { return (x - center) * (x - center) },
		Deriv: func(x float64) float64 { return 2 * (x - center) },
		Lower: 0.01,
	}
}

func TestBoundedInteriorMinimum(t *testing.T) {
	for _, m := range []Method{LBFGS, BFGS, NelderMead} {
		t.Run(string(m), func(t *testing.T) {
			res, err := Bounded(quadratic(1.5), 0.1, Settings{Method: m})
			require.NoError(t, err)
			assert.InDelta(t, 1.5, res.X, 1e-4)
			assert.True(t, res.Converged, "status %v", res.Status)
			assert.Greater(t, res.Evaluations, 0)
		})
	}
}

func TestBoundedMinimumOnBound(t *testing.T) {
	for _, m := range []Method{LBFGS, BFGS, NelderMead} {
		t.Run(string(m), func(t *testing.T) {
			res, err := Bounded(quadratic(-3), 0.1, Settings{Method: m})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.X, 0.01)
			assert.InDelta(t, 0.01, res.X, 1e-3)
		})
	}
}

func TestBoundedAccurateNextToBound(t *testing.T) {
	for _, m := range []Method{LBFGS, BFGS, NelderMead} {
		t.Run(string(m), func(t *testing.T) {
			res, err := Bounded(quadratic(0.01002), 0.1, Settings{Method: m})
			require.NoError(t, err)
			assert.InDelta(t, 0.01002, res.X, 1e-9)

			res, err = Bounded(quadratic(0.00999), 0.1, Settings{Method: m})
			require.NoError(t, err)
			assert.Equal(t, 0.01, res.X)
			assert.InDelta(t, 1e-10, res.F, 1e-15)
		})
	}
}

func TestBoundedFiniteDifferenceGradient(t *testing.T) {
	prob := Problem{
		Func:  func(x float64) float64 { return x*x - 2*math.Log1p(x) },
		Lower: 0.01,
	}
	res, err := Bounded(prob, 0.1, Settings{Method: LBFGS})
	require.NoError(t, err)
	// 2x - 2/(1+x) = 0
	assert.InDelta(t, (math.Sqrt(5)-1)/2, res.X, 1e-4)
}

func TestBoundedStartBelowBound(t *testing.T) {
	res, err := Bounded(quadratic(2), -5, Settings{Method: NelderMead})
	require.NoError(t, err)
	assert.InDelta(t, 2, res.X, 1e-4)
}

func TestBoundedStrictReportsIterationLimit(t *testing.T) {
	prob := Problem{
		Func:  func(x float64) float64 { return math.Pow(x-50, 4) },
		Lower: 0.01,
	}
	res, err := Bounded(prob, 0.1, Settings{Method: NelderMead, MaxIterations: 2, Strict: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged), "got %v", err)
	assert.False(t, res.Converged)
	assert.GreaterOrEqual(t, res.X, 0.01)

	res, err = Bounded(prob, 0.1, Settings{Method: NelderMead, MaxIterations: 2})
	require.NoError(t, err)
	assert.False(t, res.Converged)
}

func TestBoundedNilObjective(t *testing.T) {
	_, err := Bounded(Problem{}, 0.1, Settings{})
	assert.Error(t, err)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" L-BFGS ")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMethod))
	assert.Equal(t, Method(""), m)

	m, err = ParseMethod("NelderMead")
	require.NoError(t, err)
	assert.Equal(t, NelderMead, m)
	assert.False(t, m.NeedsGradient())

	m, err = ParseMethod("lbfgs")
	require.NoError(t, err)
	assert.True(t, m.NeedsGradient())
}

func TestUnknownMethodRejected(t *testing.T) {
	_, err := Bounded(quadratic(1), 0.1, Settings{Method: "newton"})
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}
