package stackelberg

import (
	"fmt"
	"iter"

	"gonum.org/v1/gonum/floats"

	"github.com/MikeSquared-Agency/Stackelberg/internal/game"
)

// Default sampling domain of the follower's response curve.
const (
	DefaultCurveFrom    = game.MinAction
	DefaultCurveTo      = 3.0
	DefaultCurveSamples = 100
)

// Point is one (leader action, follower response) sample.
type Point struct {
	P float64 `json:"p"`
	Q float64 `json:"q"`
}

// Curve samples the follower's best response over evenly spaced leader
// actions in [From, To]. It is only used for display; the equilibrium
// search does not consult it. A Curve must not be iterated from several
// goroutines at once.
type Curve struct {
	C, D     float64
	From, To float64
	Samples  int

	solver *Solver
	err    error
}

// Curve returns the response curve for follower parameters c and d.
func (s *Solver) Curve(c, d, from, to float64, samples int) (*Curve, error) {
	if err := game.CheckPositive("c", c); err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	if err := game.CheckPositive("d", d); err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	if err := game.CheckPositive("from", from); err != nil {
		return nil, fmt.Errorf("curve: %w", err)
	}
	if to < from {
		return nil, fmt.Errorf("curve: domain [%v, %v] is empty", from, to)
	}
	if samples < 2 {
		return nil, fmt.Errorf("curve: need at least 2 samples, got %d", samples)
	}
	return &Curve{C: c, D: d, From: from, To: to, Samples: samples, solver: s}, nil
}

// All yields (p, q) pairs lazily. Each call starts a fresh pass over the
// domain. Iteration stops early at the first failed solve; Err reports that
// error until the next pass.
func (cv *Curve) All() iter.Seq2[float64, float64] {
	return func(yield func(float64, float64) bool) {
		cv.err = nil
		for _, p := range cv.domain() {
			q, err := cv.solver.BestResponse(p, cv.C, cv.D)
			if err != nil {
				cv.err = fmt.Errorf("curve at p=%v: %w", p, err)
				return
			}
			if !yield(p, q) {
				return
			}
		}
	}
}

// Err returns the error that ended the last pass, if any.
func (cv *Curve) Err() error {
	return cv.err
}

// Collect evaluates the whole curve.
func (cv *Curve) Collect() ([]Point, error) {
	pts := make([]Point, 0, cv.Samples)
	for p, q := range cv.All() {
		pts = append(pts, Point{P: p, Q: q})
	}
	return pts, cv.Err()
}

func (cv *Curve) domain() []float64 {
	return floats.Span(make([]float64, cv.Samples), cv.From, cv.To)
}
