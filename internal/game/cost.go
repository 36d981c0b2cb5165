package game

import (
	"errors"
	"fmt"
	"math"
)

// MinAction is the lower bound on both players' power levels. It keeps the
// logarithmic benefit term away from its singularity.
const MinAction = 0.01

// ErrDomain is returned when an input falls outside the region where the
// cost functions are defined.
var ErrDomain = errors.New("game: parameter outside cost function domain")

// Params holds the four cost parameters. A and C scale the quadratic
// self-cost of the leader and follower, B and D the logarithmic benefit.
type Params struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
	D float64 `json:"d" yaml:"d"`
}

// Validate checks that every parameter is strictly positive and finite.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"a", p.A}, {"b", p.B}, {"c", p.C}, {"d", p.D}} {
		if err := CheckPositive(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// CheckPositive reports an ErrDomain error unless v is finite and > 0.
func CheckPositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%s=%v: %w", name, v, ErrDomain)
	}
	return nil
}

// LeaderCost is a*p^2 - b*log(1+p/q).
func LeaderCost(p, q, a, b float64) float64 {
	return a*p*p - b*math.Log1p(p/q)
}

// FollowerCost is c*q^2 - d*log(1+q/p). It has the same form as LeaderCost
// with the roles of the two actions swapped.
func FollowerCost(q, p, c, d float64) float64 {
	return c*q*q - d*math.Log1p(q/p)
}

// FollowerCostDeriv is the partial derivative of FollowerCost in q.
func FollowerCostDeriv(q, p, c, d float64) float64 {
	return 2*c*q - d/(p+q)
}
