// Package normalize maps raw simulator quantities into [-1, 1].
//
// Every family is a pure element function. Inplace applies it to the caller's
// slice, Normalize applies it to a copy, so the two always agree bit for bit.
package normalize

import (
	"math"
	"slices"

	"github.com/montplusa/rcss2d-imitation/pkg/rcss"
)

// degenerateWidth is the span below which a heterogeneous delta range is
// treated as a single point.
const degenerateWidth = 1e-7

// Normalizer transforms one CSV column.
type Normalizer interface {
	// Inplace normalizes values in place.
	Inplace(values []float64)
	// Normalize returns a normalized copy of values.
	Normalize(values []float64) []float64
	// Denormalize maps normalized values back to physical units. Values that
	// were clipped on the way in are not recovered.
	Denormalize(values []float64) []float64
}

func clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func apply(values []float64, f func(float64) float64) {
	for i, v := range values {
		values[i] = f(v)
	}
}

func mapped(values []float64, f func(float64) float64) []float64 {
	out := slices.Clone(values)
	apply(out, f)
	return out
}

// Scale divides by a half range: clip(x/Divisor, -1, 1).
type Scale struct {
	Divisor float64
}

func (n Scale) forward(x float64) float64 { return clip(x/n.Divisor, -1, 1) }
func (n Scale) inverse(x float64) float64 { return x * n.Divisor }

func (n Scale) Inplace(values []float64)               { apply(values, n.forward) }
func (n Scale) Normalize(values []float64) []float64   { return mapped(values, n.forward) }
func (n Scale) Denormalize(values []float64) []float64 { return mapped(values, n.inverse) }

// Centered maps [0, Max] onto [-1, 1]: clip((2x-Max)/Max, -1, 1).
type Centered struct {
	Max float64
}

func (n Centered) forward(x float64) float64 { return clip((2*x-n.Max)/n.Max, -1, 1) }
func (n Centered) inverse(x float64) float64 { return (x + 1) * n.Max / 2 }

func (n Centered) Inplace(values []float64)               { apply(values, n.forward) }
func (n Centered) Normalize(values []float64) []float64   { return mapped(values, n.forward) }
func (n Centered) Denormalize(values []float64) []float64 { return mapped(values, n.inverse) }

// maxCommandPower bounds dash and kick power in the server.
const maxCommandPower = 100

// Power clips a command power to [-100, 100] and scales it by 1/100.
type Power struct{}

func (Power) forward(x float64) float64 {
	return clip(x, -maxCommandPower, maxCommandPower) / maxCommandPower
}
func (Power) inverse(x float64) float64 { return x * maxCommandPower }

func (n Power) Inplace(values []float64)               { apply(values, n.forward) }
func (n Power) Normalize(values []float64) []float64   { return mapped(values, n.forward) }
func (n Power) Denormalize(values []float64) []float64 { return mapped(values, n.inverse) }

// Hetero normalizes a heterogeneous player parameter drawn uniformly from
// Default + Delta. The midpoint of the delta is removed first so that the
// expected value maps to 0, then the half width is scaled to 1.
type Hetero struct {
	Default float64
	Delta   rcss.DeltaRange
}

// NewHetero builds the normalizer of h from a parameter set.
func NewHetero(h rcss.HeteroParam, sp rcss.ServerParams, pp rcss.PlayerParams) Hetero {
	return Hetero{Default: h.Default(sp), Delta: h.Delta(pp)}
}

func (n Hetero) degenerate() bool { return n.Delta.Width() < degenerateWidth }

func (n Hetero) forward(x float64) float64 {
	centered := x - n.Default - n.Delta.Mid()
	if n.degenerate() {
		return clip(centered, -1, 1)
	}
	return clip(2*centered/n.Delta.Width(), -1, 1)
}

func (n Hetero) inverse(x float64) float64 {
	if n.degenerate() {
		return x + n.Default + n.Delta.Mid()
	}
	return x*n.Delta.Width()/2 + n.Default + n.Delta.Mid()
}

func (n Hetero) Inplace(values []float64)               { apply(values, n.forward) }
func (n Hetero) Normalize(values []float64) []float64   { return mapped(values, n.forward) }
func (n Hetero) Denormalize(values []float64) []float64 { return mapped(values, n.inverse) }

// Family constructors. Each returns the concrete normalizer of one semantic
// column category for the given server parameters.

func X(sp rcss.ServerParams) Scale           { return Scale{Divisor: sp.PitchLength / 2} }
func Y(sp rcss.ServerParams) Scale           { return Scale{Divisor: sp.PitchWidth / 2} }
func PlayerSpeed(sp rcss.ServerParams) Scale { return Scale{Divisor: sp.PlayerSpeedMax} }
func BallSpeed(sp rcss.ServerParams) Scale   { return Scale{Divisor: sp.BallSpeedMax} }
func Angle() Scale                           { return Scale{Divisor: 180} }

func Stamina(sp rcss.ServerParams) Centered        { return Centered{Max: sp.StaminaMax} }
func StaminaReserve(sp rcss.ServerParams) Centered { return Centered{Max: sp.StaminaCapacity} }
