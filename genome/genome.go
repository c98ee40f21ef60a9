// Package genome defines the heritable trait record of a cell and its DNA encoding.
//
// Traits are authoritative. DNA is a lossy, fixed-layout packing of the traits that
// exists for display and diagnostics only.
package genome

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidTraits is returned by Validate for out-of-range trait values.
var ErrInvalidTraits = errors.New("invalid traits")

// Color is an RGB triple with channels in [0,1].
type Color struct {
	R, G, B float64
}

// Mix returns the channel-wise mean of two colors.
func (c Color) Mix(o Color) Color {
	return Color{R: (c.R + o.R) / 2, G: (c.G + o.G) / 2, B: (c.B + o.B) / 2}
}

// Traits is the heritable trait vector.
type Traits struct {
	Size                 float64
	Speed                float64
	EnergyEfficiency     float64
	DivisionThreshold    float64
	Color                Color
	HasTail              bool
	CanConsume           bool
	ConsumptionSizeRatio float64
	NitrogenReserve      float64
	Adhesin              bool
	RadiationSensitivity float64
}

// Genome is a trait vector plus the non-heritable NeverConsume flag,
// which pins CanConsume against mutation.
type Genome struct {
	Traits
	NeverConsume bool
}

// Generation ranges for random genomes.
const (
	minSize, maxSize             = 5.0, 20.0
	minSpeed, maxSpeed           = 0.5, 2.0
	minEfficiency, maxEfficiency = 0.5, 1.5
	minDivision, maxDivision     = 20.0, 40.0
	minRatio, maxRatio           = 1.2, 2.0
	minNitrogen, maxNitrogen     = 0.2, 0.5
	minRadiation, maxRadiation   = 0.1, 0.5
)

// New creates a genome with every trait drawn from its generation range.
func New(rng *rand.Rand) *Genome {
	return &Genome{Traits: Traits{
		Size:              uniform(rng, minSize, maxSize),
		Speed:             uniform(rng, minSpeed, maxSpeed),
		EnergyEfficiency:  uniform(rng, minEfficiency, maxEfficiency),
		DivisionThreshold: uniform(rng, minDivision, maxDivision),
		Color: Color{
			R: rng.Float64(),
			G: rng.Float64(),
			B: rng.Float64(),
		},
		HasTail:              rng.Intn(2) == 1,
		CanConsume:           rng.Intn(2) == 1,
		ConsumptionSizeRatio: uniform(rng, minRatio, maxRatio),
		NitrogenReserve:      uniform(rng, minNitrogen, maxNitrogen),
		Adhesin:              rng.Intn(2) == 1,
		RadiationSensitivity: uniform(rng, minRadiation, maxRadiation),
	}}
}

// FromTraits creates a genome with explicit trait values.
func FromTraits(t Traits) *Genome {
	return &Genome{Traits: t}
}

// Copy returns an independent deep copy, NeverConsume included.
func (g *Genome) Copy() *Genome {
	cp := *g
	return &cp
}

// DNA returns the packed encoding of the current traits.
func (g *Genome) DNA() DNA {
	return Encode(g.Traits)
}

// Blend fuses two genomes: booleans are ORed, colors averaged per channel,
// scalars averaged, except Size which is the sum of both parents.
// The result does not inherit NeverConsume.
func Blend(a, b *Genome) *Genome {
	return &Genome{Traits: Traits{
		Size:                 a.Size + b.Size,
		Speed:                (a.Speed + b.Speed) / 2,
		EnergyEfficiency:     (a.EnergyEfficiency + b.EnergyEfficiency) / 2,
		DivisionThreshold:    (a.DivisionThreshold + b.DivisionThreshold) / 2,
		Color:                a.Color.Mix(b.Color),
		HasTail:              a.HasTail || b.HasTail,
		CanConsume:           a.CanConsume || b.CanConsume,
		ConsumptionSizeRatio: (a.ConsumptionSizeRatio + b.ConsumptionSizeRatio) / 2,
		NitrogenReserve:      (a.NitrogenReserve + b.NitrogenReserve) / 2,
		Adhesin:              a.Adhesin || b.Adhesin,
		RadiationSensitivity: (a.RadiationSensitivity + b.RadiationSensitivity) / 2,
	}}
}

// Validate checks that every trait is inside its natural domain:
// finite positive scalars, a consumption ratio of at least 1 and colors in [0,1].
func Validate(t Traits) error {
	positives := []struct {
		trait Trait
		v     float64
	}{
		{TraitSize, t.Size},
		{TraitSpeed, t.Speed},
		{TraitEnergyEfficiency, t.EnergyEfficiency},
		{TraitDivisionThreshold, t.DivisionThreshold},
		{TraitNitrogenReserve, t.NitrogenReserve},
		{TraitRadiationSensitivity, t.RadiationSensitivity},
	}
	for _, p := range positives {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidTraits, p.trait, p.v)
		}
	}

	r := t.ConsumptionSizeRatio
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 1 {
		return fmt.Errorf("%w: %s must be at least 1, got %v", ErrInvalidTraits, TraitConsumptionSizeRatio, r)
	}

	for i, c := range []float64{t.Color.R, t.Color.G, t.Color.B} {
		if math.IsNaN(c) || c < 0 || c > 1 {
			return fmt.Errorf("%w: color channel %d must be in [0,1], got %v", ErrInvalidTraits, i, c)
		}
	}
	return nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
