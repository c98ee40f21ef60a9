package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/protocell/components"
)

// Fate is the outcome of a cell's own per-tick update.
type Fate uint8

const (
	FateAlive Fate = iota
	FateExhausted
	FateStarved
)

// Cause maps a terminal fate to its death cause.
func (f Fate) Cause() components.DeathCause {
	if f == FateStarved {
		return components.CauseStarved
	}
	return components.CauseExhausted
}

// UpdateCell advances one cell by dt seconds at simulation time now.
//
// Order: vitals, motion and locomotion cost, boundary, death checks, size
// from energy (re-clamped to the boundary), Bacteria maturation, energy cap. A cell whose energy reaches
// zero is tinted gray before it is reported. The caller removes dead cells;
// UpdateCell never touches the population.
func UpdateCell(c Cell, r *Rules, arena Arena, now, dt float64, rng *rand.Rand) Fate {
	g := c.Org.Genome
	v := c.Vitals

	// Metabolism
	v.Age += dt
	v.Energy += g.EnergyEfficiency * dt
	v.Energy -= g.Size * r.MaintenanceCost * dt
	v.Nitrogen += r.NitrogenSynthesis * dt
	v.Energy -= g.RadiationSensitivity * dt

	// Motion: tailed cells swim along their heading, the rest drift.
	step := g.Speed * dt
	var dx, dy float64
	if g.HasTail {
		dx = math.Cos(c.Heading.Angle) * step
		dy = math.Sin(c.Heading.Angle) * step
	} else {
		dx = (rng.Float64()*2 - 1) * step
		dy = (rng.Float64()*2 - 1) * step
	}
	c.Pos.X += dx
	c.Pos.Y += dy
	v.Energy -= math.Hypot(dx, dy) * r.LocomotionCost

	ResolveBoundary(c, arena)

	if v.Energy <= 0 {
		g.Color = r.DeadColor
		return FateExhausted
	}
	if now-v.LastFed > r.StarvationThreshold {
		return FateStarved
	}

	g.Size = clamp(v.Energy*r.SizePerEnergy, r.MinSize, r.MaxSize)
	// A grown body may now poke out again.
	ResolveBoundary(c, arena)

	if c.Org.Variant == components.VariantBacteria && rng.Float64() < r.BacteriaMaturation {
		v.Energy = g.DivisionThreshold
	}

	v.Energy = min(v.Energy, r.MaxEnergy)
	return FateAlive
}
