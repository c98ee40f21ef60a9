package systems

import (
	"math/rand"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/genome"
)

// Spawn describes a cell to be added to the population.
// Division and merging produce one; the environment owns the insertion.
type Spawn struct {
	Variant components.Variant
	Genome  *genome.Genome
	Pos     components.Position
	Heading components.Heading
	Vitals  components.Vitals
}

// CanDivide reports whether a cell is mature, energetic and nitrogen-rich enough to divide.
func CanDivide(c Cell, r *Rules) bool {
	return c.Vitals.Age >= r.MaturityAge &&
		c.Vitals.Energy > c.Org.Genome.DivisionThreshold &&
		c.Vitals.Nitrogen >= r.DivisionNitrogen
}

// Divide splits a cell. The parent keeps half its energy and nitrogen and the
// child receives the same half, so the totals are conserved exactly.
// The child carries a mutated copy of the genome, sits at one of the four
// diagonal offsets of ±SpawnJitter and inherits the parent's variant.
func Divide(c Cell, r *Rules, now float64, rng *rand.Rand) Spawn {
	g := c.Org.Genome.Copy()
	g.Mutate(r.MutationRate, rng)

	jx, jy := r.SpawnJitter, r.SpawnJitter
	if rng.Intn(2) == 0 {
		jx = -jx
	}
	if rng.Intn(2) == 0 {
		jy = -jy
	}

	c.Vitals.Energy /= 2
	c.Vitals.Nitrogen /= 2

	return Spawn{
		Variant: c.Org.Variant,
		Genome:  g,
		Pos:     components.Position{X: c.Pos.X + jx, Y: c.Pos.Y + jy},
		Heading: components.Heading{Angle: RandomHeading(rng)},
		Vitals: components.Vitals{
			Energy:   c.Vitals.Energy,
			Nitrogen: c.Vitals.Nitrogen,
			LastFed:  now,
		},
	}
}
