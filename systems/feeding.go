package systems

import (
	"math/rand"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/genome"
)

// CanConsume reports whether pred may eat prey: pred must carry the
// consumption trait and be more than ConsumptionSizeRatio times larger.
func CanConsume(pred, prey Cell) bool {
	pg := pred.Org.Genome
	if !pg.CanConsume || prey.Size() <= 0 {
		return false
	}
	return pred.Size()/prey.Size() > pg.ConsumptionSizeRatio
}

// Consume transfers all of prey's energy and nitrogen to pred.
// Energy is capped, the predator grows by a fixed step up to the predation
// size cap and its last meal is stamped. The caller removes the prey.
func Consume(pred, prey Cell, r *Rules, now float64) {
	pred.Vitals.Energy = min(r.MaxEnergy, pred.Vitals.Energy+prey.Vitals.Energy)
	pred.Vitals.Nitrogen += prey.Vitals.Nitrogen
	pred.Org.Genome.Size = min(pred.Org.Genome.Size+r.PredationSizeGain, r.PredationMaxSize)
	pred.Vitals.LastFed = now
}

// Feed awards one food particle to a cell.
func Feed(c Cell, energy float64, r *Rules, now float64) {
	c.Vitals.Energy = min(r.MaxEnergy, c.Vitals.Energy+energy)
	c.Vitals.LastFed = now
}

// InFeedingRange reports whether a food point lies strictly inside the cell's size radius.
func InFeedingRange(c Cell, x, y float64) bool {
	return distance(c.Pos.X, c.Pos.Y, x, y) < c.Size()
}

// Merge fuses two cells into a new one at their midpoint.
// The genome is the blend of both (size is the sum), energy is the sum capped
// at MaxEnergy, nitrogen is the mean and the variant is taken from a.
// The caller removes both parents.
func Merge(a, b Cell, r *Rules, now float64, rng *rand.Rand) Spawn {
	return Spawn{
		Variant: a.Org.Variant,
		Genome:  genome.Blend(a.Org.Genome, b.Org.Genome),
		Pos: components.Position{
			X: (a.Pos.X + b.Pos.X) / 2,
			Y: (a.Pos.Y + b.Pos.Y) / 2,
		},
		Heading: components.Heading{Angle: RandomHeading(rng)},
		Vitals: components.Vitals{
			Energy:   min(r.MaxEnergy, a.Vitals.Energy+b.Vitals.Energy),
			Nitrogen: (a.Vitals.Nitrogen + b.Vitals.Nitrogen) / 2,
			LastFed:  now,
		},
	}
}
