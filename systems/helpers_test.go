package systems

import (
	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/genome"
)

func testRules() *Rules {
	return RulesFrom(config.Default())
}

// testTraits returns a deterministic mid-range trait vector.
func testTraits() genome.Traits {
	return genome.Traits{
		Size:                 10,
		Speed:                1,
		EnergyEfficiency:     1,
		DivisionThreshold:    30,
		Color:                genome.Color{R: 0.2, G: 0.4, B: 0.6},
		HasTail:              true,
		ConsumptionSizeRatio: 1.5,
		NitrogenReserve:      0.3,
		RadiationSensitivity: 0.1,
	}
}

func newTestCell(id uint32, x, y float64, t genome.Traits, energy float64) Cell {
	return Cell{
		Pos:     &components.Position{X: x, Y: y},
		Heading: &components.Heading{},
		Vitals:  &components.Vitals{Energy: energy, Nitrogen: t.NitrogenReserve},
		Org:     &components.Organism{ID: id, Genome: genome.FromTraits(t)},
	}
}
