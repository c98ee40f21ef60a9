package systems

import (
	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/genome"
)

// Cell is a view over the four components of one live cell.
// The pointers come straight from the ECS world and go stale after any
// structural change (entity added or removed); re-fetch them afterwards.
type Cell struct {
	Pos     *components.Position
	Heading *components.Heading
	Vitals  *components.Vitals
	Org     *components.Organism
}

// Genome returns the cell's genome.
func (c Cell) Genome() *genome.Genome {
	return c.Org.Genome
}

// Size returns the current body diameter.
func (c Cell) Size() float64 {
	return c.Org.Genome.Size
}

// Rules caches the numeric constants used by the per-cell rules.
// Build it once per config with RulesFrom.
type Rules struct {
	InitialEnergy       float64
	MaxEnergy           float64
	SizePerEnergy       float64
	MinSize             float64
	MaxSize             float64
	MaintenanceCost     float64
	NitrogenSynthesis   float64
	LocomotionCost      float64
	StarvationThreshold float64
	DeadColor           genome.Color

	MaturityAge      float64
	DivisionNitrogen float64
	SpawnJitter      float64
	MutationRate     float64

	PredationSizeGain float64
	PredationMaxSize  float64

	MortalityEnergy   float64
	MortalityNitrogen float64
	MaxAge            float64

	BacteriaSizeFactor       float64
	BacteriaSpeedFactor      float64
	BacteriaEfficiencyFactor float64
	BacteriaMaturation       float64
}

// RulesFrom extracts the rule constants from a config.
func RulesFrom(cfg *config.Config) *Rules {
	dc := cfg.Cell.DeadColor
	return &Rules{
		InitialEnergy:       cfg.Cell.InitialEnergy,
		MaxEnergy:           cfg.Cell.MaxEnergy,
		SizePerEnergy:       cfg.Cell.SizePerEnergy,
		MinSize:             cfg.Cell.MinSize,
		MaxSize:             cfg.Cell.MaxSize,
		MaintenanceCost:     cfg.Cell.MaintenanceCost,
		NitrogenSynthesis:   cfg.Cell.NitrogenSynthesis,
		LocomotionCost:      cfg.Cell.LocomotionCost,
		StarvationThreshold: cfg.Cell.StarvationThreshold,
		DeadColor:           genome.Color{R: dc[0], G: dc[1], B: dc[2]},

		MaturityAge:      cfg.Reproduction.MaturityAge,
		DivisionNitrogen: cfg.Reproduction.MinNitrogen,
		SpawnJitter:      cfg.Reproduction.SpawnJitter,
		MutationRate:     cfg.Mutation.Rate,

		PredationSizeGain: cfg.Predation.SizeGain,
		PredationMaxSize:  cfg.Predation.MaxSize,

		MortalityEnergy:   cfg.Mortality.MinEnergy,
		MortalityNitrogen: cfg.Mortality.MinNitrogen,
		MaxAge:            cfg.Mortality.MaxAge,

		BacteriaSizeFactor:       cfg.Bacteria.SizeFactor,
		BacteriaSpeedFactor:      cfg.Bacteria.SpeedFactor,
		BacteriaEfficiencyFactor: cfg.Bacteria.EfficiencyFactor,
		BacteriaMaturation:       cfg.Bacteria.MaturationChance,
	}
}

// ApplyVariantTraits applies the creation-time trait modifiers of a variant.
// Only Bacteria has any; Phagocyte and Photocyte are tags.
func ApplyVariantTraits(v components.Variant, g *genome.Genome, r *Rules) {
	if v != components.VariantBacteria {
		return
	}
	g.Size *= r.BacteriaSizeFactor
	g.Speed *= r.BacteriaSpeedFactor
	g.EnergyEfficiency *= r.BacteriaEfficiencyFactor
}

// MortalityCause reports the environment-level death check.
// Energy is tested first, then nitrogen, then age.
func MortalityCause(c Cell, r *Rules) (components.DeathCause, bool) {
	switch {
	case c.Vitals.Energy <= r.MortalityEnergy:
		return components.CauseDepleted, true
	case c.Vitals.Nitrogen <= r.MortalityNitrogen:
		return components.CauseNitrogenLoss, true
	case c.Vitals.Age >= r.MaxAge:
		return components.CauseSenescence, true
	}
	return 0, false
}
