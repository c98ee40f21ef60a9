package environment

import (
	"testing"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/genome"
)

type countingSink struct {
	births     int
	deaths     map[components.DeathCause]int
	predations int
	merges     int
	spawned    int
	eaten      int
}

func newCountingSink() *countingSink {
	return &countingSink{deaths: make(map[components.DeathCause]int)}
}

func (s *countingSink) RecordBirth(components.Variant) { s.births++ }
func (s *countingSink) RecordDeath(_ components.Variant, c components.DeathCause) {
	s.deaths[c]++
}
func (s *countingSink) RecordPredation()   { s.predations++ }
func (s *countingSink) RecordMerge()       { s.merges++ }
func (s *countingSink) RecordFoodSpawned() { s.spawned++ }
func (s *countingSink) RecordFoodEaten()   { s.eaten++ }

func newTestEnv(t *testing.T, seed int64, adjust func(*config.Config)) (*Environment, *countingSink) {
	t.Helper()
	cfg := config.Default()
	if adjust != nil {
		adjust(cfg)
	}
	sink := newCountingSink()
	env, err := New(cfg, Options{Seed: seed, Events: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return env, sink
}

func testTraits() genome.Traits {
	return genome.Traits{
		Size:                 5,
		Speed:                1,
		EnergyEfficiency:     1,
		DivisionThreshold:    30,
		Color:                genome.Color{R: 0.5, G: 0.5, B: 0.5},
		HasTail:              true,
		ConsumptionSizeRatio: 1.5,
		NitrogenReserve:      0.3,
		RadiationSensitivity: 0.1,
	}
}

// restore places a cell with explicit state. Heading 0 and a tail make its motion deterministic.
func restore(env *Environment, x, y, energy float64, t genome.Traits) uint32 {
	return env.Restore(CellState{
		X:        x,
		Y:        y,
		Energy:   energy,
		Nitrogen: t.NitrogenReserve,
		Genome:   genome.Genome{Traits: t},
	})
}
