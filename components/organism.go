// Package components defines the ECS components stored for every cell.
package components

import "github.com/pthm-cable/protocell/genome"

// Vitals tracks a cell's metabolic state.
type Vitals struct {
	Energy   float64 // capped at cell.max_energy after every update
	Age      float64 // simulated seconds alive
	Nitrogen float64
	LastFed  float64 // simulation time of the last successful meal
}

// Organism bundles identity, variant and the owned genome.
// The genome is never shared between two live cells.
type Organism struct {
	ID      uint32
	Variant Variant
	Genome  *genome.Genome
}
