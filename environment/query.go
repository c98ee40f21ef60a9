package environment

import (
	"slices"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/genome"
	"github.com/pthm-cable/protocell/systems"
)

// CellView is the public, render-oriented state of one cell.
type CellView struct {
	ID      uint32
	X, Y    float64
	Size    float64
	Color   genome.Color
	HasTail bool
	Heading float64
	Variant components.Variant
	Energy  float64
	DNA     genome.DNA
}

// View is a read-only copy of the state a viewer draws after a tick.
type View struct {
	Time  float64
	Cells []CellView
	Food  []Point
}

// CellState is the complete state of one cell, enough to restore it.
type CellState struct {
	ID       uint32
	Variant  components.Variant
	X, Y     float64
	Heading  float64
	Energy   float64
	Age      float64
	Nitrogen float64
	LastFed  float64
	Genome   genome.Genome
	Partners []uint32
}

// Time returns the simulation clock in seconds.
func (e *Environment) Time() float64 { return e.time }

// Ticks returns the number of ticks run.
func (e *Environment) Ticks() int64 { return e.ticks }

// Population returns the number of live cells.
func (e *Environment) Population() int { return len(e.index) }

// FoodCount returns the number of food particles.
func (e *Environment) FoodCount() int { return len(e.food) }

// Food returns a copy of the food field.
func (e *Environment) Food() []Point { return slices.Clone(e.food) }

// Arena returns the arena geometry.
func (e *Environment) Arena() systems.Arena { return e.arena }

// Config returns the configuration the environment was built with.
func (e *Environment) Config() *config.Config { return e.cfg }

// Rules returns the rule constants derived from the config.
func (e *Environment) Rules() *systems.Rules { return e.rules }

// Snapshot returns a copy of the viewer-facing state in ID order.
func (e *Environment) Snapshot() View {
	snap := e.snapshot()
	v := View{
		Time:  e.time,
		Cells: make([]CellView, 0, len(snap)),
		Food:  e.Food(),
	}
	for _, s := range snap {
		c := e.cell(s.entity)
		g := c.Genome()
		v.Cells = append(v.Cells, CellView{
			ID:      c.Org.ID,
			X:       c.Pos.X,
			Y:       c.Pos.Y,
			Size:    g.Size,
			Color:   g.Color,
			HasTail: g.HasTail,
			Heading: c.Heading.Angle,
			Variant: c.Org.Variant,
			Energy:  c.Vitals.Energy,
			DNA:     g.DNA(),
		})
	}
	return v
}

// Cells returns the full state of every live cell in ID order.
func (e *Environment) Cells() []CellState {
	snap := e.snapshot()
	out := make([]CellState, 0, len(snap))
	for _, s := range snap {
		out = append(out, e.state(e.cell(s.entity)))
	}
	return out
}

// Cell returns the full state of one cell.
func (e *Environment) Cell(id uint32) (CellState, bool) {
	c, ok := e.lookup(id)
	if !ok {
		return CellState{}, false
	}
	return e.state(c), true
}

// Partners returns the IDs bonded to id in ascending order.
func (e *Environment) Partners(id uint32) []uint32 {
	return e.bonds.Partners(id)
}

func (e *Environment) state(c systems.Cell) CellState {
	return CellState{
		ID:       c.Org.ID,
		Variant:  c.Org.Variant,
		X:        c.Pos.X,
		Y:        c.Pos.Y,
		Heading:  c.Heading.Angle,
		Energy:   c.Vitals.Energy,
		Age:      c.Vitals.Age,
		Nitrogen: c.Vitals.Nitrogen,
		LastFed:  c.Vitals.LastFed,
		Genome:   *c.Genome(),
		Partners: e.bonds.Partners(c.Org.ID),
	}
}
