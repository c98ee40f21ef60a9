package environment

import (
	"fmt"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/genome"
	"github.com/pthm-cable/protocell/systems"
)

// Mutations below are synchronous and must not run concurrently with Tick.

// AddCell inserts a new cell of the given variant at (x, y) and returns its ID.
// The genome is copied, so the caller keeps ownership of g. Variant creation
// modifiers are applied to the copy; the cell starts with the initial energy,
// the genome's nitrogen reserve and a random heading.
func (e *Environment) AddCell(v components.Variant, g *genome.Genome, x, y float64) uint32 {
	own := g.Copy()
	systems.ApplyVariantTraits(v, own, e.rules)
	return e.spawn(systems.Spawn{
		Variant: v,
		Genome:  own,
		Pos:     components.Position{X: x, Y: y},
		Heading: components.Heading{Angle: systems.RandomHeading(e.rng)},
		Vitals: components.Vitals{
			Energy:   e.rules.InitialEnergy,
			Nitrogen: own.NitrogenReserve,
			LastFed:  e.time,
		},
	})
}

// AddRandomCell inserts a cell with a random genome at a random point of the arena.
func (e *Environment) AddRandomCell(v components.Variant) uint32 {
	x, y := e.arena.RandomPoint(e.rng)
	return e.AddCell(v, genome.New(e.rng), x, y)
}

// Restore inserts a cell with exactly the given state: no variant modifiers
// and no boundary projection. The ID and partners in s are ignored; the
// returned ID is fresh.
func (e *Environment) Restore(s CellState) uint32 {
	id := e.nextID
	e.nextID++

	g := s.Genome
	pos := components.Position{X: s.X, Y: s.Y}
	heading := components.Heading{Angle: s.Heading}
	vitals := components.Vitals{Energy: s.Energy, Age: s.Age, Nitrogen: s.Nitrogen, LastFed: s.LastFed}
	org := components.Organism{ID: id, Variant: s.Variant, Genome: &g}
	e.index[id] = e.cellMapper.NewEntity(&pos, &heading, &vitals, &org)
	return id
}

// RemoveCell removes a live cell without depositing food.
// Removing an unknown cell is a no-op: it is logged and reported as false.
func (e *Environment) RemoveCell(id uint32) bool {
	ent, ok := e.index[id]
	if !ok || !e.kill(ent, components.CauseRemoved) {
		e.logger.Debug("remove_unknown_cell", "id", id)
		return false
	}
	return true
}

// SetGenome overwrites the editable traits and the NeverConsume flag of a live cell.
func (e *Environment) SetGenome(id uint32, t genome.Traits, neverConsume bool) error {
	c, ok := e.lookup(id)
	if !ok {
		return fmt.Errorf("set genome of cell %d: %w", id, ErrUnknownCell)
	}
	if err := genome.Validate(t); err != nil {
		return fmt.Errorf("set genome of cell %d: %w", id, err)
	}
	c.Org.Genome.Traits = t
	c.Org.Genome.NeverConsume = neverConsume
	return nil
}

// AddFood appends a food particle. Returns false when the food cap is reached.
func (e *Environment) AddFood(x, y float64) bool {
	if len(e.food) >= e.cfg.Food.MaxFood {
		return false
	}
	e.food = append(e.food, Point{X: x, Y: y})
	return true
}

// RemoveFoodNear removes the first food particle within radius of (x, y).
func (e *Environment) RemoveFoodNear(x, y, radius float64) bool {
	r2 := radius * radius
	for i, p := range e.food {
		dx, dy := p.X-x, p.Y-y
		if dx*dx+dy*dy <= r2 {
			e.food = append(e.food[:i], e.food[i+1:]...)
			return true
		}
	}
	return false
}

// ClearFood removes every food particle.
func (e *Environment) ClearFood() {
	e.food = e.food[:0]
}

// Adhere bonds two live cells. Both must carry adhesin.
func (e *Environment) Adhere(a, b uint32) error {
	ca, okA := e.lookup(a)
	cb, okB := e.lookup(b)
	switch {
	case !okA:
		return fmt.Errorf("adhere %d to %d: cell %d: %w", a, b, a, ErrUnknownCell)
	case !okB:
		return fmt.Errorf("adhere %d to %d: cell %d: %w", a, b, b, ErrUnknownCell)
	case !ca.Genome().Adhesin || !cb.Genome().Adhesin:
		e.logger.Debug("bond_rejected", "a", a, "b", b)
		return fmt.Errorf("adhere %d to %d: %w", a, b, ErrNotAdhesive)
	}
	e.bonds.Bond(a, b)
	return nil
}

// Separate removes the bond between a and b, if any.
func (e *Environment) Separate(a, b uint32) bool {
	return e.bonds.Unbond(a, b)
}

// SetTime sets the simulation clock, typically after a restore.
func (e *Environment) SetTime(t float64) {
	e.time = t
}

// Populate seeds generic cells, bacteria and food at random arena points.
func (e *Environment) Populate(cells, bacteria, food int) {
	for range cells {
		e.AddRandomCell(components.VariantGeneric)
	}
	for range bacteria {
		e.AddRandomCell(components.VariantBacteria)
	}
	for range food {
		x, y := e.arena.RandomPoint(e.rng)
		if !e.AddFood(x, y) {
			break
		}
	}
}
