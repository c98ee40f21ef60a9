package environment

import (
	"math"
	"slices"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/systems"
)

// Tick advances the simulation by dt seconds.
//
// Phases, in order: clock; per-cell update with its own death checks;
// adhesion energy sharing; mortality and division; pairwise overlap
// resolution (merge or predation); food generation; feeding.
func (e *Environment) Tick(dt float64, generateFood, allowMerge bool) {
	e.perf.StartTick()
	defer e.perf.EndTick()

	e.time += dt
	e.ticks++

	snap := slices.Clone(e.snapshot())

	e.perf.StartPhase(PhaseUpdate)
	e.updateCells(snap, dt)
	e.perf.StartPhase(PhaseAdhesion)
	e.shareAdhesionEnergy()
	e.perf.StartPhase(PhaseLifecycle)
	e.applyLifecycle(snap)
	e.perf.StartPhase(PhaseInteractions)
	e.resolveInteractions(allowMerge)
	if generateFood {
		e.perf.StartPhase(PhaseFoodSpawn)
		e.generateFood(dt)
	}
	e.perf.StartPhase(PhaseFeeding)
	e.feed()
}

// updateCells runs every cell's own update over an ID-ordered snapshot,
// removing cells that exhaust or starve.
func (e *Environment) updateCells(snap []orderEntry, dt float64) {
	for _, s := range snap {
		if !e.world.Alive(s.entity) {
			continue
		}
		c := e.cell(s.entity)
		if fate := systems.UpdateCell(c, e.rules, e.arena, e.time, dt, e.rng); fate != systems.FateAlive {
			e.kill(s.entity, fate.Cause())
		}
	}
}

// applyLifecycle runs the mortality check and then division for every
// surviving snapshot cell, after adhesion has levelled energy.
// Children are added to the world but not to the snapshot, so they first
// update next tick and take part in this tick's pairwise pass.
func (e *Environment) applyLifecycle(snap []orderEntry) {
	for _, s := range snap {
		if !e.world.Alive(s.entity) {
			continue
		}
		c := e.cell(s.entity)
		if cause, dead := systems.MortalityCause(c, e.rules); dead {
			e.kill(s.entity, cause)
			continue
		}
		if systems.CanDivide(c, e.rules) {
			child := systems.Divide(c, e.rules, e.time, e.rng)
			e.spawn(child)
			e.events.RecordBirth(child.Variant)
		}
	}
}

// shareAdhesionEnergy levels energy across each bonded cluster once per tick.
// A cluster shares only if at least one member carries adhesin.
func (e *Environment) shareAdhesionEnergy() {
	for _, cluster := range e.bonds.Clusters() {
		cells := make([]systems.Cell, 0, len(cluster))
		adhesive := false
		var total float64
		for _, id := range cluster {
			c, ok := e.lookup(id)
			if !ok {
				continue
			}
			cells = append(cells, c)
			total += c.Vitals.Energy
			adhesive = adhesive || c.Genome().Adhesin
		}
		if !adhesive || len(cells) < 2 {
			continue
		}
		mean := total / float64(len(cells))
		for _, c := range cells {
			c.Vitals.Energy = mean
		}
	}
}

// resolveInteractions walks every overlapping pair (i, j>i) of an ID-ordered
// snapshot. Per pair the first applicable branch wins: merge (if allowed and
// same variant), i eats j, j eats i, otherwise optional bonding and separation.
// Cells removed or fused earlier in the pass are skipped.
func (e *Environment) resolveInteractions(allowMerge bool) {
	snap := slices.Clone(e.snapshot())
	if len(snap) < 2 {
		return
	}

	e.cellGrid.Clear()
	gridPos := make([]Point, len(snap))
	var maxSize float64
	for i, s := range snap {
		c := e.cell(s.entity)
		e.cellGrid.Insert(i, c.Pos.X, c.Pos.Y)
		gridPos[i] = Point{X: c.Pos.X, Y: c.Pos.Y}
		maxSize = max(maxSize, c.Size())
	}

	// drift bounds how far any snapshot cell has moved from its grid slot,
	// so every overlapping pair stays within the query radius.
	var drift float64
	moved := func(k int, c systems.Cell) {
		drift = max(drift, math.Hypot(c.Pos.X-gridPos[k].X, c.Pos.Y-gridPos[k].Y))
		maxSize = max(maxSize, c.Size())
	}

	gone := make([]bool, len(snap))
	adhere := e.cfg.Interaction.AdhereOnContact
	separate := e.cfg.Interaction.SeparateOverlaps

	for i := range snap {
		if gone[i] || !e.world.Alive(snap[i].entity) {
			continue
		}
		// Partners are visited in ascending order. Whenever i moves or grows
		// the query is repeated, resuming after the last partner handled.
		last := i
		for requery := true; requery && !gone[i]; {
			requery = false
			ci := e.cell(snap[i].entity)
			radius := (ci.Size()+maxSize)/2 + drift
			e.candidates = e.cellGrid.QueryRadiusInto(e.candidates[:0], ci.Pos.X, ci.Pos.Y, radius)
			slices.Sort(e.candidates)

			for _, j := range e.candidates {
				if j <= last || gone[j] || !e.world.Alive(snap[j].entity) {
					continue
				}
				last = j
				// Re-fetch: spawns and kills invalidate component pointers.
				ci = e.cell(snap[i].entity)
				cj := e.cell(snap[j].entity)
				if !systems.Overlaps(ci, cj) {
					continue
				}

				switch {
				case allowMerge && ci.Org.Variant == cj.Org.Variant:
					fused := systems.Merge(ci, cj, e.rules, e.time, e.rng)
					gone[i], gone[j] = true, true
					e.kill(snap[i].entity, components.CauseMerged)
					e.kill(snap[j].entity, components.CauseMerged)
					e.spawn(fused)
					e.events.RecordMerge()

				case systems.CanConsume(ci, cj):
					systems.Consume(ci, cj, e.rules, e.time)
					gone[j] = true
					e.kill(snap[j].entity, components.CauseEaten)
					ci = e.cell(snap[i].entity)
					systems.ResolveBoundary(ci, e.arena)
					moved(i, ci)
					requery = true
					e.events.RecordPredation()

				case systems.CanConsume(cj, ci):
					systems.Consume(cj, ci, e.rules, e.time)
					gone[i] = true
					e.kill(snap[i].entity, components.CauseEaten)
					cj = e.cell(snap[j].entity)
					systems.ResolveBoundary(cj, e.arena)
					moved(j, cj)
					e.events.RecordPredation()

				default:
					if adhere && ci.Genome().Adhesin && cj.Genome().Adhesin {
						e.bonds.Bond(ci.Org.ID, cj.Org.ID)
					}
					if separate && systems.Separate(ci, cj) {
						systems.ResolveBoundary(ci, e.arena)
						systems.ResolveBoundary(cj, e.arena)
						moved(i, ci)
						moved(j, cj)
						requery = true
					}
				}
				if requery || gone[i] {
					break
				}
			}
		}
	}
}

// generateFood spends a budget of rate*dt particles. Each unit of budget
// spawns one particle with probability equal to the remaining budget, so
// fractional budgets spawn proportionally often.
func (e *Environment) generateFood(dt float64) {
	budget := e.cfg.Food.GenerationRate * dt
	for budget > 0 && len(e.food) < e.cfg.Food.MaxFood {
		if e.rng.Float64() < budget {
			x, y := e.arena.RandomPoint(e.rng)
			e.food = append(e.food, Point{X: x, Y: y})
			e.events.RecordFoodSpawned()
		}
		budget--
	}
}

// feed lets every cell, in ID order, eat all food strictly inside its size radius.
func (e *Environment) feed() {
	if len(e.food) == 0 {
		return
	}

	e.foodGrid.Clear()
	for k, p := range e.food {
		e.foodGrid.Insert(k, p.X, p.Y)
	}
	eaten := make([]bool, len(e.food))
	ate := false

	for _, s := range e.snapshot() {
		c := e.cell(s.entity)
		e.candidates = e.foodGrid.QueryRadiusInto(e.candidates[:0], c.Pos.X, c.Pos.Y, c.Size())
		for _, k := range e.candidates {
			if eaten[k] || !systems.InFeedingRange(c, e.food[k].X, e.food[k].Y) {
				continue
			}
			eaten[k] = true
			ate = true
			systems.Feed(c, e.cfg.Food.Energy, e.rules, e.time)
			e.events.RecordFoodEaten()
		}
	}

	if !ate {
		return
	}
	kept := e.food[:0]
	for k, p := range e.food {
		if !eaten[k] {
			kept = append(kept, p)
		}
	}
	e.food = kept
}
