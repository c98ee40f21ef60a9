// Package environment owns the cell population, the food field and the
// simulation clock, and advances them one fixed timestep at a time.
//
// Cells live as entities in an ark ECS world. All access must happen from a
// single goroutine; callers that mutate state between ticks from elsewhere
// must serialize with the ticking goroutine (see package sim).
package environment

import (
	"cmp"
	"errors"
	"log/slog"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/systems"
)

var (
	// ErrUnknownCell is returned when an operation names a cell that is not alive.
	ErrUnknownCell = errors.New("unknown cell")
	// ErrNotAdhesive is returned by Adhere when either cell lacks the adhesin trait.
	ErrNotAdhesive = errors.New("cell lacks adhesin")
)

// Point is a food particle position.
type Point struct {
	X, Y float64
}

// EventSink receives lifecycle events as they happen inside a tick.
type EventSink interface {
	RecordBirth(v components.Variant)
	RecordDeath(v components.Variant, cause components.DeathCause)
	RecordPredation()
	RecordMerge()
	RecordFoodSpawned()
	RecordFoodEaten()
}

// Tick phase names reported to a PhaseTimer.
const (
	PhaseUpdate       = "update"
	PhaseAdhesion     = "adhesion"
	PhaseLifecycle    = "lifecycle"
	PhaseInteractions = "interactions"
	PhaseFoodSpawn    = "food_spawn"
	PhaseFeeding      = "feeding"
)

// PhaseTimer receives tick and phase boundaries, for profiling.
type PhaseTimer interface {
	StartTick()
	StartPhase(phase string)
	EndTick()
}

type nopSink struct{}

func (nopSink) RecordBirth(components.Variant)                        {}
func (nopSink) RecordDeath(components.Variant, components.DeathCause) {}
func (nopSink) RecordPredation()                                      {}
func (nopSink) RecordMerge()                                          {}
func (nopSink) RecordFoodSpawned()                                    {}
func (nopSink) RecordFoodEaten()                                      {}

type nopTimer struct{}

func (nopTimer) StartTick()        {}
func (nopTimer) StartPhase(string) {}
func (nopTimer) EndTick()          {}

// Options configures optional collaborators of an Environment.
type Options struct {
	// Seed seeds the random source when Rand is nil.
	Seed int64
	// Rand overrides the random source.
	Rand *rand.Rand
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Events receives lifecycle events. Nil discards them.
	Events EventSink
	// Perf times the phases of every tick. Nil disables timing.
	Perf PhaseTimer
}

// Environment holds the complete simulation state.
type Environment struct {
	cfg    *config.Config
	rules  *systems.Rules
	arena  systems.Arena
	rng    *rand.Rand
	logger *slog.Logger
	events EventSink
	perf   PhaseTimer

	world      *ecs.World
	cellMapper *ecs.Map4[
		components.Position,
		components.Heading,
		components.Vitals,
		components.Organism,
	]
	cellFilter *ecs.Filter4[
		components.Position,
		components.Heading,
		components.Vitals,
		components.Organism,
	]
	index map[uint32]ecs.Entity // live cells by ID

	bonds *systems.AdhesionGraph
	food  []Point

	time   float64
	ticks  int64
	nextID uint32

	// Broad phase, rebuilt every pass
	cellGrid *systems.SpatialGrid
	foodGrid *systems.SpatialGrid

	// Scratch buffers reused across ticks
	order      []orderEntry
	candidates []int
}

type orderEntry struct {
	id     uint32
	entity ecs.Entity
}

// New creates an empty environment. The config is validated and kept by
// reference; do not modify it while the environment is in use.
func New(cfg *config.Config, opts Options) (*Environment, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var events EventSink = nopSink{}
	if opts.Events != nil {
		events = opts.Events
	}
	var perf PhaseTimer = nopTimer{}
	if opts.Perf != nil {
		perf = opts.Perf
	}

	world := ecs.NewWorld()
	arena := systems.NewArena(cfg.Arena.Radius)
	side := arena.Width()
	cs := cfg.Physics.GridCellSize

	e := &Environment{
		cfg:    cfg,
		rules:  systems.RulesFrom(cfg),
		arena:  arena,
		rng:    rng,
		logger: logger,
		events: events,
		perf:   perf,
		world:  world,
		cellMapper: ecs.NewMap4[
			components.Position,
			components.Heading,
			components.Vitals,
			components.Organism,
		](world),
		cellFilter: ecs.NewFilter4[
			components.Position,
			components.Heading,
			components.Vitals,
			components.Organism,
		](world),
		index:    make(map[uint32]ecs.Entity),
		bonds:    systems.NewAdhesionGraph(),
		nextID:   1,
		cellGrid: systems.NewSpatialGrid(arena.CenterX-arena.Radius, arena.CenterY-arena.Radius, side, side, cs),
		foodGrid: systems.NewSpatialGrid(arena.CenterX-arena.Radius, arena.CenterY-arena.Radius, side, side, cs),
	}
	return e, nil
}

// cell returns the component view of a live entity.
func (e *Environment) cell(ent ecs.Entity) systems.Cell {
	pos, heading, vitals, org := e.cellMapper.Get(ent)
	return systems.Cell{Pos: pos, Heading: heading, Vitals: vitals, Org: org}
}

// lookup returns the view of a live cell by ID.
func (e *Environment) lookup(id uint32) (systems.Cell, bool) {
	ent, ok := e.index[id]
	if !ok || !e.world.Alive(ent) {
		return systems.Cell{}, false
	}
	return e.cell(ent), true
}

// snapshot collects the live entities in ascending ID order.
// The returned slice is reused by the next call.
func (e *Environment) snapshot() []orderEntry {
	e.order = e.order[:0]
	query := e.cellFilter.Query()
	for query.Next() {
		_, _, _, org := query.Get()
		e.order = append(e.order, orderEntry{id: org.ID, entity: query.Entity()})
	}
	slices.SortFunc(e.order, func(a, b orderEntry) int {
		return cmp.Compare(a.id, b.id)
	})
	return e.order
}

// spawn inserts a new cell and returns its ID. The cell is projected inside
// the arena immediately. Component pointers held by the caller go stale.
func (e *Environment) spawn(s systems.Spawn) uint32 {
	id := e.nextID
	e.nextID++

	org := components.Organism{ID: id, Variant: s.Variant, Genome: s.Genome}
	ent := e.cellMapper.NewEntity(&s.Pos, &s.Heading, &s.Vitals, &org)
	e.index[id] = ent
	systems.ResolveBoundary(e.cell(ent), e.arena)
	return id
}

// depositsFood reports whether a death cause leaves a food particle behind.
// Only deaths from the cell's own condition do; eaten, merged and removed cells don't.
func depositsFood(cause components.DeathCause) bool {
	switch cause {
	case components.CauseExhausted, components.CauseStarved, components.CauseDepleted,
		components.CauseNitrogenLoss, components.CauseSenescence:
		return true
	}
	return false
}

// kill removes a cell from the population. Killing a cell that is already
// gone is a no-op and returns false.
func (e *Environment) kill(ent ecs.Entity, cause components.DeathCause) bool {
	if !e.world.Alive(ent) {
		return false
	}
	pos, _, _, org := e.cellMapper.Get(ent)
	id, variant := org.ID, org.Variant
	x, y := pos.X, pos.Y

	if depositsFood(cause) && e.arena.Contains(x, y) && len(e.food) < e.cfg.Food.MaxFood &&
		e.rng.Float64() < e.cfg.Food.DeathDepositChance {
		e.food = append(e.food, Point{X: x, Y: y})
	}

	e.bonds.Remove(id)
	delete(e.index, id)
	e.world.RemoveEntity(ent)
	e.events.RecordDeath(variant, cause)
	return true
}
