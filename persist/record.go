// Package persist saves and loads environments and genomes as JSON records.
//
// Loading is strict: every required field must be present, traits must be
// valid and the version must match. A record that fails any check never
// produces an environment.
package persist

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/genome"
)

// Version is incremented when the record format changes.
const Version = 1

var (
	// ErrVersion is returned for records written by another format version.
	ErrVersion = errors.New("unsupported record version")
	// ErrMalformed is returned for records with missing or ill-shaped fields.
	ErrMalformed = errors.New("malformed record")
)

// Record is the saved form of an environment.
// Pointer fields distinguish a missing value from a zero one.
type Record struct {
	Version *int         `json:"version"`
	Radius  *float64     `json:"radius"`
	Width   *float64     `json:"width,omitempty"`
	Height  *float64     `json:"height,omitempty"`
	Time    *float64     `json:"time"`
	Food    [][]float64  `json:"food"`
	Cells   []CellRecord `json:"cells"`
}

// CellRecord holds one cell. Position, energy, age and genome are required;
// nitrogen defaults to the genome's reserve, last_fed to the record time,
// heading to 0 and variant to generic. ID and partners are only needed to
// restore adhesion bonds.
type CellRecord struct {
	ID       uint32              `json:"id,omitempty"`
	Position []float64           `json:"position"`
	Energy   *float64            `json:"energy"`
	Age      *float64            `json:"age"`
	Nitrogen *float64            `json:"nitrogen"`
	Heading  *float64            `json:"heading"`
	Variant  *components.Variant `json:"variant"`
	LastFed  *float64            `json:"last_fed"`
	Genome   *GenomeRecord       `json:"genome"`
	Partners []uint32            `json:"partners,omitempty"`
}

// GenomeRecord is the saved trait vector. Only never_consume is optional.
type GenomeRecord struct {
	Size                 *float64  `json:"size"`
	Speed                *float64  `json:"speed"`
	EnergyEfficiency     *float64  `json:"energy_efficiency"`
	DivisionThreshold    *float64  `json:"division_threshold"`
	Color                []float64 `json:"color"`
	HasTail              *bool     `json:"has_tail"`
	CanConsume           *bool     `json:"can_consume"`
	Adhesin              *bool     `json:"adhesin"`
	ConsumptionSizeRatio *float64  `json:"consumption_size_ratio"`
	NitrogenReserve      *float64  `json:"nitrogen_reserve"`
	RadiationSensitivity *float64  `json:"radiation_sensitivity"`
	NeverConsume         *bool     `json:"never_consume,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// Capture records the current state of an environment.
func Capture(env *environment.Environment) *Record {
	r := env.Arena().Radius
	rec := &Record{
		Version: ptr(Version),
		Radius:  ptr(r),
		Width:   ptr(2 * r),
		Height:  ptr(2 * r),
		Time:    ptr(env.Time()),
		Food:    make([][]float64, 0, env.FoodCount()),
	}
	for _, p := range env.Food() {
		rec.Food = append(rec.Food, []float64{p.X, p.Y})
	}

	cells := env.Cells()
	rec.Cells = make([]CellRecord, 0, len(cells))
	for _, c := range cells {
		rec.Cells = append(rec.Cells, CellRecord{
			ID:       c.ID,
			Position: []float64{c.X, c.Y},
			Energy:   ptr(c.Energy),
			Age:      ptr(c.Age),
			Nitrogen: ptr(c.Nitrogen),
			Heading:  ptr(c.Heading),
			Variant:  ptr(c.Variant),
			LastFed:  ptr(c.LastFed),
			Genome:   EncodeGenome(&c.Genome),
			Partners: c.Partners,
		})
	}
	return rec
}

// EncodeGenome converts a genome to its record form.
func EncodeGenome(g *genome.Genome) *GenomeRecord {
	return &GenomeRecord{
		Size:                 ptr(g.Size),
		Speed:                ptr(g.Speed),
		EnergyEfficiency:     ptr(g.EnergyEfficiency),
		DivisionThreshold:    ptr(g.DivisionThreshold),
		Color:                []float64{g.Color.R, g.Color.G, g.Color.B},
		HasTail:              ptr(g.HasTail),
		CanConsume:           ptr(g.CanConsume),
		Adhesin:              ptr(g.Adhesin),
		ConsumptionSizeRatio: ptr(g.ConsumptionSizeRatio),
		NitrogenReserve:      ptr(g.NitrogenReserve),
		RadiationSensitivity: ptr(g.RadiationSensitivity),
		NeverConsume:         ptr(g.NeverConsume),
	}
}

// field is one required field and whether it was present.
type field struct {
	name    string
	present bool
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// requireAll reports the first missing field, in record order.
func requireAll(path string, fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return fmt.Errorf("%w: %s: missing", ErrMalformed, join(path, f.name))
		}
	}
	return nil
}

// Decode validates the record form and returns the genome.
// path prefixes field names in error messages.
func (gr *GenomeRecord) Decode(path string) (*genome.Genome, error) {
	if err := requireAll(path,
		field{"size", gr.Size != nil},
		field{"speed", gr.Speed != nil},
		field{"energy_efficiency", gr.EnergyEfficiency != nil},
		field{"division_threshold", gr.DivisionThreshold != nil},
		field{"color", gr.Color != nil},
		field{"has_tail", gr.HasTail != nil},
		field{"can_consume", gr.CanConsume != nil},
		field{"adhesin", gr.Adhesin != nil},
		field{"consumption_size_ratio", gr.ConsumptionSizeRatio != nil},
		field{"nitrogen_reserve", gr.NitrogenReserve != nil},
		field{"radiation_sensitivity", gr.RadiationSensitivity != nil},
	); err != nil {
		return nil, err
	}
	if len(gr.Color) != 3 {
		return nil, fmt.Errorf("%w: %s: want [r, g, b], got %d values", ErrMalformed, join(path, "color"), len(gr.Color))
	}

	g := genome.FromTraits(genome.Traits{
		Size:                 *gr.Size,
		Speed:                *gr.Speed,
		EnergyEfficiency:     *gr.EnergyEfficiency,
		DivisionThreshold:    *gr.DivisionThreshold,
		Color:                genome.Color{R: gr.Color[0], G: gr.Color[1], B: gr.Color[2]},
		HasTail:              *gr.HasTail,
		CanConsume:           *gr.CanConsume,
		Adhesin:              *gr.Adhesin,
		ConsumptionSizeRatio: *gr.ConsumptionSizeRatio,
		NitrogenReserve:      *gr.NitrogenReserve,
		RadiationSensitivity: *gr.RadiationSensitivity,
	})
	if gr.NeverConsume != nil {
		g.NeverConsume = *gr.NeverConsume
	}
	if err := genome.Validate(g.Traits); err != nil {
		if path == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Validate checks the whole record and returns the decoded cell states in
// record order. It does not build anything.
func (rec *Record) Validate() ([]environment.CellState, error) {
	if err := requireAll("",
		field{"version", rec.Version != nil},
		field{"radius", rec.Radius != nil},
		field{"time", rec.Time != nil},
		field{"food", rec.Food != nil},
		field{"cells", rec.Cells != nil},
	); err != nil {
		return nil, err
	}
	if *rec.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, *rec.Version, Version)
	}
	if !(*rec.Radius > 0) {
		return nil, fmt.Errorf("%w: radius: must be positive, got %v", ErrMalformed, *rec.Radius)
	}
	for i, p := range rec.Food {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: food[%d]: want [x, y], got %d values", ErrMalformed, i, len(p))
		}
	}

	states := make([]environment.CellState, 0, len(rec.Cells))
	adhesive := make(map[uint32]bool, len(rec.Cells))
	for i := range rec.Cells {
		s, err := rec.Cells[i].decode(fmt.Sprintf("cells[%d]", i), *rec.Time)
		if err != nil {
			return nil, err
		}
		if id := rec.Cells[i].ID; id != 0 {
			if _, dup := adhesive[id]; dup {
				return nil, fmt.Errorf("%w: cells[%d].id: duplicate id %d", ErrMalformed, i, id)
			}
			adhesive[id] = s.Genome.Adhesin
		}
		states = append(states, s)
	}

	for i, c := range rec.Cells {
		if len(c.Partners) == 0 {
			continue
		}
		if c.ID == 0 {
			return nil, fmt.Errorf("%w: cells[%d].id: missing, required with partners", ErrMalformed, i)
		}
		for _, p := range c.Partners {
			ok, known := adhesive[p]
			switch {
			case !known:
				return nil, fmt.Errorf("%w: cells[%d].partners: unknown cell %d", ErrMalformed, i, p)
			case !ok || !adhesive[c.ID]:
				return nil, fmt.Errorf("%w: cells[%d].partners: bond to %d: %w", ErrMalformed, i, p, environment.ErrNotAdhesive)
			}
		}
	}
	return states, nil
}

func (cr *CellRecord) decode(path string, now float64) (environment.CellState, error) {
	if err := requireAll(path,
		field{"position", cr.Position != nil},
		field{"energy", cr.Energy != nil},
		field{"age", cr.Age != nil},
		field{"genome", cr.Genome != nil},
	); err != nil {
		return environment.CellState{}, err
	}
	if len(cr.Position) != 2 {
		return environment.CellState{}, fmt.Errorf("%w: %s: want [x, y], got %d values",
			ErrMalformed, join(path, "position"), len(cr.Position))
	}
	g, err := cr.Genome.Decode(join(path, "genome"))
	if err != nil {
		return environment.CellState{}, err
	}

	s := environment.CellState{
		X:        cr.Position[0],
		Y:        cr.Position[1],
		Energy:   *cr.Energy,
		Age:      *cr.Age,
		Nitrogen: g.NitrogenReserve,
		LastFed:  now,
		Genome:   *g,
	}
	if cr.Nitrogen != nil {
		s.Nitrogen = *cr.Nitrogen
	}
	if cr.Heading != nil {
		s.Heading = *cr.Heading
	}
	if cr.Variant != nil {
		s.Variant = *cr.Variant
	}
	if cr.LastFed != nil {
		s.LastFed = *cr.LastFed
	}
	return s, nil
}
