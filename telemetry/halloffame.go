package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"sort"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/genome"
	"github.com/pthm-cable/protocell/persist"
)

// HallEntry is a long-lived cell's genome and how well it did.
type HallEntry struct {
	CellID  uint32
	Fitness float64 // seconds survived
	Genome  genome.Genome
}

// HallOfFame keeps the genomes of the longest-lived cells per variant, for
// reseeding an arena after its population dies out.
type HallOfFame struct {
	halls   [components.NumVariants][]HallEntry
	maxSize int
	minAge  float64
	rng     *rand.Rand
}

// NewHallOfFame creates a hall keeping up to maxSize entries per variant.
// Cells younger than minAge seconds never qualify.
func NewHallOfFame(maxSize int, minAge float64, rng *rand.Rand) *HallOfFame {
	return &HallOfFame{maxSize: maxSize, minAge: minAge, rng: rng}
}

// ConsiderAll offers every live cell to the hall and returns how many entered or improved.
func (hof *HallOfFame) ConsiderAll(cells []environment.CellState) int {
	n := 0
	for _, c := range cells {
		if hof.Consider(c) {
			n++
		}
	}
	return n
}

// Consider offers one cell. A cell already in the hall has its entry
// refreshed with its current age. Returns true if the hall changed.
func (hof *HallOfFame) Consider(c environment.CellState) bool {
	if hof.maxSize <= 0 || c.Age < hof.minAge || int(c.Variant) >= len(hof.halls) {
		return false
	}

	hall := hof.halls[c.Variant]
	if i := slices.IndexFunc(hall, func(e HallEntry) bool { return e.CellID == c.ID }); i >= 0 {
		if hall[i].Fitness >= c.Age {
			return false
		}
		hall = slices.Delete(hall, i, i+1)
	}

	hall = hof.insertEntry(hall, HallEntry{CellID: c.ID, Fitness: c.Age, Genome: c.Genome})
	hof.halls[c.Variant] = hall
	return slices.ContainsFunc(hall, func(e HallEntry) bool { return e.CellID == c.ID })
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) []HallEntry {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall
	}

	hall = slices.Insert(hall, idx, entry)
	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}
	return hall
}

// Sample selects a genome from a variant's hall using tournament selection.
// The result is an independent copy; nil if the hall is empty.
func (hof *HallOfFame) Sample(v components.Variant) *genome.Genome {
	if int(v) >= len(hof.halls) || len(hof.halls[v]) == 0 {
		return nil
	}
	hall := hof.halls[v]

	// Tournament selection with k=3
	const tournamentSize = 3
	var best *HallEntry
	for i := 0; i < tournamentSize && i < len(hall); i++ {
		candidate := &hall[hof.rng.Intn(len(hall))]
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Genome.Copy()
}

// Size returns the number of entries for a variant.
func (hof *HallOfFame) Size(v components.Variant) int {
	if int(v) >= len(hof.halls) {
		return 0
	}
	return len(hof.halls[v])
}

// TopFitness returns the best fitness for a variant, 0 if its hall is empty.
func (hof *HallOfFame) TopFitness(v components.Variant) float64 {
	if hof.Size(v) == 0 {
		return 0
	}
	return hof.halls[v][0].Fitness
}

// Reseed adds up to n cells to env with genomes sampled across all halls,
// at random arena points. Returns the number added.
func (hof *HallOfFame) Reseed(env *environment.Environment, n int) int {
	var variants []components.Variant
	for v := range hof.halls {
		if len(hof.halls[v]) > 0 {
			variants = append(variants, components.Variant(v))
		}
	}
	if len(variants) == 0 {
		return 0
	}

	arena := env.Arena()
	for i := 0; i < n; i++ {
		v := variants[i%len(variants)]
		x, y := arena.RandomPoint(hof.rng)
		// Restore keeps the stored traits as they are; variant modifiers
		// were applied when the original cell was created.
		g := hof.Sample(v)
		env.Restore(environment.CellState{
			Variant:  v,
			X:        x,
			Y:        y,
			Energy:   env.Rules().InitialEnergy,
			Nitrogen: g.NitrogenReserve,
			LastFed:  env.Time(),
			Genome:   *g,
		})
	}
	return n
}

// hallEntryJSON is the JSON-serializable representation of a hall entry.
type hallEntryJSON struct {
	CellID  uint32                `json:"cell_id"`
	Fitness float64               `json:"fitness"`
	Genome  *persist.GenomeRecord `json:"genome"`
}

// MarshalJSON serializes the hall of fame keyed by variant name.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := make(map[string][]hallEntryJSON, len(hof.halls))
	for v, hall := range hof.halls {
		entries := make([]hallEntryJSON, len(hall))
		for i, e := range hall {
			entries[i] = hallEntryJSON{CellID: e.CellID, Fitness: e.Fitness, Genome: persist.EncodeGenome(&e.Genome)}
		}
		export[components.Variant(v).String()] = entries
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file. Entries beyond
// maxSize per variant are dropped, lowest fitness first.
func LoadHallOfFameFromFile(path string, maxSize int, minAge float64, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw map[string][]hallEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(maxSize, minAge, rng)
	for name, entries := range raw {
		v, err := components.ParseVariant(name)
		if err != nil {
			return nil, fmt.Errorf("hall of fame: %w", err)
		}
		for i, ej := range entries {
			if ej.Genome == nil {
				return nil, fmt.Errorf("hall of fame: %s[%d].genome: missing", name, i)
			}
			g, err := ej.Genome.Decode(fmt.Sprintf("%s[%d].genome", name, i))
			if err != nil {
				return nil, fmt.Errorf("hall of fame: %w", err)
			}
			hof.halls[v] = hof.insertEntry(hof.halls[v], HallEntry{CellID: ej.CellID, Fitness: ej.Fitness, Genome: *g})
		}
	}
	return hof, nil
}
