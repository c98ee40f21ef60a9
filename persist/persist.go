package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/genome"
)

// Save writes the environment as an indented JSON record.
func Save(w io.Writer, env *environment.Environment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Capture(env)); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// SaveFile writes the environment to path.
func SaveFile(path string, env *environment.Environment) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	if err := Save(f, env); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a record and builds a new environment from it. The arena radius
// comes from the record and every other parameter from cfg (defaults if nil).
func Load(r io.Reader, cfg *config.Config, opts environment.Options) (*environment.Environment, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec.Build(cfg, opts)
}

// LoadFile loads a record from path.
func LoadFile(path string, cfg *config.Config, opts environment.Options) (*environment.Environment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open record: %w", err)
	}
	defer f.Close()
	return Load(f, cfg, opts)
}

// Build validates the record and only then constructs the environment.
// Restored cells get fresh IDs; bonds are re-linked through them.
func (rec *Record) Build(cfg *config.Config, opts environment.Options) (*environment.Environment, error) {
	states, err := rec.Validate()
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()
	cfg.Arena.Radius = *rec.Radius
	if len(rec.Food) > cfg.Food.MaxFood {
		return nil, fmt.Errorf("%w: food: %d particles exceed food.max_food %d",
			ErrMalformed, len(rec.Food), cfg.Food.MaxFood)
	}

	env, err := environment.New(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("build environment: %w", err)
	}
	env.SetTime(*rec.Time)
	for _, p := range rec.Food {
		env.AddFood(p[0], p[1])
	}

	ids := make(map[uint32]uint32, len(states))
	for i, s := range states {
		id := env.Restore(s)
		if old := rec.Cells[i].ID; old != 0 {
			ids[old] = id
		}
	}
	for _, c := range rec.Cells {
		for _, p := range c.Partners {
			if err := env.Adhere(ids[c.ID], ids[p]); err != nil {
				return nil, fmt.Errorf("restore bonds: %w", err)
			}
		}
	}
	return env, nil
}

// SaveGenome writes one genome as a JSON record.
func SaveGenome(w io.Writer, g *genome.Genome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(EncodeGenome(g)); err != nil {
		return fmt.Errorf("encode genome: %w", err)
	}
	return nil
}

// LoadGenome reads and validates one genome record.
func LoadGenome(r io.Reader) (*genome.Genome, error) {
	var gr GenomeRecord
	if err := json.NewDecoder(r).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode genome: %w", err)
	}
	return gr.Decode("")
}

// SaveGenomeFile writes a genome to path.
func SaveGenomeFile(path string, g *genome.Genome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create genome: %w", err)
	}
	if err := SaveGenome(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadGenomeFile reads a genome from path.
func LoadGenomeFile(path string) (*genome.Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genome: %w", err)
	}
	defer f.Close()
	return LoadGenome(f)
}
