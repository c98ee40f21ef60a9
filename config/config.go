// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Arena        ArenaConfig        `yaml:"arena"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Cell         CellConfig         `yaml:"cell"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Predation    PredationConfig    `yaml:"predation"`
	Mortality    MortalityConfig    `yaml:"mortality"`
	Bacteria     BacteriaConfig     `yaml:"bacteria"`
	Food         FoodConfig         `yaml:"food"`
	Interaction  InteractionConfig  `yaml:"interaction"`
	Population   PopulationConfig   `yaml:"population"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
}

// ArenaConfig describes the circular arena.
// The centre sits at (radius, radius) so the arena's bounding box starts at the origin.
type ArenaConfig struct {
	Radius float64 `yaml:"radius"`
}

// PhysicsConfig holds timestep and pacing parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	Speed        float64 `yaml:"speed"`          // Wall-clock pacing multiplier
	GridCellSize float64 `yaml:"grid_cell_size"` // Broad-phase bucket size
}

// CellConfig holds per-agent metabolism parameters.
type CellConfig struct {
	InitialEnergy       float64    `yaml:"initial_energy"`
	MaxEnergy           float64    `yaml:"max_energy"`
	SizePerEnergy       float64    `yaml:"size_per_energy"`
	MinSize             float64    `yaml:"min_size"`
	MaxSize             float64    `yaml:"max_size"`
	MaintenanceCost     float64    `yaml:"maintenance_cost"`
	NitrogenSynthesis   float64    `yaml:"nitrogen_synthesis"`
	LocomotionCost      float64    `yaml:"locomotion_cost"`
	StarvationThreshold float64    `yaml:"starvation_threshold"`
	DeadColor           [3]float64 `yaml:"dead_color,flow"`
}

// ReproductionConfig holds division parameters.
type ReproductionConfig struct {
	MaturityAge float64 `yaml:"maturity_age"`
	MinNitrogen float64 `yaml:"min_nitrogen"`
	SpawnJitter float64 `yaml:"spawn_jitter"` // Child offset on each axis
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	Rate float64 `yaml:"rate"` // Per-trait mutation probability at division
}

// PredationConfig holds consumption parameters.
type PredationConfig struct {
	SizeGain float64 `yaml:"size_gain"`
	MaxSize  float64 `yaml:"max_size"`
}

// MortalityConfig holds the environment-level death thresholds.
type MortalityConfig struct {
	MinEnergy   float64 `yaml:"min_energy"`
	MinNitrogen float64 `yaml:"min_nitrogen"`
	MaxAge      float64 `yaml:"max_age"`
}

// BacteriaConfig holds the Bacteria variant's creation modifiers and tick rule.
type BacteriaConfig struct {
	SizeFactor       float64 `yaml:"size_factor"`
	SpeedFactor      float64 `yaml:"speed_factor"`
	EfficiencyFactor float64 `yaml:"efficiency_factor"`
	MaturationChance float64 `yaml:"maturation_chance"` // Per-tick chance to jump to division threshold
}

// FoodConfig holds food field parameters.
type FoodConfig struct {
	GenerationRate     float64 `yaml:"generation_rate"` // Particles per simulated second
	MaxFood            int     `yaml:"max_food"`
	Energy             float64 `yaml:"energy"` // Energy per particle eaten
	DeathDepositChance float64 `yaml:"death_deposit_chance"`
	EraseRadius        float64 `yaml:"erase_radius"`
}

// InteractionConfig holds per-tick switches.
type InteractionConfig struct {
	GenerateFood     bool `yaml:"generate_food"`
	AllowMerge       bool `yaml:"allow_merge"`
	AdhereOnContact  bool `yaml:"adhere_on_contact"`
	SeparateOverlaps bool `yaml:"separate_overlaps"`
}

// PopulationConfig holds the seeding parameters for a fresh arena.
type PopulationConfig struct {
	InitialCells    int `yaml:"initial_cells"`
	InitialBacteria int `yaml:"initial_bacteria"`
	InitialFood     int `yaml:"initial_food"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow      float64 `yaml:"stats_window"` // Seconds of simulated time per window
	PerfWindow       int     `yaml:"perf_window"`  // Ticks averaged by the perf collector
	BookmarkHistory  int     `yaml:"bookmark_history"`
	HallOfFameSize   int     `yaml:"hall_of_fame_size"` // Entries kept per variant
	HallOfFameMinAge float64 `yaml:"hall_of_fame_min_age"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first parameter that would make the simulation meaningless.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Arena.Radius > 0, "arena.radius must be positive, got %v", c.Arena.Radius)
	check(c.Physics.DT > 0, "physics.dt must be positive, got %v", c.Physics.DT)
	check(c.Physics.Speed > 0, "physics.speed must be positive, got %v", c.Physics.Speed)
	check(c.Physics.GridCellSize > 0, "physics.grid_cell_size must be positive, got %v", c.Physics.GridCellSize)
	check(c.Cell.MaxEnergy > 0, "cell.max_energy must be positive, got %v", c.Cell.MaxEnergy)
	check(c.Cell.MinSize > 0 && c.Cell.MinSize <= c.Cell.MaxSize,
		"cell.min_size must be in (0, max_size], got %v (max %v)", c.Cell.MinSize, c.Cell.MaxSize)
	check(c.Cell.StarvationThreshold > 0, "cell.starvation_threshold must be positive, got %v", c.Cell.StarvationThreshold)
	check(c.Mutation.Rate >= 0 && c.Mutation.Rate <= 1, "mutation.rate must be in [0,1], got %v", c.Mutation.Rate)
	check(c.Bacteria.MaturationChance >= 0 && c.Bacteria.MaturationChance <= 1,
		"bacteria.maturation_chance must be in [0,1], got %v", c.Bacteria.MaturationChance)
	check(c.Food.GenerationRate >= 0, "food.generation_rate must not be negative, got %v", c.Food.GenerationRate)
	check(c.Food.MaxFood >= 0, "food.max_food must not be negative, got %v", c.Food.MaxFood)
	check(c.Food.DeathDepositChance >= 0 && c.Food.DeathDepositChance <= 1,
		"food.death_deposit_chance must be in [0,1], got %v", c.Food.DeathDepositChance)
	check(c.Telemetry.StatsWindow > 0, "telemetry.stats_window must be positive, got %v", c.Telemetry.StatsWindow)
	check(c.Telemetry.HallOfFameSize >= 0, "telemetry.hall_of_fame_size must not be negative, got %v", c.Telemetry.HallOfFameSize)

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Clone returns an independent copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
