// Package main provides CMA-ES optimization for protocell simulation parameters.
package main

import (
	"github.com/pthm-cable/protocell/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	field   func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Food supply
			{Name: "food_rate", Path: "food.generation_rate", Min: 1, Max: 20, Default: 5,
				field: func(c *config.Config) *float64 { return &c.Food.GenerationRate }},
			{Name: "food_energy", Path: "food.energy", Min: 1, Max: 15, Default: 5,
				field: func(c *config.Config) *float64 { return &c.Food.Energy }},
			{Name: "death_deposit", Path: "food.death_deposit_chance", Min: 0, Max: 1, Default: 1,
				field: func(c *config.Config) *float64 { return &c.Food.DeathDepositChance }},
			// Metabolism
			{Name: "maintenance_cost", Path: "cell.maintenance_cost", Min: 0.002, Max: 0.05, Default: 0.01,
				field: func(c *config.Config) *float64 { return &c.Cell.MaintenanceCost }},
			{Name: "locomotion_cost", Path: "cell.locomotion_cost", Min: 0.02, Max: 0.5, Default: 0.1,
				field: func(c *config.Config) *float64 { return &c.Cell.LocomotionCost }},
			{Name: "starvation_threshold", Path: "cell.starvation_threshold", Min: 100, Max: 2000, Default: 1000,
				field: func(c *config.Config) *float64 { return &c.Cell.StarvationThreshold }},
			// Reproduction
			{Name: "maturity_age", Path: "reproduction.maturity_age", Min: 5, Max: 60, Default: 20,
				field: func(c *config.Config) *float64 { return &c.Reproduction.MaturityAge }},
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0, Max: 0.5, Default: 0.1,
				field: func(c *config.Config) *float64 { return &c.Mutation.Rate }},
			// Predation
			{Name: "predation_gain", Path: "predation.size_gain", Min: 0.1, Max: 1, Default: 0.5,
				field: func(c *config.Config) *float64 { return &c.Predation.SizeGain }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(spec.Max, max(spec.Min, v[i]))
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
