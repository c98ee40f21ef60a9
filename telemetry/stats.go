package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/environment"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Population int `csv:"population"`
	Generic    int `csv:"generic"`
	Bacteria   int `csv:"bacteria"`
	Phagocyte  int `csv:"phagocyte"`
	Photocyte  int `csv:"photocyte"`
	Consumers  int `csv:"consumers"`
	Food       int `csv:"food"`

	// Events during window
	Births      int `csv:"births"`
	Deaths      int `csv:"deaths"`
	Predations  int `csv:"predations"`
	Merges      int `csv:"merges"`
	FoodSpawned int `csv:"food_spawned"`
	FoodEaten   int `csv:"food_eaten"`

	// Deaths by cause
	DeathsExhausted    int `csv:"deaths_exhausted"`
	DeathsStarved      int `csv:"deaths_starved"`
	DeathsDepleted     int `csv:"deaths_depleted"`
	DeathsNitrogenLoss int `csv:"deaths_nitrogen_loss"`
	DeathsSenescence   int `csv:"deaths_senescence"`
	DeathsEaten        int `csv:"deaths_eaten"`
	DeathsMerged       int `csv:"deaths_merged"`
	DeathsRemoved      int `csv:"deaths_removed"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Body and age
	SizeMean float64 `csv:"size_mean"`
	SizeStd  float64 `csv:"size_std"`
	AgeMean  float64 `csv:"age_mean"`

	// Trait prevalence, as fractions of the population
	TailFrac    float64 `csv:"tail_frac"`
	ConsumeFrac float64 `csv:"consume_frac"`
	AdhesinFrac float64 `csv:"adhesin_frac"`
}

// addPopulation fills the population fields from the live cells.
func (s *WindowStats) addPopulation(cells []environment.CellState) {
	n := len(cells)
	s.Population = n
	if n == 0 {
		return
	}

	energies := make([]float64, n)
	sizes := make([]float64, n)
	ages := make([]float64, n)
	var tails, consumers, adhesins int
	for i, c := range cells {
		energies[i] = c.Energy
		sizes[i] = c.Genome.Size
		ages[i] = c.Age

		switch c.Variant {
		case components.VariantGeneric:
			s.Generic++
		case components.VariantBacteria:
			s.Bacteria++
		case components.VariantPhagocyte:
			s.Phagocyte++
		case components.VariantPhotocyte:
			s.Photocyte++
		}
		if c.Genome.HasTail {
			tails++
		}
		if c.Genome.CanConsume {
			consumers++
		}
		if c.Genome.Adhesin {
			adhesins++
		}
	}

	s.Consumers = consumers
	s.EnergyMean, s.EnergyP10, s.EnergyP50, s.EnergyP90 = ComputeEnergyStats(energies)
	s.SizeMean, s.SizeStd = ComputeMeanStd(sizes)
	s.AgeMean = stat.Mean(ages, nil)
	s.TailFrac = float64(tails) / float64(n)
	s.ConsumeFrac = float64(consumers) / float64(n)
	s.AdhesinFrac = float64(adhesins) / float64(n)
}

// Percentile returns the p-th quantile of a sorted slice using gonum's
// linear interpolation of the empirical distribution.
// p is clamped to [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(min(max(p, 0), 1), stat.LinInterp, sorted, nil)
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	// Sort for percentiles
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeMeanStd returns the mean and sample standard deviation.
// The deviation of fewer than two values is 0.
func ComputeMeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("population", s.Population),
		slog.Int("generic", s.Generic),
		slog.Int("bacteria", s.Bacteria),
		slog.Int("phagocyte", s.Phagocyte),
		slog.Int("photocyte", s.Photocyte),
		slog.Int("consumers", s.Consumers),
		slog.Int("food", s.Food),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("predations", s.Predations),
		slog.Int("merges", s.Merges),
		slog.Int("food_spawned", s.FoodSpawned),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("deaths_exhausted", s.DeathsExhausted),
		slog.Int("deaths_starved", s.DeathsStarved),
		slog.Int("deaths_depleted", s.DeathsDepleted),
		slog.Int("deaths_nitrogen_loss", s.DeathsNitrogenLoss),
		slog.Int("deaths_senescence", s.DeathsSenescence),
		slog.Int("deaths_eaten", s.DeathsEaten),
		slog.Int("deaths_merged", s.DeathsMerged),
		slog.Int("deaths_removed", s.DeathsRemoved),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("size_mean", s.SizeMean),
		slog.Float64("size_std", s.SizeStd),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("tail_frac", s.TailFrac),
		slog.Float64("consume_frac", s.ConsumeFrac),
		slog.Float64("adhesin_frac", s.AdhesinFrac),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"population", s.Population,
		"generic", s.Generic,
		"bacteria", s.Bacteria,
		"phagocyte", s.Phagocyte,
		"photocyte", s.Photocyte,
		"consumers", s.Consumers,
		"food", s.Food,
		"births", s.Births,
		"deaths", s.Deaths,
		"predations", s.Predations,
		"merges", s.Merges,
		"food_spawned", s.FoodSpawned,
		"food_eaten", s.FoodEaten,
		"deaths_exhausted", s.DeathsExhausted,
		"deaths_starved", s.DeathsStarved,
		"deaths_depleted", s.DeathsDepleted,
		"deaths_nitrogen_loss", s.DeathsNitrogenLoss,
		"deaths_senescence", s.DeathsSenescence,
		"deaths_eaten", s.DeathsEaten,
		"deaths_merged", s.DeathsMerged,
		"deaths_removed", s.DeathsRemoved,
		"energy_mean", s.EnergyMean,
		"energy_p10", s.EnergyP10,
		"energy_p50", s.EnergyP50,
		"energy_p90", s.EnergyP90,
		"size_mean", s.SizeMean,
		"size_std", s.SizeStd,
		"age_mean", s.AgeMean,
		"tail_frac", s.TailFrac,
		"consume_frac", s.ConsumeFrac,
		"adhesin_frac", s.AdhesinFrac,
	)
}
