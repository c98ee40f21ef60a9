package main

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/sim"
	"github.com/pthm-cable/protocell/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int64
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastQuality    float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// A population below minViablePop for extinctionGraceSec counts as extinct.
const (
	minViablePop       = 3
	extinctionGraceSec = 30.0
	warmupSec          = 5.0
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int64 // ticks before functional extinction (or maxTicks if survived)
	windowStats   []telemetry.WindowStats
	hallOfFame    *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness    float64
	quality    float64
	hallOfFame *telemetry.HallOfFame
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative survival ticks: longer survival = lower (better) fitness.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			quality := computeQuality(result.windowStats, fe.baseConfig.Cell.MaxEnergy)
			results[idx] = seedResult{
				fitness:    computeFitness(result.survivalTicks, quality),
				quality:    quality,
				hallOfFame: result.hallOfFame,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	var totalFitness, totalQuality float64
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		totalFitness += r.fitness
		totalQuality += r.quality
		if r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless run until functional extinction
// or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{
		hallOfFame: telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize, cfg.Telemetry.HallOfFameMinAge, rand.New(rand.NewSource(seed))),
	}

	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT)
	env, err := environment.New(cfg, environment.Options{
		Seed:   seed,
		Logger: slog.New(slog.DiscardHandler),
		Events: collector,
	})
	if err != nil {
		slog.Error("invalid candidate config", "error", err)
		return result
	}
	p := cfg.Population
	env.Populate(p.InitialCells, p.InitialBacteria, p.InitialFood)
	driver := sim.New(env, cfg)

	dt := cfg.Physics.DT
	graceTicks := int64(extinctionGraceSec / dt)
	warmupTicks := int64(warmupSec / dt)
	var belowTicks int64

	for driver.Ticks() < fe.maxTicks {
		driver.Step()
		tick := driver.Ticks()

		if collector.ShouldFlush(tick) {
			cells := env.Cells()
			result.windowStats = append(result.windowStats, collector.Flush(tick, env.Time(), cells, env.FoodCount()))
			result.hallOfFame.ConsiderAll(cells)
		}

		if tick < warmupTicks {
			continue
		}

		pop := env.Population()
		if pop == 0 {
			result.survivalTicks = tick
			return result
		}
		if pop < minViablePop {
			belowTicks++
		} else {
			belowTicks = 0
		}
		if belowTicks >= graceTicks {
			result.survivalTicks = tick
			return result
		}
	}

	result.survivalTicks = fe.maxTicks
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Survival dominates; quality adds up to a 20% bonus to separate
// configs with similar survival.
func computeFitness(survivalTicks int64, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightStability   = 0.35
	qualityWeightEnergy      = 0.25
	qualityWeightCoexistence = 0.20
	qualityWeightTurnover    = 0.20

	qualityWarmupWindows = 3 // skip first N windows (warmup)
)

// computeQuality scores ecosystem quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats, maxEnergy float64) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var pops []float64
	var energySum, coexistSum, turnoverSum float64
	for _, w := range windows[qualityWarmupWindows:] {
		if w.Population < minViablePop {
			continue
		}
		pops = append(pops, float64(w.Population))

		// Median energy near 40% of the cap is a population that is neither starving nor saturated
		energySum += math.Exp(-math.Pow((w.EnergyP50/maxEnergy-0.40)/0.20, 2))

		if w.Generic > 0 && w.Bacteria > 0 {
			coexistSum++
		}

		// Births relative to population: some division, not a boom
		rate := float64(w.Births) / float64(w.Population)
		turnoverSum += 1 - math.Exp(-rate/0.2)
	}

	if len(pops) == 0 {
		return 0
	}
	n := float64(len(pops))

	stabilityScore := 0.0
	if len(pops) >= 2 {
		c := cv(pops)
		stabilityScore = math.Exp(-c * c)
	}

	quality := qualityWeightStability*stabilityScore +
		qualityWeightEnergy*energySum/n +
		qualityWeightCoexistence*coexistSum/n +
		qualityWeightTurnover*turnoverSum/n

	return min(1, max(0, quality))
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
