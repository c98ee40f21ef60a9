// Package telemetry tracks population health over fixed windows of simulated
// time: lifecycle event counts, population statistics, tick timing,
// bookmarks of notable moments and a hall of fame of long-lived genomes.
package telemetry

import (
	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/environment"
)

// Collector accumulates events within time windows and produces WindowStats.
// It implements environment.EventSink.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	births      int
	deaths      [components.NumDeathCauses]int
	predations  int
	merges      int
	foodSpawned int
	foodEaten   int
}

var _ environment.EventSink = (*Collector)(nil)

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordBirth records a division.
func (c *Collector) RecordBirth(components.Variant) {
	c.births++
}

// RecordDeath records a death by cause.
func (c *Collector) RecordDeath(_ components.Variant, cause components.DeathCause) {
	if int(cause) < len(c.deaths) {
		c.deaths[cause]++
	}
}

// RecordPredation records one cell eating another.
func (c *Collector) RecordPredation() {
	c.predations++
}

// RecordMerge records two cells fusing.
func (c *Collector) RecordMerge() {
	c.merges++
}

// RecordFoodSpawned records a generated food particle.
func (c *Collector) RecordFoodSpawned() {
	c.foodSpawned++
}

// RecordFoodEaten records a food particle eaten.
func (c *Collector) RecordFoodEaten() {
	c.foodEaten++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// cells is the population at window end and foodCount the size of the food field.
func (c *Collector) Flush(currentTick int64, simTime float64, cells []environment.CellState, foodCount int) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      simTime,
		Food:            foodCount,

		Births:      c.births,
		Predations:  c.predations,
		Merges:      c.merges,
		FoodSpawned: c.foodSpawned,
		FoodEaten:   c.foodEaten,

		DeathsExhausted:    c.deaths[components.CauseExhausted],
		DeathsStarved:      c.deaths[components.CauseStarved],
		DeathsDepleted:     c.deaths[components.CauseDepleted],
		DeathsNitrogenLoss: c.deaths[components.CauseNitrogenLoss],
		DeathsSenescence:   c.deaths[components.CauseSenescence],
		DeathsEaten:        c.deaths[components.CauseEaten],
		DeathsMerged:       c.deaths[components.CauseMerged],
		DeathsRemoved:      c.deaths[components.CauseRemoved],
	}
	for _, n := range c.deaths {
		stats.Deaths += n
	}
	stats.addPopulation(cells)

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = [components.NumDeathCauses]int{}
	c.predations = 0
	c.merges = 0
	c.foodSpawned = 0
	c.foodEaten = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
