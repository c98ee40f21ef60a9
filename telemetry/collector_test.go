package telemetry

import (
	"testing"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
)

func TestCollector_WindowTicks(t *testing.T) {
	tests := []struct {
		window, dt float64
		want       int64
	}{
		{10, 0.1, 100},
		{0.3, 0.1, 3},
		{0.01, 0.1, 1},
	}
	for _, tt := range tests {
		c := NewCollector(tt.window, tt.dt)
		if got := c.WindowDurationTicks(); got != tt.want {
			t.Errorf("NewCollector(%v, %v) window = %d ticks, want %d", tt.window, tt.dt, got, tt.want)
		}
	}
}

func TestCollector_FlushCountsAndResets(t *testing.T) {
	c := NewCollector(1, 0.1)

	c.RecordBirth(components.VariantGeneric)
	c.RecordBirth(components.VariantBacteria)
	c.RecordDeath(components.VariantGeneric, components.CauseStarved)
	c.RecordDeath(components.VariantGeneric, components.CauseEaten)
	c.RecordDeath(components.VariantGeneric, components.CauseEaten)
	c.RecordPredation()
	c.RecordMerge()
	c.RecordFoodSpawned()
	c.RecordFoodEaten()

	if c.ShouldFlush(9) {
		t.Error("window not complete at tick 9")
	}
	if !c.ShouldFlush(10) {
		t.Error("window complete at tick 10")
	}

	s := c.Flush(10, 1.0, nil, 7)
	if s.Births != 2 || s.Deaths != 3 || s.DeathsStarved != 1 || s.DeathsEaten != 2 {
		t.Errorf("counts wrong: %+v", s)
	}
	if s.Predations != 1 || s.Merges != 1 || s.FoodSpawned != 1 || s.FoodEaten != 1 || s.Food != 7 {
		t.Errorf("event counts wrong: %+v", s)
	}
	if s.WindowStartTick != 0 || s.WindowEndTick != 10 || s.SimTimeSec != 1.0 {
		t.Errorf("window bounds wrong: %+v", s)
	}

	next := c.Flush(20, 2.0, nil, 0)
	if next.Births != 0 || next.Deaths != 0 || next.WindowStartTick != 10 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestCollector_ReceivesEnvironmentEvents(t *testing.T) {
	cfg := config.Default()
	c := NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT)
	env, err := environment.New(cfg, environment.Options{Seed: 3, Events: c})
	if err != nil {
		t.Fatal(err)
	}
	env.Populate(30, 30, 100)

	for i := 0; i < 300; i++ {
		env.Tick(cfg.Physics.DT, true, false)
	}

	s := c.Flush(env.Ticks(), env.Time(), env.Cells(), env.FoodCount())
	if s.FoodSpawned == 0 {
		t.Error("expected food to be generated over 30 s")
	}
	if s.FoodEaten == 0 {
		t.Error("expected 60 cells to eat something")
	}
	if s.Population != env.Population() {
		t.Errorf("population = %d, want %d", s.Population, env.Population())
	}
	if got := 60 + s.Births - s.Deaths; got != s.Population {
		t.Errorf("60 + births - deaths = %d, population %d", got, s.Population)
	}
}
