package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/genome"
)

func hallCell(id uint32, v components.Variant, age float64) environment.CellState {
	g := genome.New(rand.New(rand.NewSource(int64(id))))
	return environment.CellState{ID: id, Variant: v, Age: age, Genome: *g}
}

func TestHallOfFame_MinAge(t *testing.T) {
	hof := NewHallOfFame(5, 60, rand.New(rand.NewSource(1)))

	if hof.Consider(hallCell(1, components.VariantGeneric, 59)) {
		t.Error("cell younger than min age should not qualify")
	}
	if !hof.Consider(hallCell(2, components.VariantGeneric, 60)) {
		t.Error("cell at min age should qualify")
	}
	if hof.Size(components.VariantGeneric) != 1 || hof.Size(components.VariantBacteria) != 0 {
		t.Errorf("sizes: generic %d bacteria %d", hof.Size(components.VariantGeneric), hof.Size(components.VariantBacteria))
	}
}

func TestHallOfFame_CapacityKeepsBest(t *testing.T) {
	hof := NewHallOfFame(3, 0, rand.New(rand.NewSource(1)))

	ages := []float64{10, 50, 30, 20, 40}
	for i, age := range ages {
		hof.Consider(hallCell(uint32(i+1), components.VariantBacteria, age))
	}

	if got := hof.Size(components.VariantBacteria); got != 3 {
		t.Fatalf("size = %d, want 3", got)
	}
	if got := hof.TopFitness(components.VariantBacteria); got != 50 {
		t.Errorf("top fitness = %v, want 50", got)
	}
	if hof.Consider(hallCell(9, components.VariantBacteria, 5)) {
		t.Error("a cell worse than every entry should not enter a full hall")
	}
	hall := hof.halls[components.VariantBacteria]
	for i, want := range []float64{50, 40, 30} {
		if hall[i].Fitness != want {
			t.Errorf("entry %d fitness = %v, want %v", i, hall[i].Fitness, want)
		}
	}
}

func TestHallOfFame_RefreshesSameCell(t *testing.T) {
	hof := NewHallOfFame(3, 0, rand.New(rand.NewSource(1)))

	hof.Consider(hallCell(7, components.VariantGeneric, 10))
	if hof.Consider(hallCell(7, components.VariantGeneric, 10)) {
		t.Error("same age should not change the hall")
	}
	if !hof.Consider(hallCell(7, components.VariantGeneric, 25)) {
		t.Error("older age should refresh the entry")
	}
	if hof.Size(components.VariantGeneric) != 1 {
		t.Errorf("cell should appear once, size %d", hof.Size(components.VariantGeneric))
	}
	if hof.TopFitness(components.VariantGeneric) != 25 {
		t.Errorf("top fitness = %v, want 25", hof.TopFitness(components.VariantGeneric))
	}
}

func TestHallOfFame_DisabledWhenSizeZero(t *testing.T) {
	hof := NewHallOfFame(0, 0, rand.New(rand.NewSource(1)))
	if hof.ConsiderAll([]environment.CellState{hallCell(1, components.VariantGeneric, 100)}) != 0 {
		t.Error("zero-size hall should accept nothing")
	}
}

func TestHallOfFame_SampleReturnsCopy(t *testing.T) {
	hof := NewHallOfFame(3, 0, rand.New(rand.NewSource(1)))

	if hof.Sample(components.VariantGeneric) != nil {
		t.Error("empty hall should sample nil")
	}

	c := hallCell(1, components.VariantGeneric, 10)
	hof.Consider(c)

	g := hof.Sample(components.VariantGeneric)
	if g == nil || g.Traits != c.Genome.Traits {
		t.Fatalf("sampled genome differs from the stored one")
	}
	g.Size = 999
	if hof.halls[components.VariantGeneric][0].Genome.Size == 999 {
		t.Error("mutating the sample changed the hall")
	}
}

func TestHallOfFame_Reseed(t *testing.T) {
	cfg := config.Default()
	env, err := environment.New(cfg, environment.Options{Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	hof := NewHallOfFame(3, 0, rand.New(rand.NewSource(2)))

	if hof.Reseed(env, 5) != 0 || env.Population() != 0 {
		t.Fatal("empty hall should not reseed")
	}

	hof.Consider(hallCell(1, components.VariantGeneric, 10))
	hof.Consider(hallCell(2, components.VariantBacteria, 10))

	if got := hof.Reseed(env, 4); got != 4 {
		t.Fatalf("reseeded %d, want 4", got)
	}
	counts := map[components.Variant]int{}
	for _, c := range env.Cells() {
		counts[c.Variant]++
		if !env.Arena().Contains(c.X, c.Y) {
			t.Errorf("reseeded cell %d outside arena at (%v, %v)", c.ID, c.X, c.Y)
		}
		if c.Energy != env.Rules().InitialEnergy {
			t.Errorf("reseeded cell energy = %v", c.Energy)
		}
	}
	if counts[components.VariantGeneric] != 2 || counts[components.VariantBacteria] != 2 {
		t.Errorf("variant counts = %v, want 2 each", counts)
	}
}

func TestHallOfFame_FileRoundTrip(t *testing.T) {
	hof := NewHallOfFame(5, 0, rand.New(rand.NewSource(1)))
	hof.Consider(hallCell(1, components.VariantGeneric, 30))
	hof.Consider(hallCell(2, components.VariantGeneric, 20))
	hof.Consider(hallCell(3, components.VariantPhotocyte, 40))

	data, err := hof.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "hall_of_fame.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadHallOfFameFromFile(path, 1, 0, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size(components.VariantGeneric) != 1 {
		t.Errorf("generic size = %d, want 1 after truncation", loaded.Size(components.VariantGeneric))
	}
	if loaded.TopFitness(components.VariantGeneric) != 30 {
		t.Errorf("kept fitness = %v, want the best (30)", loaded.TopFitness(components.VariantGeneric))
	}
	got := loaded.halls[components.VariantPhotocyte][0]
	want := hof.halls[components.VariantPhotocyte][0]
	if got.CellID != 3 || got.Genome.Traits != want.Genome.Traits {
		t.Errorf("photocyte entry = %+v, want %+v", got, want)
	}
}

func TestLoadHallOfFameRejectsUnknownVariant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hof.json")
	if err := os.WriteFile(path, []byte(`{"amoeba": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHallOfFameFromFile(path, 3, 0, rand.New(rand.NewSource(1))); err == nil {
		t.Error("unknown variant should fail to load")
	}
}
