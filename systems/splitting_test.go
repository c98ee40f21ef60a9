package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/protocell/components"
)

func TestCanDivide(t *testing.T) {
	r := testRules()
	tests := []struct {
		name     string
		age      float64
		energy   float64
		nitrogen float64
		want     bool
	}{
		{"ready", 20, 31, 0.2, true},
		{"too young", 19.9, 50, 0.5, false},
		{"energy equal to threshold", 25, 30, 0.5, false},
		{"low nitrogen", 25, 50, 0.19, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCell(1, 0, 0, testTraits(), tt.energy)
			c.Vitals.Age = tt.age
			c.Vitals.Nitrogen = tt.nitrogen
			if got := CanDivide(c, r); got != tt.want {
				t.Errorf("CanDivide = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDivide_ConservesEnergyAndNitrogen(t *testing.T) {
	r := testRules()
	rng := rand.New(rand.NewSource(10))

	for i := 0; i < 100; i++ {
		energy := 20 + rng.Float64()*80
		nitrogen := 0.2 + rng.Float64()
		parent := newTestCell(1, 200, 200, testTraits(), energy)
		parent.Vitals.Nitrogen = nitrogen
		parent.Vitals.Age = 30
		parent.Org.Variant = components.VariantPhotocyte

		child := Divide(parent, r, 42, rng)

		if parent.Vitals.Energy+child.Vitals.Energy != energy {
			t.Fatalf("energy not conserved: %v + %v != %v", parent.Vitals.Energy, child.Vitals.Energy, energy)
		}
		if parent.Vitals.Nitrogen+child.Vitals.Nitrogen != nitrogen {
			t.Fatalf("nitrogen not conserved: %v + %v != %v", parent.Vitals.Nitrogen, child.Vitals.Nitrogen, nitrogen)
		}
		if child.Vitals.Energy != parent.Vitals.Energy {
			t.Fatal("child and parent should hold the same half")
		}
		if child.Variant != components.VariantPhotocyte {
			t.Errorf("child variant = %v, want photocyte", child.Variant)
		}
		if math.Abs(math.Abs(child.Pos.X-200)-8) > 1e-12 || math.Abs(math.Abs(child.Pos.Y-200)-8) > 1e-12 {
			t.Errorf("child offset = (%v, %v), want ±8 per axis", child.Pos.X-200, child.Pos.Y-200)
		}
		if child.Vitals.Age != 0 || child.Vitals.LastFed != 42 {
			t.Errorf("child age/last fed = %v/%v", child.Vitals.Age, child.Vitals.LastFed)
		}
		if child.Genome == parent.Org.Genome {
			t.Fatal("child must own its own genome")
		}
	}
}

func TestDivide_MutatesOnlyTheChild(t *testing.T) {
	r := testRules()
	r.MutationRate = 1
	parent := newTestCell(1, 0, 0, testTraits(), 50)
	before := parent.Genome().Traits

	child := Divide(parent, r, 0, rand.New(rand.NewSource(11)))

	if parent.Genome().Traits != before {
		t.Error("parent genome changed during division")
	}
	if child.Genome.HasTail == before.HasTail {
		t.Error("child genome should have mutated at rate 1")
	}
}
