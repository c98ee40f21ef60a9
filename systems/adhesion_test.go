package systems

import (
	"slices"
	"testing"
)

func TestAdhesionGraph_BondIsSymmetric(t *testing.T) {
	g := NewAdhesionGraph()
	if !g.Bond(1, 2) {
		t.Fatal("first bond should succeed")
	}
	if g.Bond(2, 1) {
		t.Error("reverse bond is a duplicate")
	}
	if g.Bond(3, 3) {
		t.Error("self bond must be rejected")
	}
	if !g.Bonded(1, 2) || !g.Bonded(2, 1) {
		t.Error("bond should be visible from both sides")
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
}

func TestAdhesionGraph_RemoveSeversBothSides(t *testing.T) {
	g := NewAdhesionGraph()
	g.Bond(1, 2)
	g.Bond(1, 3)
	g.Bond(2, 3)

	if n := g.Remove(1); n != 2 {
		t.Errorf("Remove cut %d bonds, want 2", n)
	}
	if g.Bonded(2, 1) || g.Bonded(3, 1) {
		t.Error("partners still reference the removed cell")
	}
	if !slices.Equal(g.Partners(2), []uint32{3}) {
		t.Errorf("Partners(2) = %v, want [3]", g.Partners(2))
	}
	if g.Remove(1) != 0 {
		t.Error("second Remove should be a no-op")
	}
	if !g.Unbond(2, 3) || g.Unbond(2, 3) {
		t.Error("Unbond should succeed once")
	}
	if g.Len() != 0 || g.Degree(2) != 0 {
		t.Error("graph should be empty")
	}
}

func TestAdhesionGraph_Clusters(t *testing.T) {
	g := NewAdhesionGraph()
	g.Bond(5, 9)
	g.Bond(9, 2)
	g.Bond(7, 8)

	got := g.Clusters()
	want := [][]uint32{{2, 5, 9}, {7, 8}}
	if len(got) != len(want) {
		t.Fatalf("Clusters = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("cluster %d = %v, want %v", i, got[i], want[i])
		}
	}
}
