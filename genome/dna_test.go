package genome

import (
	"math"
	"math/rand"
	"testing"
)

func TestDNARoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const eps = 1e-9

	for i := 0; i < 1000; i++ {
		g := New(rng)
		got := Decode(g.DNA())

		scalars := []struct {
			name      string
			orig, dec float64
		}{
			{"size", g.Size, got.Size},
			{"speed", g.Speed, got.Speed},
			{"energy_efficiency", g.EnergyEfficiency, got.EnergyEfficiency},
			{"division_threshold", g.DivisionThreshold, got.DivisionThreshold},
			{"consumption_size_ratio", g.ConsumptionSizeRatio, got.ConsumptionSizeRatio},
			{"nitrogen_reserve", g.NitrogenReserve, got.NitrogenReserve},
			{"radiation_sensitivity", g.RadiationSensitivity, got.RadiationSensitivity},
		}
		for _, s := range scalars {
			if math.Abs(s.orig-s.dec) > ScalarStep/2+eps {
				t.Fatalf("genome %d: %s decoded %v from %v (step %v)", i, s.name, s.dec, s.orig, ScalarStep)
			}
		}

		colors := []struct {
			name      string
			orig, dec float64
		}{
			{"r", g.Color.R, got.Color.R},
			{"g", g.Color.G, got.Color.G},
			{"b", g.Color.B, got.Color.B},
		}
		for _, c := range colors {
			if math.Abs(c.orig-c.dec) > ColorStep/2+eps {
				t.Fatalf("genome %d: color %s decoded %v from %v", i, c.name, c.dec, c.orig)
			}
		}

		if got.HasTail != g.HasTail || got.CanConsume != g.CanConsume || got.Adhesin != g.Adhesin {
			t.Fatalf("genome %d: booleans not exact: got %+v want %+v", i, got, g.Traits)
		}
	}
}

func TestEncodeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	g := New(rng)
	first := g.DNA()
	for i := 0; i < 10; i++ {
		if d := g.DNA(); d != first {
			t.Fatalf("encode not idempotent: %v vs %v", d, first)
		}
	}
	if Encode(g.Copy().Traits) != first {
		t.Error("copy encodes differently")
	}
}

func TestDNALayoutDoesNotCollide(t *testing.T) {
	// Setting each field on its own must light up bits disjoint from every other field.
	singles := []Traits{
		{DivisionThreshold: 40.5},
		{EnergyEfficiency: 25.5},
		{Speed: 25.5},
		{Size: 25.5},
		{ConsumptionSizeRatio: 25.5},
		{Color: Color{R: 1}},
		{Color: Color{G: 1}},
		{Color: Color{B: 1}},
		{HasTail: true},
		{CanConsume: true},
		{NitrogenReserve: 25.5},
		{Adhesin: true},
		{RadiationSensitivity: 25.5},
	}

	var seenHi uint32
	var seenLo uint64
	for i, tr := range singles {
		d := Encode(tr)
		if d.Hi == 0 && d.Lo == 0 {
			t.Fatalf("field %d encoded to zero", i)
		}
		if d.Hi&seenHi != 0 || d.Lo&seenLo != 0 {
			t.Fatalf("field %d overlaps an earlier field: %s", i, d)
		}
		seenHi |= d.Hi
		seenLo |= d.Lo
	}
}

func TestDNAKnownLayout(t *testing.T) {
	d := Encode(Traits{HasTail: true, Size: 1.0})
	if !d.Bit(64) {
		t.Error("has_tail should be bit 64")
	}
	if d.Bit(65) {
		t.Error("can_consume bit should be clear")
	}
	// size 1.0 -> byte 10 at offset 24
	if got := (d.Lo >> 24) & 0xFF; got != 10 {
		t.Errorf("size byte = %d, want 10", got)
	}
	if s := d.String(); len(s) != 24 {
		t.Errorf("String() = %q, want 24 hex digits", s)
	}
}

func TestEncodeSaturates(t *testing.T) {
	tests := []struct {
		name string
		tr   Traits
		want float64
		get  func(Traits) float64
	}{
		{"large size", Traits{Size: 128}, 25.5, func(t Traits) float64 { return t.Size }},
		{"low threshold", Traits{DivisionThreshold: 3}, 15, func(t Traits) float64 { return t.DivisionThreshold }},
		{"nan speed", Traits{Speed: math.NaN()}, 0, func(t Traits) float64 { return t.Speed }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.get(Decode(Encode(tt.tr)))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("decoded %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDNABitOutOfRange(t *testing.T) {
	d := DNA{Hi: math.MaxUint32, Lo: math.MaxUint64}
	if d.Bit(-1) || d.Bit(96) {
		t.Error("out of range bits must read false")
	}
	if !d.Bit(0) || !d.Bit(95) {
		t.Error("in range bits should be set")
	}
}
