package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/genome"
)

func newEnv(t *testing.T) *environment.Environment {
	t.Helper()
	env, err := environment.New(config.Default(), environment.Options{Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	env.Populate(10, 10, 50)
	for i := 0; i < 50; i++ {
		env.Tick(0.1, true, false)
	}

	g := genome.FromTraits(genome.Traits{
		Size: 8, Speed: 1, EnergyEfficiency: 1, DivisionThreshold: 30,
		Color:   genome.Color{R: 0.2, G: 0.4, B: 0.6},
		Adhesin: true, ConsumptionSizeRatio: 1.5, NitrogenReserve: 0.3, RadiationSensitivity: 0.2,
	})
	g.NeverConsume = true
	a := env.AddCell(components.VariantPhotocyte, g, 100, 100)
	b := env.AddCell(components.VariantPhotocyte, g, 120, 100)
	if err := env.Adhere(a, b); err != nil {
		t.Fatal(err)
	}
	return env
}

func encode(t *testing.T, env *environment.Environment) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Save(&buf, env); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTripIsExact(t *testing.T) {
	orig := newEnv(t)
	loaded, err := Load(bytes.NewReader(encode(t, orig)), config.Default(), environment.Options{Seed: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Time() != orig.Time() {
		t.Errorf("time = %v, want %v", loaded.Time(), orig.Time())
	}
	if loaded.Arena() != orig.Arena() {
		t.Errorf("arena = %+v, want %+v", loaded.Arena(), orig.Arena())
	}
	wantFood, gotFood := orig.Food(), loaded.Food()
	if len(gotFood) != len(wantFood) {
		t.Fatalf("food count = %d, want %d", len(gotFood), len(wantFood))
	}
	for i := range wantFood {
		if gotFood[i] != wantFood[i] {
			t.Fatalf("food[%d] = %v, want %v", i, gotFood[i], wantFood[i])
		}
	}

	want, got := orig.Cells(), loaded.Cells()
	if len(got) != len(want) {
		t.Fatalf("cells = %d, want %d", len(got), len(want))
	}
	ids := make(map[uint32]uint32, len(want))
	for i := range want {
		ids[want[i].ID] = got[i].ID
	}
	for i := range want {
		w, g := want[i], got[i]
		if g.Energy != w.Energy || g.Age != w.Age || g.Nitrogen != w.Nitrogen {
			t.Errorf("cell %d vitals: got (%v, %v, %v) want (%v, %v, %v)",
				i, g.Energy, g.Age, g.Nitrogen, w.Energy, w.Age, w.Nitrogen)
		}
		if g.X != w.X || g.Y != w.Y || g.Heading != w.Heading || g.LastFed != w.LastFed || g.Variant != w.Variant {
			t.Errorf("cell %d state: got %+v want %+v", i, g, w)
		}
		if g.Genome != w.Genome {
			t.Errorf("cell %d genome: got %+v want %+v", i, g.Genome, w.Genome)
		}
		if len(g.Partners) != len(w.Partners) {
			t.Errorf("cell %d partners: got %v want %v", i, g.Partners, w.Partners)
			continue
		}
		for k, p := range w.Partners {
			if g.Partners[k] != ids[p] {
				t.Errorf("cell %d partner %d: got %d want %d", i, k, g.Partners[k], ids[p])
			}
		}
	}
}

func TestSaveOmitsDNA(t *testing.T) {
	data := encode(t, newEnv(t))
	if bytes.Contains(data, []byte("dna")) {
		t.Error("DNA should be derived, not stored")
	}
}

// edit decodes a saved record into generic JSON, applies fn and re-encodes it.
func edit(t *testing.T, data []byte, fn func(m map[string]any)) []byte {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	fn(m)
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func cellAt(m map[string]any, i int) map[string]any {
	return m["cells"].([]any)[i].(map[string]any)
}

func TestLoadRejectsMalformed(t *testing.T) {
	valid := encode(t, newEnv(t))

	tests := []struct {
		name    string
		edit    func(m map[string]any)
		wantErr error
		wantMsg string
	}{
		{
			name:    "missing version",
			edit:    func(m map[string]any) { delete(m, "version") },
			wantErr: ErrMalformed,
			wantMsg: "version: missing",
		},
		{
			name:    "wrong version",
			edit:    func(m map[string]any) { m["version"] = 99 },
			wantErr: ErrVersion,
		},
		{
			name:    "missing cells",
			edit:    func(m map[string]any) { delete(m, "cells") },
			wantErr: ErrMalformed,
			wantMsg: "cells: missing",
		},
		{
			name:    "missing energy",
			edit:    func(m map[string]any) { delete(cellAt(m, 2), "energy") },
			wantErr: ErrMalformed,
			wantMsg: "cells[2].energy: missing",
		},
		{
			name: "missing genome trait",
			edit: func(m map[string]any) {
				delete(cellAt(m, 3)["genome"].(map[string]any), "speed")
			},
			wantErr: ErrMalformed,
			wantMsg: "cells[3].genome.speed: missing",
		},
		{
			name: "out of range trait",
			edit: func(m map[string]any) {
				cellAt(m, 1)["genome"].(map[string]any)["consumption_size_ratio"] = 0.5
			},
			wantErr: genome.ErrInvalidTraits,
			wantMsg: "cells[1].genome",
		},
		{
			name:    "short position",
			edit:    func(m map[string]any) { cellAt(m, 0)["position"] = []any{1.0} },
			wantErr: ErrMalformed,
			wantMsg: "cells[0].position",
		},
		{
			name:    "short food point",
			edit:    func(m map[string]any) { m["food"] = []any{[]any{1.0, 2.0}, []any{3.0}} },
			wantErr: ErrMalformed,
			wantMsg: "food[1]",
		},
		{
			name:    "unknown partner",
			edit:    func(m map[string]any) { cellAt(m, 0)["partners"] = []any{9999} },
			wantErr: ErrMalformed,
			wantMsg: "unknown cell 9999",
		},
		{
			name:    "negative radius",
			edit:    func(m map[string]any) { m["radius"] = -5 },
			wantErr: ErrMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := edit(t, valid, tt.edit)
			env, err := Load(bytes.NewReader(data), nil, environment.Options{})
			if env != nil {
				t.Error("malformed record produced an environment")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadDefaultsOptionalFields(t *testing.T) {
	data := []byte(`{
		"version": 1, "radius": 100, "time": 12.5, "food": [],
		"cells": [{
			"position": [100, 100], "energy": 30, "age": 4,
			"genome": {
				"size": 10, "speed": 1, "energy_efficiency": 1, "division_threshold": 30,
				"color": [0.1, 0.2, 0.3], "has_tail": true, "can_consume": false, "adhesin": false,
				"consumption_size_ratio": 1.5, "nitrogen_reserve": 0.4, "radiation_sensitivity": 0.2
			}
		}]
	}`)
	env, err := Load(bytes.NewReader(data), nil, environment.Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if env.Arena().Radius != 100 {
		t.Errorf("radius = %v", env.Arena().Radius)
	}
	c := env.Cells()[0]
	if c.Nitrogen != 0.4 || c.LastFed != 12.5 || c.Variant != components.VariantGeneric || c.Heading != 0 {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.Genome.NeverConsume {
		t.Error("never_consume should default to false")
	}
}

func TestLoadRejectsFoodOverCap(t *testing.T) {
	cfg := config.Default()
	cfg.Food.MaxFood = 2
	data := []byte(`{"version": 1, "radius": 50, "time": 0, "food": [[1,1],[2,2],[3,3]], "cells": []}`)
	env, err := Load(bytes.NewReader(data), cfg, environment.Options{})
	if env != nil || !errors.Is(err, ErrMalformed) {
		t.Errorf("env=%v err=%v, want ErrMalformed", env, err)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"version": `), nil, environment.Options{}); err == nil {
		t.Error("expected decode error")
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.json")
	orig := newEnv(t)

	if err := SaveFile(path, orig); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	loaded, err := LoadFile(path, nil, environment.Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Population() != orig.Population() || loaded.FoodCount() != orig.FoodCount() {
		t.Errorf("loaded %d cells / %d food, want %d / %d",
			loaded.Population(), loaded.FoodCount(), orig.Population(), orig.FoodCount())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json"), nil, environment.Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGenomeRoundTrip(t *testing.T) {
	g := genome.New(newRand())
	g.NeverConsume = true

	var buf bytes.Buffer
	if err := SaveGenome(&buf, g); err != nil {
		t.Fatal(err)
	}
	got, err := LoadGenome(&buf)
	if err != nil {
		t.Fatalf("LoadGenome: %v", err)
	}
	if *got != *g {
		t.Errorf("got %+v, want %+v", *got, *g)
	}

	path := filepath.Join(t.TempDir(), "genome.json")
	if err := SaveGenomeFile(path, g); err != nil {
		t.Fatal(err)
	}
	got, err = LoadGenomeFile(path)
	if err != nil || *got != *g {
		t.Errorf("file round trip: %+v, %v", got, err)
	}
}

func TestLoadGenomeMissingField(t *testing.T) {
	_, err := LoadGenome(strings.NewReader(`{"size": 10}`))
	if !errors.Is(err, ErrMalformed) || !strings.Contains(err.Error(), "speed: missing") {
		t.Errorf("err = %v", err)
	}
}
