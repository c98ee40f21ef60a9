package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/persist"
)

func TestOutputManager_NilIsNoOp(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir should disable output, got %v, %v", om, err)
	}

	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if path, err := om.WriteSnapshot(nil, nil); path != "" || err != nil {
		t.Errorf("WriteSnapshot = %q, %v", path, err)
	}
	if om.Dir() != "" || om.Close() != nil {
		t.Error("nil manager should have no dir and close cleanly")
	}
}

func TestOutputManager_HeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := int64(1); i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: i * 100, Population: int(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinction, Tick: 300, Description: "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "window_end,") != 1 {
		t.Error("header repeated")
	}

	bm, err := os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bm), "extinction,300") {
		t.Errorf("bookmarks.csv = %q", bm)
	}
}

func TestOutputManager_SnapshotAndConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg := config.Default()
	env, err := environment.New(cfg, environment.Options{Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	env.Populate(5, 5, 20)
	for i := 0; i < 10; i++ {
		env.Tick(cfg.Physics.DT, true, false)
	}

	path, err := om.WriteSnapshot(env, &Bookmark{Type: BookmarkPopulationCrash})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "snapshot_10_population_crash.json" {
		t.Errorf("snapshot path = %q", path)
	}
	loaded, err := persist.LoadFile(path, cfg, environment.Options{Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Population() != env.Population() || loaded.FoodCount() != env.FoodCount() {
		t.Errorf("snapshot restored %d cells %d food, want %d %d",
			loaded.Population(), loaded.FoodCount(), env.Population(), env.FoodCount())
	}

	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}
