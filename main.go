package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/protocell/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	duration := flag.Float64("duration", 0, "Stop after N simulated seconds (0 = unlimited)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	realtime := flag.Bool("realtime", false, "Pace ticks against the wall clock instead of running flat out")
	speed := flag.Float64("speed", 0, "Real-time speed multiplier (0 = use config)")
	merge := flag.Bool("merge", false, "Allow overlapping cells to merge")
	noFood := flag.Bool("no-food", false, "Disable food generation")
	loadPath := flag.String("load", "", "Resume from a saved environment JSON file")
	savePath := flag.String("save", "", "Save the final environment to this JSON file")
	genomePath := flag.String("genome", "", "Seed extra cells from a genome JSON file")
	genomeCount := flag.Int("genome-count", 10, "Number of cells seeded from -genome")
	hallPath := flag.String("hall", "", "Load a hall of fame JSON file to reseed from")
	reseed := flag.Int("reseed", 0, "Cells to reseed from the hall of fame on extinction (0 = off)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and config")
	snapshotOnBookmark := flag.Bool("snapshot-on-bookmark", false, "Save an environment snapshot whenever a bookmark fires")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	stopOnExtinction := flag.Bool("stop-on-extinction", false, "Stop when the population reaches zero")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// CLI overrides
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *speed > 0 {
		cfg.Physics.Speed = *speed
	}
	if *merge {
		cfg.Interaction.AllowMerge = true
	}
	if *noFood {
		cfg.Interaction.GenerateFood = false
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	limit := *maxTicks
	if *duration > 0 {
		if n := int64(*duration/cfg.Physics.DT + 0.5); limit == 0 || n < limit {
			limit = n
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg, sessionOptions{
		Seed:               rngSeed,
		LoadPath:           *loadPath,
		GenomePath:         *genomePath,
		GenomeCount:        *genomeCount,
		HallPath:           *hallPath,
		Reseed:             *reseed,
		OutputDir:          *outputDir,
		SnapshotOnBookmark: *snapshotOnBookmark,
		LogStats:           *logStats,
		StopOnExtinction:   *stopOnExtinction,
		MaxTicks:           limit,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"realtime", *realtime,
		"speed", cfg.Physics.Speed,
		"max_ticks", limit,
		"stats_window", cfg.Telemetry.StatsWindow,
		"population", s.env.Population(),
	)

	if *realtime {
		s.runPaced()
	} else {
		s.runHeadless()
	}

	slog.Info("simulation stopped",
		"tick", s.driver.Ticks(),
		"sim_time", s.env.Time(),
		"population", s.env.Population(),
		"food", s.env.FoodCount(),
	)

	if err := s.finish(*savePath); err != nil {
		slog.Error("failed to write final output", "error", err)
		os.Exit(1)
	}
}
