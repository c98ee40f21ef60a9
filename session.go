package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"github.com/pthm-cable/protocell/components"
	"github.com/pthm-cable/protocell/config"
	"github.com/pthm-cable/protocell/environment"
	"github.com/pthm-cable/protocell/persist"
	"github.com/pthm-cable/protocell/sim"
	"github.com/pthm-cable/protocell/telemetry"
)

type sessionOptions struct {
	Seed               int64
	LoadPath           string
	GenomePath         string
	GenomeCount        int
	HallPath           string
	Reseed             int
	OutputDir          string
	SnapshotOnBookmark bool
	LogStats           bool
	StopOnExtinction   bool
	MaxTicks           int64 // 0 = unlimited
}

// session wires an environment to its driver and telemetry.
type session struct {
	cfg    *config.Config
	opts   sessionOptions
	rng    *rand.Rand
	ctx    context.Context
	cancel context.CancelFunc

	env    *environment.Environment
	driver *sim.Driver

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	bookmarks *telemetry.BookmarkDetector
	hall      *telemetry.HallOfFame
	output    *telemetry.OutputManager

	extinct atomic.Bool
}

func newSession(ctx context.Context, cfg *config.Config, opts sessionOptions) (*session, error) {
	s := &session{
		cfg:       cfg,
		opts:      opts,
		rng:       rand.New(rand.NewSource(opts.Seed)),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Physics.DT),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarks: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	envOpts := environment.Options{
		Seed:   opts.Seed,
		Logger: slog.Default(),
		Events: s.collector,
		Perf:   s.perf,
	}

	var err error
	if opts.LoadPath != "" {
		s.env, err = persist.LoadFile(opts.LoadPath, cfg, envOpts)
		if err != nil {
			return nil, err
		}
		slog.Info("environment loaded", "path", opts.LoadPath, "population", s.env.Population(), "food", s.env.FoodCount())
	} else {
		s.env, err = environment.New(cfg, envOpts)
		if err != nil {
			return nil, err
		}
		p := cfg.Population
		s.env.Populate(p.InitialCells, p.InitialBacteria, p.InitialFood)
	}

	if opts.GenomePath != "" {
		g, err := persist.LoadGenomeFile(opts.GenomePath)
		if err != nil {
			return nil, err
		}
		arena := s.env.Arena()
		for range opts.GenomeCount {
			x, y := arena.RandomPoint(s.rng)
			s.env.AddCell(components.VariantGeneric, g, x, y)
		}
	}

	if opts.HallPath != "" {
		s.hall, err = telemetry.LoadHallOfFameFromFile(opts.HallPath, cfg.Telemetry.HallOfFameSize, cfg.Telemetry.HallOfFameMinAge, s.rng)
		if err != nil {
			return nil, err
		}
	} else {
		s.hall = telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize, cfg.Telemetry.HallOfFameMinAge, s.rng)
	}

	s.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	s.driver = sim.New(s.env, cfg)
	s.driver.OnTick(s.afterTick)
	return s, nil
}

// runHeadless ticks as fast as possible until the session is cancelled.
func (s *session) runHeadless() {
	for s.ctx.Err() == nil {
		s.driver.Step()
	}
}

// runPaced ticks against the wall clock until the session is cancelled.
func (s *session) runPaced() {
	if err := s.driver.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("paced run stopped", "error", err)
	}
}

// afterTick runs after every tick, outside the driver lock.
func (s *session) afterTick(tick int64) {
	if s.opts.MaxTicks > 0 && tick >= s.opts.MaxTicks {
		slog.Info("max ticks reached", "tick", tick)
		s.cancel()
	}
	if !s.collector.ShouldFlush(tick) {
		return
	}

	var (
		stats     telemetry.WindowStats
		perfStats telemetry.PerfStats
		bookmarks []telemetry.Bookmark
		snapshots []string
	)
	s.driver.Do(func() {
		cells := s.env.Cells()
		stats = s.collector.Flush(tick, s.env.Time(), cells, s.env.FoodCount())
		perfStats = s.perf.Stats()
		s.hall.ConsiderAll(cells)

		bookmarks = s.bookmarks.Check(stats)
		if s.opts.SnapshotOnBookmark {
			for i := range bookmarks {
				path, err := s.output.WriteSnapshot(s.env, &bookmarks[i])
				if err != nil {
					slog.Error("failed to save snapshot", "error", err)
					continue
				}
				snapshots = append(snapshots, path)
			}
		}

		if stats.Population == 0 {
			s.handleExtinction(tick)
		}
	})

	if s.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := s.output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	for _, bm := range bookmarks {
		if s.opts.LogStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
	for _, path := range snapshots {
		slog.Info("snapshot saved", "path", path, "tick", tick)
	}
}

// handleExtinction reseeds from the hall of fame or, failing that, marks the
// run extinct. Must run between ticks.
func (s *session) handleExtinction(tick int64) {
	if s.opts.Reseed > 0 {
		if n := s.hall.Reseed(s.env, s.opts.Reseed); n > 0 {
			slog.Info("hall_of_fame_reseed",
				"tick", tick,
				"reseeded_count", n,
				"generic_hall", s.hall.Size(components.VariantGeneric),
				"bacteria_hall", s.hall.Size(components.VariantBacteria),
			)
			return
		}
		slog.Warn("hall_of_fame_empty", "tick", tick)
	}

	if !s.extinct.Swap(true) {
		slog.Info("population extinct", "tick", tick, "sim_time", s.env.Time())
	}
	if s.opts.StopOnExtinction {
		s.cancel()
	}
}

// finish saves the final state and closes all outputs.
func (s *session) finish(savePath string) error {
	s.cancel()
	var errs []error
	s.driver.Do(func() {
		if savePath != "" {
			if err := persist.SaveFile(savePath, s.env); err != nil {
				errs = append(errs, fmt.Errorf("saving environment: %w", err))
			} else {
				slog.Info("environment saved", "path", savePath)
			}
		}
		if err := s.output.WriteHallOfFame(s.hall); err != nil {
			errs = append(errs, err)
		}
	})
	if err := s.output.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
