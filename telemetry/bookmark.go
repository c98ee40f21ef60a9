package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPredationSurge   BookmarkType = "predation_surge"
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkConsumerRecovery BookmarkType = "consumer_recovery"
	BookmarkStablePopulation BookmarkType = "stable_population"
	BookmarkExtinction       BookmarkType = "extinction"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	SimTimeSec  float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"sim_time", b.SimTimeSec,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments from the sequence of window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentConsumerMin  int // minimum consumer count since the last recovery
	recentPeak         int // peak population since the last crash
	stableWindowsCount int // consecutive windows with a steady population
	extinct            bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable population detection
	}
	return &BookmarkDetector{
		history:           make([]WindowStats, historySize),
		historySize:       historySize,
		recentConsumerMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if bd.historyFull || bd.historyIdx > 0 {
		checks := []func(WindowStats) *Bookmark{
			bd.checkPredationSurge,
			bd.checkConsumerRecovery,
			bd.checkPopulationCrash,
			bd.checkStablePopulation,
		}
		for _, check := range checks {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.addToHistory(stats)

	if bd.recentConsumerMin < 0 || stats.Consumers < bd.recentConsumerMin {
		bd.recentConsumerMin = stats.Consumers
	}
	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// recent returns up to n of the latest windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	n = min(n, len(bd.getHistory()))
	out := make([]WindowStats, 0, n)
	for i := n; i >= 1; i-- {
		out = append(out, bd.history[(bd.historyIdx-i+bd.historySize)%bd.historySize])
	}
	return out
}

func newBookmark(t BookmarkType, stats WindowStats, format string, args ...any) *Bookmark {
	return &Bookmark{
		Type:        t,
		Tick:        stats.WindowEndTick,
		SimTimeSec:  stats.SimTimeSec,
		Description: fmt.Sprintf(format, args...),
	}
}

// checkExtinction fires once when the population first reaches zero.
func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct {
		return nil
	}
	bd.extinct = true
	return newBookmark(BookmarkExtinction, stats, "Population extinct after %d deaths this window", stats.Deaths)
}

// checkPredationSurge fires when predations exceed twice the rolling average.
func (bd *BookmarkDetector) checkPredationSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Predations
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Predations) > avg*2.0 && stats.Predations >= 3 {
		return newBookmark(BookmarkPredationSurge, stats,
			"%d predations is %.1fx average (%.2f)", stats.Predations, float64(stats.Predations)/avg, avg)
	}
	return nil
}

// checkConsumerRecovery fires when consumers rebound from 3 or fewer to at least three times that.
func (bd *BookmarkDetector) checkConsumerRecovery(stats WindowStats) *Bookmark {
	if bd.recentConsumerMin < 0 || bd.recentConsumerMin > 3 {
		return nil
	}

	threshold := max(bd.recentConsumerMin*3, 6)
	if stats.Consumers >= threshold {
		oldMin := bd.recentConsumerMin
		bd.recentConsumerMin = stats.Consumers
		return newBookmark(BookmarkConsumerRecovery, stats,
			"Consumers recovered from %d to %d", oldMin, stats.Consumers)
	}
	return nil
}

// checkPopulationCrash fires when the population drops more than 30% from its recent peak.
func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Population)/float64(bd.recentPeak)
	if drop > 0.30 && stats.Population < bd.recentPeak-10 {
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population
		return newBookmark(BookmarkPopulationCrash, stats,
			"Population crashed %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Population)
	}
	return nil
}

// checkStablePopulation fires once after five consecutive windows whose
// last four populations have a coefficient of variation below 0.2.
func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats) *Bookmark {
	if stats.Population < 10 {
		bd.stableWindowsCount = 0
		return nil
	}

	last := bd.recent(4)
	if len(last) < 4 {
		return nil
	}

	pops := make([]float64, 0, len(last))
	for _, h := range last {
		pops = append(pops, float64(h.Population))
	}
	mean, std := ComputeMeanStd(pops)

	if mean > 0 && std/mean < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 {
		return newBookmark(BookmarkStablePopulation, stats,
			"Stable population of %d over 5+ windows", stats.Population)
	}
	return nil
}
