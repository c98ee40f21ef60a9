// Package sim drives an environment at a fixed timestep, either as fast as
// possible or paced against the wall clock.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pthm-cable/protocell/config"
)

// ErrInvalidSpeed is returned for speed multipliers that are not positive and finite.
var ErrInvalidSpeed = errors.New("invalid speed")

// Stepper is the single operation the driver needs from an environment.
type Stepper interface {
	Tick(dt float64, generateFood, allowMerge bool)
}

// Driver advances a Stepper one fixed timestep at a time.
//
// The speed multiplier only changes how often a paced run ticks; dt and
// therefore the simulation math are fixed. All ticks and every function
// passed to Do run under the same lock, so Do is the safe way to mutate the
// environment while a paced run is in progress.
type Driver struct {
	mu  sync.Mutex
	env Stepper

	dt           float64
	baseSpeed    float64
	speed        float64
	generateFood bool
	allowMerge   bool

	ticks  int64
	onTick func(tick int64)

	// Background run started by Start
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a driver using the timestep, pacing and interaction switches from cfg.
func New(env Stepper, cfg *config.Config) *Driver {
	if cfg == nil {
		cfg = config.Default()
	}
	dt := cfg.Physics.DT
	if dt <= 0 {
		dt = 0.1
	}
	speed := cfg.Physics.Speed
	if speed <= 0 {
		speed = 1
	}
	return &Driver{
		env:          env,
		dt:           dt,
		baseSpeed:    speed,
		speed:        speed,
		generateFood: cfg.Interaction.GenerateFood,
		allowMerge:   cfg.Interaction.AllowMerge,
	}
}

// DT returns the fixed timestep in simulated seconds.
func (d *Driver) DT() float64 { return d.dt }

// Step runs exactly one tick.
func (d *Driver) Step() {
	d.mu.Lock()
	d.env.Tick(d.dt, d.generateFood, d.allowMerge)
	d.ticks++
	tick, hook := d.ticks, d.onTick
	d.mu.Unlock()

	if hook != nil {
		hook(tick)
	}
}

// RunFor runs the given simulated duration synchronously and without pacing.
// It returns the number of ticks run.
func (d *Driver) RunFor(seconds float64) int {
	n := int(math.Round(seconds / d.dt))
	for range n {
		d.Step()
	}
	return n
}

// Run ticks once per Interval of wall time until ctx is done, then returns ctx.Err().
// Speed changes take effect on the next tick.
func (d *Driver) Run(ctx context.Context) error {
	interval := d.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.Step()
			if next := d.Interval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Start begins a paced run in the background. It returns false if a run is
// already in progress.
func (d *Driver) Start(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel, d.done = cancel, done

	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()
	return true
}

// Stop ends a background run and waits for its last tick to finish.
// Stopping a driver that is not running is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether a background run is in progress.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done != nil
}

// SetSpeed sets the wall-clock pacing multiplier.
func (d *Driver) SetSpeed(speed float64) error {
	if !(speed > 0) || math.IsInf(speed, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	d.mu.Lock()
	d.speed = speed
	d.mu.Unlock()
	return nil
}

// FastForward runs factor times faster than real time.
func (d *Driver) FastForward(factor float64) error {
	return d.SetSpeed(factor)
}

// SlowMotion runs factor times slower than real time.
func (d *Driver) SlowMotion(factor float64) error {
	if !(factor > 0) {
		return fmt.Errorf("%w: slow motion factor %v", ErrInvalidSpeed, factor)
	}
	return d.SetSpeed(1 / factor)
}

// ResetSpeed restores the configured speed.
func (d *Driver) ResetSpeed() {
	d.mu.Lock()
	d.speed = d.baseSpeed
	d.mu.Unlock()
}

// Speed returns the current pacing multiplier.
func (d *Driver) Speed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// Interval returns the wall time between paced ticks: dt/speed seconds.
func (d *Driver) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return max(time.Duration(math.Round(d.dt/d.speed*float64(time.Second))), time.Microsecond)
}

// Ticks returns the number of ticks run so far.
func (d *Driver) Ticks() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// SetGenerateFood toggles food generation for subsequent ticks.
func (d *Driver) SetGenerateFood(on bool) {
	d.mu.Lock()
	d.generateFood = on
	d.mu.Unlock()
}

// SetAllowMerge toggles merging for subsequent ticks.
func (d *Driver) SetAllowMerge(on bool) {
	d.mu.Lock()
	d.allowMerge = on
	d.mu.Unlock()
}

// OnTick registers a hook called after every tick with the tick count.
// The hook runs outside the driver lock and may call Do.
func (d *Driver) OnTick(fn func(tick int64)) {
	d.mu.Lock()
	d.onTick = fn
	d.mu.Unlock()
}

// Do runs fn between ticks.
func (d *Driver) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}
