// Package engine provides the tick-based control loop: the per-zone brain
// (safety check, spawn dispatch, task assignment) and the loop driving it.
package engine

import (
	"context"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Default cadence of the slower tick layers.
const (
	DefaultReportEvery = 100  // Ticks between zone reports
	DefaultSaveEvery   = 1500 // Ticks between persisted saves
)

// pausePoll is how often a paused engine checks whether it was resumed.
const pausePoll = 100 * time.Millisecond

// Engine drives the zone brains forward one tick at a time. The tick
// counter, speed and running flag may be read and changed from other
// goroutines (the status API) while the loop runs.
type Engine struct {
	Interval    time.Duration // Tick interval at speed 1
	ReportEvery uint64
	SaveEvery   uint64

	OnTick   func(tick uint64) // Every tick
	OnReport func(tick uint64) // Every ReportEvery ticks
	OnSave   func(tick uint64) // Every SaveEvery ticks

	tick    atomic.Uint64
	speed   atomic.Uint64 // float64 bits
	running atomic.Bool
}

// NewEngine creates an engine at tick 0, running at real time.
func NewEngine() *Engine {
	e := &Engine{
		Interval:    time.Second,
		ReportEvery: DefaultReportEvery,
		SaveEvery:   DefaultSaveEvery,
	}
	e.SetSpeed(1)
	return e
}

// Tick returns the last completed tick.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// ResumeAt sets the last completed tick, so a restored run continues
// numbering where it left off. Call before Run.
func (e *Engine) ResumeAt(tick uint64) { e.tick.Store(tick) }

// Speed returns the pacing multiplier: 1 is one tick per Interval, 0 is paused.
func (e *Engine) Speed() float64 { return math.Float64frombits(e.speed.Load()) }

// SetSpeed changes the pacing multiplier. Negative values pause.
func (e *Engine) SetSpeed(s float64) { e.speed.Store(math.Float64bits(max(s, 0))) }

// Running reports whether a loop is currently driving the engine.
func (e *Engine) Running() bool { return e.running.Load() }

// Run paces ticks by Interval and Speed until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("zone engine started", "tick", e.Tick(), "speed", e.Speed())

	for ctx.Err() == nil {
		speed := e.Speed()
		if speed == 0 {
			sleep(ctx, pausePoll)
			continue
		}

		start := time.Now()
		e.step()
		sleep(ctx, time.Duration(float64(e.Interval)/speed)-time.Since(start))
	}

	slog.Info("zone engine stopped", "tick", e.Tick())
}

// RunTicks advances up to n ticks back to back, stopping early if ctx is done.
func (e *Engine) RunTicks(ctx context.Context, n uint64) {
	e.running.Store(true)
	defer e.running.Store(false)

	var done uint64
	for ; done < n && ctx.Err() == nil; done++ {
		e.step()
	}
	slog.Info("zone engine batch finished", "tick", e.Tick(), "ticks", done)
}

func (e *Engine) step() {
	t := e.tick.Add(1)

	if e.OnTick != nil {
		e.OnTick(t)
	}
	if e.OnReport != nil && e.ReportEvery > 0 && t%e.ReportEvery == 0 {
		e.OnReport(t)
	}
	if e.OnSave != nil && e.SaveEvery > 0 && t%e.SaveEvery == 0 {
		e.OnSave(t)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
