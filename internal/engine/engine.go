// Package engine implements the session timing engine: a round timer that
// counts the active preparation or segment round and an elapsed timer that
// counts total active seconds.
//
// An Engine is not safe for concurrent use. Callers serialise access,
// typically by wrapping the scheduler with clock.Locked.
package engine

import (
	"time"

	"github.com/verte-zerg/mindful/internal/clock"
	"github.com/verte-zerg/mindful/internal/model"
)

const tickInterval = time.Second

// Engine owns the round and elapsed counters of one session.
type Engine struct {
	blueprint  model.Blueprint
	countUp    bool
	sched      clock.Scheduler
	onRoundEnd func()

	segmentIndex int
	roundValue   int
	elapsed      int

	stopRound   func()
	stopElapsed func()
	// Generations invalidate ticks delivered after their timer was stopped.
	roundGen   uint64
	elapsedGen uint64
}

// New builds an engine positioned at the first round. onRoundEnd is called
// once per completed round, after the round timer has stopped itself.
func New(bp model.Blueprint, settings model.LockedSettings, sched clock.Scheduler, onRoundEnd func()) *Engine {
	e := &Engine{
		blueprint:  bp,
		countUp:    settings.CountUp,
		sched:      sched,
		onRoundEnd: onRoundEnd,
	}
	e.initCounters()
	return e
}

func (e *Engine) initCounters() {
	if e.blueprint.HasPreparation() {
		e.segmentIndex = model.PreparationIndex
	} else {
		e.segmentIndex = 0
	}
	e.roundValue = e.initialRoundValue()
	e.elapsed = 0
}

func (e *Engine) initialRoundValue() int {
	if e.countUp {
		return 0
	}
	return e.RoundDuration()
}

// Start begins both timers. Calling Start while running is a no-op.
func (e *Engine) Start() {
	if e.stopElapsed == nil {
		e.elapsedGen++
		gen := e.elapsedGen
		e.stopElapsed = e.sched.Every(tickInterval, func() {
			e.tickElapsed(gen)
		})
	}
	if e.stopRound == nil && !e.roundFinished() {
		e.startRoundTimer()
	}
}

// Pause stops both timers without touching the counters.
func (e *Engine) Pause() {
	e.clearRoundTimer()
	if e.stopElapsed != nil {
		e.stopElapsed()
		e.stopElapsed = nil
	}
}

// Resume restarts both timers from the current counters.
func (e *Engine) Resume() {
	e.Start()
}

// Reset stops the timers and returns to the construction-time position.
func (e *Engine) Reset() {
	e.Pause()
	e.initCounters()
}

// Cleanup stops the timers for teardown.
func (e *Engine) Cleanup() {
	e.Pause()
}

// BeginRound moves to the round at index and starts its timer. The elapsed
// timer is left as is.
func (e *Engine) BeginRound(index int) {
	e.clearRoundTimer()
	e.segmentIndex = index
	e.roundValue = e.initialRoundValue()
	if e.stopElapsed != nil {
		e.startRoundTimer()
	}
}

// Running reports whether the elapsed timer is active.
func (e *Engine) Running() bool {
	return e.stopElapsed != nil
}

// Phase returns preparation or in_session depending on the active round.
func (e *Engine) Phase() model.Phase {
	if e.segmentIndex == model.PreparationIndex {
		return model.PhasePreparation
	}
	return model.PhaseInSession
}

// SegmentIndex returns the active segment, or -1 during preparation.
func (e *Engine) SegmentIndex() int {
	return e.segmentIndex
}

// RoundValue returns the remaining seconds, or elapsed seconds when counting up.
func (e *Engine) RoundValue() int {
	return e.roundValue
}

// Elapsed returns the total active seconds.
func (e *Engine) Elapsed() int {
	return e.elapsed
}

// RoundDuration returns the total length of the active round.
func (e *Engine) RoundDuration() int {
	if e.segmentIndex == model.PreparationIndex {
		return e.blueprint.PreparationSeconds
	}
	if e.segmentIndex < 0 || e.segmentIndex >= len(e.blueprint.Segments) {
		return 0
	}
	return e.blueprint.Segments[e.segmentIndex].DurationSeconds
}

// Progress returns the completed fraction of the active round in [0, 1].
func (e *Engine) Progress() float64 {
	total := e.RoundDuration()
	if total <= 0 {
		return 0
	}
	done := e.roundValue
	if !e.countUp {
		done = total - e.roundValue
	}
	p := float64(done) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (e *Engine) roundFinished() bool {
	if e.countUp {
		return e.roundValue >= e.RoundDuration() && e.roundValue > 0
	}
	return e.roundValue <= 0 && e.RoundDuration() > 0
}

func (e *Engine) startRoundTimer() {
	e.roundGen++
	gen := e.roundGen
	e.stopRound = e.sched.Every(tickInterval, func() {
		e.tickRound(gen)
	})
}

func (e *Engine) clearRoundTimer() {
	if e.stopRound != nil {
		e.stopRound()
		e.stopRound = nil
	}
}

func (e *Engine) tickElapsed(gen uint64) {
	if gen != e.elapsedGen || e.stopElapsed == nil {
		return
	}
	e.elapsed++
}

func (e *Engine) tickRound(gen uint64) {
	if gen != e.roundGen || e.stopRound == nil {
		return
	}
	duration := e.RoundDuration()
	if e.countUp {
		if e.roundValue < duration {
			e.roundValue++
		}
		if e.roundValue < duration {
			return
		}
	} else {
		if e.roundValue > 0 {
			e.roundValue--
		}
		if e.roundValue > 0 {
			return
		}
	}
	e.clearRoundTimer()
	if e.onRoundEnd != nil {
		e.onRoundEnd()
	}
}
