// Package session runs one meditation session: it owns the phase state
// machine and drives the timing engine, the audio channels and the OS
// integrations from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/mindful/internal/audio"
	"github.com/verte-zerg/mindful/internal/clock"
	"github.com/verte-zerg/mindful/internal/engine"
	"github.com/verte-zerg/mindful/internal/lifecycle"
	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/osint"
)

var (
	// ErrTimerNotFound is returned when the requested timer does not exist.
	ErrTimerNotFound = errors.New("session timer not found")
	// ErrAlreadyStarted is returned by Start on a runner that left not_started.
	ErrAlreadyStarted = errors.New("session already started")
)

// TimerSource looks up stored timers.
type TimerSource interface {
	LookupTimer(ctx context.Context, id string) (model.Timer, bool, error)
}

// LogSink persists completed sessions.
type LogSink interface {
	AddLog(ctx context.Context, log model.MeditationLog) error
}

// Deps are the collaborators of a Runner. Timers and Scheduler are required.
type Deps struct {
	Timers    TimerSource
	Logs      LogSink
	Settings  model.LockedSettings
	Backend   audio.Backend
	OS        osint.Integration
	Lifecycle lifecycle.Source
	Scheduler clock.Scheduler
	Clock     clock.Clock
	Logger    *slog.Logger
	// OnError receives user-facing audio notices. It runs outside the
	// runner's lock.
	OnError func(msg string)
}

// Snapshot is a read-only view of the session for rendering.
type Snapshot struct {
	TimerID       string
	TimerName     string
	Phase         model.Phase
	SegmentIndex  int
	SegmentCount  int
	RoundValue    int
	RoundDuration int
	Elapsed       int
	// Progress is the completed fraction of the current round. While paused
	// it is the fraction remembered at pause time; once terminated it is 1.
	Progress        float64
	CountUp         bool
	SoundEnabled    bool
	EnableDiaryNote bool
	StartedAt       time.Time
	Notice          string
}

// Runner is the single owner of one session. A terminated runner cannot be
// restarted; create a new one.
type Runner struct {
	deps    Deps
	timerID string
	logger  *slog.Logger
	effects *effectQueue

	mu             sync.Mutex
	ctx            context.Context
	loaded         bool
	timer          model.Timer
	settings       model.LockedSettings
	engine         *engine.Engine
	audio          *audio.Orchestrator
	phase          model.Phase
	resumePhase    model.Phase
	pausedProgress float64
	startedAt      time.Time
	everStarted    bool
	logged         bool
	closed         bool
	unsubscribe    func()

	noticeMu sync.Mutex
	notice   string
}

// New creates a runner for the given timer. Nothing is loaded until Load or
// Start.
func New(deps Deps, timerID string) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.OS == nil {
		deps.OS = osint.Noop{}
	}
	return &Runner{
		deps:    deps,
		timerID: timerID,
		logger:  logger.With("timer", timerID),
		effects: newEffectQueue(),
		phase:   model.PhaseNotStarted,
	}
}

// Load looks up the timer and locks its blueprint and the settings. It is
// called by Start when needed.
func (r *Runner) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(ctx)
}

func (r *Runner) loadLocked(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	if r.deps.Timers == nil || r.deps.Scheduler == nil {
		return fmt.Errorf("session runner is missing its timer source or scheduler")
	}
	t, ok, err := r.deps.Timers.LookupTimer(ctx, r.timerID)
	if err != nil {
		return fmt.Errorf("failed to load timer: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTimerNotFound, r.timerID)
	}
	if errs := model.ValidateBlueprint(t.Blueprint); errs != nil {
		return fmt.Errorf("timer %q is invalid: %w", t.Name, errs)
	}
	t.Blueprint = t.Blueprint.Clone()
	r.timer = t
	r.settings = r.deps.Settings
	r.ctx = context.WithoutCancel(ctx)
	r.engine = engine.New(t.Blueprint, r.settings, clock.Locked(r.deps.Scheduler, &r.mu), r.handleRoundEnd)
	r.audio = audio.NewOrchestrator(r.deps.Backend, t.Blueprint, r.reportError, r.logger)
	if !r.settings.SoundEnabled {
		r.audio.SetSoundEnabled(r.ctx, false)
	}
	r.loaded = true
	return nil
}

// Start begins the session: timers, ambient sound and OS integrations.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != model.PhaseNotStarted || r.closed {
		return ErrAlreadyStarted
	}
	if err := r.loadLocked(ctx); err != nil {
		return err
	}

	r.startedAt = r.deps.Clock.Now()
	r.everStarted = true
	r.engine.Start()
	r.phase = r.engine.Phase()
	settings := r.settings
	r.push(func(ctx context.Context) {
		r.audio.PlayMeditationSound(ctx)
		r.activateOS(ctx, settings)
	})
	if r.deps.Lifecycle != nil {
		r.unsubscribe = r.deps.Lifecycle.Subscribe(r.HandleAppState)
	}
	r.logger.Info("session started", "phase", string(r.phase), "segments", len(r.timer.Blueprint.Segments))
	return nil
}

// Pause stops the timers and silences the session. It is a no-op unless
// the session is in preparation or in_session.
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseLocked("user")
}

func (r *Runner) pauseLocked(reason string) {
	if r.phase != model.PhasePreparation && r.phase != model.PhaseInSession {
		return
	}
	r.pausedProgress = r.engine.Progress()
	r.resumePhase = r.phase
	r.engine.Pause()
	settings := r.settings
	r.push(func(ctx context.Context) {
		r.audio.PauseMeditationSound(ctx)
		r.audio.PauseSegmentationSound(ctx)
		r.deactivateOS(ctx, settings)
	})
	r.phase = model.PhasePaused
	r.logger.Info("session paused", "reason", reason, "elapsed", r.engine.Elapsed())
}

// Resume continues a paused session in the phase it was paused from.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumeLocked()
}

func (r *Runner) resumeLocked() {
	if r.phase != model.PhasePaused {
		return
	}
	r.engine.Resume()
	settings := r.settings
	r.push(func(ctx context.Context) {
		r.audio.ResumeMeditationSound(ctx)
		r.audio.ResumeSegmentationSound(ctx)
		r.activateOS(ctx, settings)
	})
	r.phase = r.resumePhase
	r.logger.Info("session resumed", "phase", string(r.phase))
}

// TogglePause pauses a running session or resumes a paused one.
func (r *Runner) TogglePause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == model.PhasePaused {
		r.resumeLocked()
		return
	}
	r.pauseLocked("user")
}

// HandleAppState reacts to the app leaving the foreground by pausing.
// Returning to the foreground never resumes on its own.
func (r *Runner) HandleAppState(state lifecycle.State) {
	if state != lifecycle.Inactive && state != lifecycle.Background {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseLocked(state.String())
}

// SetSoundEnabled mutes or unmutes the session. Unmuting reloads the
// ambient sound of a started session; a paused session keeps it paused.
func (r *Runner) SetSoundEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded || r.settings.SoundEnabled == enabled {
		return
	}
	r.settings.SoundEnabled = enabled
	live := r.phase != model.PhaseNotStarted && r.phase != model.PhaseTerminated
	paused := r.phase == model.PhasePaused
	r.push(func(ctx context.Context) {
		r.audio.SetSoundEnabled(ctx, enabled)
		if !enabled || !live {
			return
		}
		r.audio.PlayMeditationSound(ctx)
		if paused {
			r.audio.PauseMeditationSound(ctx)
		}
	})
}

// Terminate ends the session. With confirmed set, a session that ran for
// at least one second is logged exactly once, including after a natural
// end. The returned bool reports whether a log was written.
func (r *Runner) Terminate(ctx context.Context, confirmed bool) (model.MeditationLog, bool, error) {
	r.mu.Lock()
	if r.phase != model.PhaseTerminated {
		r.finishLocked("terminated")
	}
	var entry model.MeditationLog
	emit := false
	if confirmed && !r.logged && !r.closed && r.everStarted && r.engine != nil && r.engine.Elapsed() > 0 {
		entry = model.MeditationLog{
			Timestamp: model.FormatTimestamp(r.startedAt),
			Duration:  r.engine.Elapsed(),
		}
		r.logged = true
		emit = true
	}
	r.mu.Unlock()

	if !emit {
		return model.MeditationLog{}, false, nil
	}
	if r.deps.Logs == nil {
		return entry, false, nil
	}
	if err := r.deps.Logs.AddLog(ctx, entry); err != nil {
		r.logger.Error("failed to save meditation log", "error", err)
		return entry, false, fmt.Errorf("failed to save meditation log: %w", err)
	}
	r.logger.Info("meditation logged", "timestamp", entry.Timestamp, "duration", entry.Duration)
	return entry, true, nil
}

// Close releases every resource without logging and waits for pending
// side effects. It is safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	if !r.closed {
		if r.phase != model.PhaseTerminated {
			r.finishLocked("closed")
		}
		r.closed = true
		if r.unsubscribe != nil {
			r.unsubscribe()
			r.unsubscribe = nil
		}
	}
	r.mu.Unlock()
	r.effects.wait()
	r.effects.close()
}

// Wait blocks until all queued audio and OS side effects have run.
func (r *Runner) Wait() {
	r.effects.wait()
}

// Snapshot returns the current state for rendering.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	snap := Snapshot{
		TimerID:      r.timerID,
		Phase:        r.phase,
		CountUp:      r.settings.CountUp,
		SoundEnabled: r.settings.SoundEnabled,
		StartedAt:    r.startedAt,
	}
	if r.loaded {
		snap.TimerName = r.timer.Name
		snap.EnableDiaryNote = r.timer.EnableDiaryNote
		snap.SegmentCount = len(r.timer.Blueprint.Segments)
		snap.SegmentIndex = r.engine.SegmentIndex()
		snap.RoundValue = r.engine.RoundValue()
		snap.RoundDuration = r.engine.RoundDuration()
		snap.Elapsed = r.engine.Elapsed()
		switch r.phase {
		case model.PhasePaused:
			snap.Progress = r.pausedProgress
		case model.PhaseTerminated:
			snap.Progress = 1
		default:
			snap.Progress = r.engine.Progress()
		}
	}
	r.mu.Unlock()
	snap.Notice = r.Notice()
	return snap
}

// Notice returns the pending audio notice, if any.
func (r *Runner) Notice() string {
	r.noticeMu.Lock()
	defer r.noticeMu.Unlock()
	return r.notice
}

// DismissNotice clears the pending audio notice.
func (r *Runner) DismissNotice() {
	r.noticeMu.Lock()
	r.notice = ""
	r.noticeMu.Unlock()
}

// handleRoundEnd runs inside a scheduler tick with r.mu held.
func (r *Runner) handleRoundEnd() {
	if r.phase == model.PhaseTerminated {
		return
	}
	idx := r.engine.SegmentIndex()
	count := len(r.timer.Blueprint.Segments)
	switch {
	case idx == model.PreparationIndex && count > 0:
		r.engine.BeginRound(0)
		r.phase = model.PhaseInSession
		r.push(r.audio.PlaySegmentationSound)
	case idx+1 >= count:
		r.finishLocked("completed")
	default:
		r.engine.BeginRound(idx + 1)
		r.push(r.audio.PlaySegmentationSound)
	}
	r.logger.Debug("round ended", "segment", idx, "phase", string(r.phase))
}

// finishLocked moves to terminated: timers, then audio, then OS.
func (r *Runner) finishLocked(reason string) {
	if r.engine != nil {
		r.engine.Cleanup()
	}
	if r.loaded {
		settings := r.settings
		r.push(func(ctx context.Context) {
			r.audio.StopAndUnloadMeditationSound(ctx)
			r.audio.StopAndUnloadSegmentationSound(ctx)
			r.deactivateOS(ctx, settings)
		})
	}
	wasStarted := r.phase != model.PhaseNotStarted
	r.phase = model.PhaseTerminated
	if wasStarted {
		r.logger.Info("session ended", "reason", reason, "elapsed", r.engine.Elapsed())
	}
}

func (r *Runner) push(fn func(ctx context.Context)) {
	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	r.effects.push(func() { fn(ctx) })
}

func (r *Runner) activateOS(ctx context.Context, settings model.LockedSettings) {
	if settings.KeepScreenOn {
		if err := r.deps.OS.ActivateKeepAwake(ctx); err != nil {
			r.logger.Warn("keep-awake failed", "error", err)
		}
	}
	if settings.DNDEnabled {
		if err := r.deps.OS.ActivateDND(ctx); err != nil {
			r.logger.Warn("do-not-disturb failed", "error", err)
		}
	}
}

func (r *Runner) deactivateOS(ctx context.Context, settings model.LockedSettings) {
	if settings.KeepScreenOn {
		if err := r.deps.OS.DeactivateKeepAwake(ctx); err != nil {
			r.logger.Warn("keep-awake release failed", "error", err)
		}
	}
	if settings.DNDEnabled {
		if err := r.deps.OS.DeactivateDND(ctx); err != nil {
			r.logger.Warn("do-not-disturb release failed", "error", err)
		}
	}
}

func (r *Runner) reportError(msg string) {
	r.noticeMu.Lock()
	r.notice = msg
	r.noticeMu.Unlock()
	if r.deps.OnError != nil {
		r.deps.OnError(msg)
	}
}
