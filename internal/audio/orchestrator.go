package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/verte-zerg/mindful/internal/model"
)

// Channel identifies one of the two independent sound channels.
type Channel int

const (
	ChannelMeditation Channel = iota
	ChannelSegmentation
)

func (c Channel) String() string {
	switch c {
	case ChannelMeditation:
		return "meditation"
	case ChannelSegmentation:
		return "segmentation"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

type channelState struct {
	sound Sound
	plays int
}

// Orchestrator manages the meditation and segmentation channels. It never
// panics or returns errors; failures go to the error sink.
type Orchestrator struct {
	backend   Backend
	blueprint model.Blueprint
	onError   func(string)
	logger    *slog.Logger

	mu       sync.Mutex
	enabled  bool
	channels [2]channelState
}

// NewOrchestrator builds an orchestrator for one session blueprint.
func NewOrchestrator(backend Backend, bp model.Blueprint, onError func(string), logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		backend:   backend,
		blueprint: bp,
		onError:   onError,
		logger:    logger,
		enabled:   true,
	}
}

// OutputVolume maps a 0..5 config volume to the backend's 0..1 range.
func OutputVolume(volume int) float64 {
	return float64(volume) / model.MaxVolume
}

// PlayMeditationSound loads and starts the ambient sound.
func (o *Orchestrator) PlayMeditationSound(ctx context.Context) {
	med := o.blueprint.MeditationSound
	limit := 0
	if med.RepetitionPolicy == model.RepeatCount {
		limit = med.RepetitionCount
	}
	o.play(ctx, ChannelMeditation, med.URI, LoadOptions{
		Volume:  OutputVolume(med.Volume),
		Looping: med.RepetitionPolicy == model.RepeatForever,
		Origin:  med.Origin,
	}, limit)
}

// PlaySegmentationSound loads and starts the segment cue.
func (o *Orchestrator) PlaySegmentationSound(ctx context.Context) {
	seg := o.blueprint.SegmentationSound
	limit := seg.RepetitionCount
	if limit < 1 {
		limit = 1
	}
	o.play(ctx, ChannelSegmentation, seg.URI, LoadOptions{
		Volume: OutputVolume(seg.Volume),
		Origin: model.OriginSystem,
	}, limit)
}

// PauseMeditationSound pauses the ambient sound in place.
func (o *Orchestrator) PauseMeditationSound(ctx context.Context) {
	o.pause(ctx, ChannelMeditation)
}

// ResumeMeditationSound resumes a paused ambient sound.
func (o *Orchestrator) ResumeMeditationSound(ctx context.Context) {
	o.resume(ctx, ChannelMeditation)
}

// StopAndUnloadMeditationSound releases the ambient sound.
func (o *Orchestrator) StopAndUnloadMeditationSound(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.releaseLocked(ctx, ChannelMeditation, true)
}

// PauseSegmentationSound pauses the segment cue in place.
func (o *Orchestrator) PauseSegmentationSound(ctx context.Context) {
	o.pause(ctx, ChannelSegmentation)
}

// ResumeSegmentationSound resumes a paused segment cue.
func (o *Orchestrator) ResumeSegmentationSound(ctx context.Context) {
	o.resume(ctx, ChannelSegmentation)
}

// StopAndUnloadSegmentationSound releases the segment cue.
func (o *Orchestrator) StopAndUnloadSegmentationSound(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.releaseLocked(ctx, ChannelSegmentation, true)
}

// SetSoundEnabled toggles all sound. Disabling releases both channels.
func (o *Orchestrator) SetSoundEnabled(ctx context.Context, enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = enabled
	if !enabled {
		o.releaseLocked(ctx, ChannelMeditation, true)
		o.releaseLocked(ctx, ChannelSegmentation, true)
	}
}

// SoundEnabled reports the kill switch state.
func (o *Orchestrator) SoundEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// Loaded reports whether a sound is currently held on the channel.
func (o *Orchestrator) Loaded(ch Channel) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channels[ch].sound != nil
}

func (o *Orchestrator) play(ctx context.Context, ch Channel, uri string, opts LoadOptions, limit int) {
	o.mu.Lock()
	msg := o.playLocked(ctx, ch, uri, opts, limit)
	o.mu.Unlock()
	o.report(msg)
}

func (o *Orchestrator) playLocked(ctx context.Context, ch Channel, uri string, opts LoadOptions, limit int) string {
	if !o.enabled || strings.TrimSpace(uri) == "" || o.backend == nil {
		return ""
	}
	o.releaseLocked(ctx, ch, true)

	sound, err := o.backend.Load(ctx, uri, opts)
	if err != nil {
		return playbackError(ch, err)
	}
	state := &o.channels[ch]
	state.sound = sound
	state.plays = 1
	sound.OnStatus(func(st Status) {
		o.handleStatus(sound, ch, limit, st)
	})
	if err := sound.Play(ctx); err != nil {
		o.releaseLocked(ctx, ch, false)
		return playbackError(ch, err)
	}
	o.logger.Debug("sound started", "channel", ch.String(), "uri", uri, "volume", opts.Volume)
	return ""
}

func (o *Orchestrator) pause(ctx context.Context, ch Channel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sound := o.channels[ch].sound
	if sound == nil {
		return
	}
	if err := sound.Pause(ctx); err != nil {
		o.logger.Warn("failed to pause sound", "channel", ch.String(), "error", err)
	}
}

func (o *Orchestrator) resume(ctx context.Context, ch Channel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sound := o.channels[ch].sound
	if sound == nil {
		return
	}
	if err := sound.Play(ctx); err != nil {
		o.logger.Warn("failed to resume sound", "channel", ch.String(), "error", err)
	}
}

// releaseLocked drops the channel's sound. Stop is skipped for sounds that
// already finished on their own.
func (o *Orchestrator) releaseLocked(ctx context.Context, ch Channel, stop bool) {
	state := &o.channels[ch]
	sound := state.sound
	state.sound = nil
	state.plays = 0
	if sound == nil {
		return
	}
	if stop {
		if err := sound.Stop(ctx); err != nil {
			o.logger.Debug("failed to stop sound", "channel", ch.String(), "error", err)
		}
	}
	if err := sound.Unload(ctx); err != nil {
		o.logger.Debug("failed to unload sound", "channel", ch.String(), "error", err)
	}
}

func (o *Orchestrator) handleStatus(sound Sound, ch Channel, limit int, st Status) {
	o.mu.Lock()
	msg := o.handleStatusLocked(sound, ch, limit, st)
	o.mu.Unlock()
	o.report(msg)
}

func (o *Orchestrator) handleStatusLocked(sound Sound, ch Channel, limit int, st Status) string {
	state := &o.channels[ch]
	// The channel may have been released or replaced since this sound
	// reported; only the current instance may drive repeats.
	if state.sound != sound {
		return ""
	}
	ctx := context.Background()
	if st.Err != nil {
		o.releaseLocked(ctx, ch, false)
		return playbackError(ch, st.Err)
	}
	if !st.Finished {
		return ""
	}
	if limit == 0 || state.plays < limit {
		state.plays++
		if err := sound.Replay(ctx); err != nil {
			o.releaseLocked(ctx, ch, false)
			return fmt.Sprintf("%s sound replay error: %v", capitalize(ch.String()), err)
		}
		return ""
	}
	o.releaseLocked(ctx, ch, false)
	return ""
}

func (o *Orchestrator) report(msg string) {
	if msg == "" {
		return
	}
	o.logger.Warn("audio error", "message", msg)
	if o.onError != nil {
		o.onError(msg)
	}
}

func playbackError(ch Channel, err error) string {
	return fmt.Sprintf("%s sound playback error: %v", capitalize(ch.String()), err)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
