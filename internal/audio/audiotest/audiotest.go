// Package audiotest provides an in-memory audio backend that records calls.
package audiotest

import (
	"context"
	"sync"

	"github.com/verte-zerg/mindful/internal/audio"
)

// Event is one recorded backend call.
type Event struct {
	Op  string
	URI string
}

// Backend records every load and sound operation in order.
type Backend struct {
	mu      sync.Mutex
	loadErr map[string]error
	playErr map[string]error
	events  []Event
	sounds  []*Sound
}

func NewBackend() *Backend {
	return &Backend{
		loadErr: map[string]error{},
		playErr: map[string]error{},
	}
}

// FailLoad makes every load of uri fail with err.
func (b *Backend) FailLoad(uri string, err error) {
	b.mu.Lock()
	b.loadErr[uri] = err
	b.mu.Unlock()
}

// FailPlay makes every play of uri fail with err.
func (b *Backend) FailPlay(uri string, err error) {
	b.mu.Lock()
	b.playErr[uri] = err
	b.mu.Unlock()
}

func (b *Backend) Load(ctx context.Context, uri string, opts audio.LoadOptions) (audio.Sound, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Event{Op: "load", URI: uri})
	if err := b.loadErr[uri]; err != nil {
		return nil, err
	}
	s := &Sound{backend: b, URI: uri, Opts: opts}
	b.sounds = append(b.sounds, s)
	return s, nil
}

// Events returns a copy of the recorded calls.
func (b *Backend) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Sounds returns every sound loaded so far.
func (b *Backend) Sounds() []*Sound {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Sound, len(b.sounds))
	copy(out, b.sounds)
	return out
}

// Last returns the most recently loaded sound for uri, or nil.
func (b *Backend) Last(uri string) *Sound {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.sounds) - 1; i >= 0; i-- {
		if b.sounds[i].URI == uri {
			return b.sounds[i]
		}
	}
	return nil
}

// Playing returns the URIs of loaded sounds currently playing.
func (b *Backend) Playing() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, s := range b.sounds {
		if s.playing && !s.unloaded {
			out = append(out, s.URI)
		}
	}
	return out
}

func (b *Backend) record(op, uri string) {
	b.events = append(b.events, Event{Op: op, URI: uri})
}

// Sound is a fake loaded sound. Its state is guarded by the backend lock.
type Sound struct {
	backend *Backend
	URI     string
	Opts    audio.LoadOptions

	playing  bool
	paused   bool
	unloaded bool
	replays  int
	handler  func(audio.Status)
}

func (s *Sound) OnStatus(fn func(audio.Status)) {
	s.backend.mu.Lock()
	s.handler = fn
	s.backend.mu.Unlock()
}

func (s *Sound) Play(ctx context.Context) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("play", s.URI)
	if err := b.playErr[s.URI]; err != nil {
		return err
	}
	s.playing = true
	s.paused = false
	return nil
}

func (s *Sound) Pause(ctx context.Context) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("pause", s.URI)
	if s.playing {
		s.playing = false
		s.paused = true
	}
	return nil
}

func (s *Sound) Stop(ctx context.Context) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("stop", s.URI)
	s.playing = false
	s.paused = false
	return nil
}

func (s *Sound) Unload(ctx context.Context) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("unload", s.URI)
	s.playing = false
	s.unloaded = true
	return nil
}

func (s *Sound) Replay(ctx context.Context) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("replay", s.URI)
	if err := b.playErr[s.URI]; err != nil {
		return err
	}
	s.replays++
	s.playing = true
	return nil
}

// Finish simulates natural completion of the current play.
func (s *Sound) Finish() {
	s.deliver(audio.Status{Finished: true})
}

// Fail simulates a playback error reported by the backend.
func (s *Sound) Fail(err error) {
	s.deliver(audio.Status{Err: err})
}

func (s *Sound) deliver(st audio.Status) {
	b := s.backend
	b.mu.Lock()
	s.playing = false
	handler := s.handler
	b.mu.Unlock()
	if handler != nil {
		handler(st)
	}
}

// Playing reports whether the sound is currently audible.
func (s *Sound) Playing() bool {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.playing
}

// Paused reports whether the sound was paused in place.
func (s *Sound) Paused() bool {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.paused
}

// Unloaded reports whether the sound was released.
func (s *Sound) Unloaded() bool {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.unloaded
}

// Replays returns how many times the sound was replayed.
func (s *Sound) Replays() int {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.replays
}
