// Package audio plays the two sound channels of a session: the ambient
// meditation sound and the segmentation cue.
package audio

import (
	"context"

	"github.com/verte-zerg/mindful/internal/model"
)

// Status is delivered by a loaded sound when playback ends on its own.
type Status struct {
	Finished bool
	Err      error
}

// LoadOptions configures a sound at load time.
type LoadOptions struct {
	// Volume is in [0, 1].
	Volume  float64
	Looping bool
	// Origin tells the backend how to resolve the URI.
	Origin model.SoundOrigin
}

// Sound is one loaded audio instance.
type Sound interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Unload(ctx context.Context) error
	Replay(ctx context.Context) error
	// OnStatus registers the handler for completion and error events. The
	// handler may run on any goroutine but never from inside another Sound
	// method.
	OnStatus(func(Status))
}

// Backend loads sounds by URI.
type Backend interface {
	Load(ctx context.Context, uri string, opts LoadOptions) (Sound, error)
}
