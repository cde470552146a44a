package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/verte-zerg/mindful/internal/model"
)

// DefaultPlayer is the command template used when none is configured.
const DefaultPlayer = "ffplay -nodisp -autoexit -loglevel quiet -volume {volume} {file}"

var errUnloaded = errors.New("sound is unloaded")

// ExecBackend plays sounds by running an external player process per play.
// Placeholders in Command: {file} is the resolved path, {volume} is 0..100.
type ExecBackend struct {
	Command string
	// Resolve maps a sound URI to a file path. Nil uses the URI as is.
	Resolve func(uri string, origin model.SoundOrigin) (string, error)
	Logger  *slog.Logger
}

// Load resolves the URI and checks the file exists. No process is started
// until Play.
func (b *ExecBackend) Load(ctx context.Context, uri string, opts LoadOptions) (Sound, error) {
	path := uri
	if b.Resolve != nil {
		resolved, err := b.Resolve(uri, opts.Origin)
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open sound: %w", err)
	}
	args, err := playerArgs(b.Command, path, opts.Volume)
	if err != nil {
		return nil, err
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &execSound{args: args, looping: opts.Looping, logger: logger}, nil
}

func playerArgs(template, path string, volume float64) ([]string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultPlayer
	}
	fields := strings.Fields(template)
	vol := strconv.Itoa(int(volume*100 + 0.5))
	hasFile := false
	args := make([]string, 0, len(fields)+1)
	for _, field := range fields {
		if strings.Contains(field, "{file}") {
			hasFile = true
		}
		field = strings.ReplaceAll(field, "{file}", path)
		field = strings.ReplaceAll(field, "{volume}", vol)
		args = append(args, field)
	}
	if !hasFile {
		args = append(args, path)
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("failed to find player %q: %w", args[0], err)
	}
	return args, nil
}

type execSound struct {
	args    []string
	looping bool
	logger  *slog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	paused   bool
	unloaded bool
	gen      uint64
	handler  func(Status)
}

func (s *execSound) OnStatus(fn func(Status)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// Play starts the player, or continues a paused one.
func (s *execSound) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unloaded {
		return errUnloaded
	}
	if s.cmd != nil {
		if !s.paused {
			return nil
		}
		if err := resumeProcess(s.cmd.Process); err != nil {
			return fmt.Errorf("failed to resume player: %w", err)
		}
		s.paused = false
		return nil
	}
	return s.startLocked()
}

func (s *execSound) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.paused {
		return nil
	}
	if err := suspendProcess(s.cmd.Process); err != nil {
		return fmt.Errorf("failed to pause player: %w", err)
	}
	s.paused = true
	return nil
}

func (s *execSound) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

func (s *execSound) Unload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.unloaded = true
	s.handler = nil
	return nil
}

// Replay restarts playback from the beginning.
func (s *execSound) Replay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unloaded {
		return errUnloaded
	}
	s.stopLocked()
	return s.startLocked()
}

func (s *execSound) startLocked() error {
	cmd := exec.Command(s.args[0], s.args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	s.gen++
	s.cmd = cmd
	s.paused = false
	go s.wait(cmd, s.gen)
	return nil
}

// stopLocked kills the process without waiting for it; wait sees the
// generation change and stays silent.
func (s *execSound) stopLocked() {
	if s.cmd == nil {
		return
	}
	s.gen++
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Debug("failed to kill player", "error", err)
	}
	s.cmd = nil
	s.paused = false
}

func (s *execSound) wait(cmd *exec.Cmd, gen uint64) {
	err := cmd.Wait()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cmd = nil
	if s.looping && err == nil {
		err = s.startLocked()
		if err == nil {
			s.mu.Unlock()
			return
		}
	}
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		return
	}
	if err != nil {
		handler(Status{Err: fmt.Errorf("player exited: %w", err)})
		return
	}
	handler(Status{Finished: true})
}
