// Package osint drives the operating system integrations used while a
// session runs: keeping the display awake and toggling do-not-disturb.
package osint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// Integration is the OS collaborator. Every call is best-effort; callers
// log failures and carry on.
type Integration interface {
	ActivateKeepAwake(ctx context.Context) error
	DeactivateKeepAwake(ctx context.Context) error
	ActivateDND(ctx context.Context) error
	DeactivateDND(ctx context.Context) error
}

// Noop ignores every call.
type Noop struct{}

func (Noop) ActivateKeepAwake(context.Context) error   { return nil }
func (Noop) DeactivateKeepAwake(context.Context) error { return nil }
func (Noop) ActivateDND(context.Context) error         { return nil }
func (Noop) DeactivateDND(context.Context) error       { return nil }

// Commands configures the shell commands backing each integration. Empty
// commands disable the integration.
type Commands struct {
	// KeepAwake runs for as long as the display should stay on and is
	// killed on deactivation.
	KeepAwake string
	DNDOn     string
	DNDOff    string
}

// DefaultKeepAwake returns a platform keep-awake command, or "" if none is known.
func DefaultKeepAwake() string {
	switch runtime.GOOS {
	case "darwin":
		return "caffeinate -d"
	case "linux":
		return "systemd-inhibit --what=idle --who=mindful --why=meditation sleep infinity"
	default:
		return ""
	}
}

// Exec runs the configured commands.
type Exec struct {
	cmds   Commands
	logger *slog.Logger

	mu        sync.Mutex
	awake     *exec.Cmd
	dndActive bool
}

// NewExec runs cmds, logging failures to logger.
func NewExec(cmds Commands, logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exec{cmds: cmds, logger: logger}
}

// ActivateKeepAwake starts the keep-awake process unless it already runs.
func (e *Exec) ActivateKeepAwake(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.awake != nil {
		return nil
	}
	parts := strings.Fields(e.cmds.KeepAwake)
	if len(parts) == 0 {
		return nil
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start keep-awake: %w", err)
	}
	e.awake = cmd
	go func() {
		err := cmd.Wait()
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.awake == cmd {
			e.awake = nil
			e.logger.Warn("keep-awake exited early", "error", err)
		}
	}()
	e.logger.Debug("keep-awake active", "pid", cmd.Process.Pid)
	return nil
}

// DeactivateKeepAwake kills the keep-awake process if one runs.
func (e *Exec) DeactivateKeepAwake(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmd := e.awake
	if cmd == nil {
		return nil
	}
	e.awake = nil
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop keep-awake: %w", err)
	}
	return nil
}

// KeepAwakeActive reports whether the keep-awake process is running.
func (e *Exec) KeepAwakeActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.awake != nil
}

func (e *Exec) ActivateDND(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dndActive {
		return nil
	}
	if err := run(ctx, e.cmds.DNDOn); err != nil {
		return fmt.Errorf("failed to enable do-not-disturb: %w", err)
	}
	e.dndActive = true
	return nil
}

func (e *Exec) DeactivateDND(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dndActive {
		return nil
	}
	e.dndActive = false
	if err := run(ctx, e.cmds.DNDOff); err != nil {
		return fmt.Errorf("failed to disable do-not-disturb: %w", err)
	}
	return nil
}

func run(ctx context.Context, command string) error {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil
	}
	out, err := exec.CommandContext(ctx, parts[0], parts[1:]...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
