//go:build unix

package osint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func script(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestDNDRunsOnAndOffOnce(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "dnd.log")
	on := script(t, "on.sh", "echo on >> "+marker)
	off := script(t, "off.sh", "echo off >> "+marker)
	e := NewExec(Commands{DNDOn: on, DNDOff: off}, nil)
	ctx := context.Background()

	if err := e.DeactivateDND(ctx); err != nil {
		t.Fatalf("deactivate before activate: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := e.ActivateDND(ctx); err != nil {
			t.Fatalf("ActivateDND: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := e.DeactivateDND(ctx); err != nil {
			t.Fatalf("DeactivateDND: %v", err)
		}
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("failed to read marker: %v", err)
	}
	if got := strings.Fields(string(data)); strings.Join(got, ",") != "on,off" {
		t.Fatalf("unexpected command sequence %v", got)
	}
}

func TestDNDFailureIncludesOutput(t *testing.T) {
	on := script(t, "on.sh", "echo 'focus mode unavailable' >&2; exit 3")
	e := NewExec(Commands{DNDOn: on}, nil)
	err := e.ActivateDND(context.Background())
	if err == nil || !strings.Contains(err.Error(), "focus mode unavailable") {
		t.Fatalf("expected error with command output, got %v", err)
	}
}

func TestKeepAwakeLifecycle(t *testing.T) {
	e := NewExec(Commands{KeepAwake: script(t, "awake.sh", "sleep 30")}, nil)
	ctx := context.Background()
	if err := e.ActivateKeepAwake(ctx); err != nil {
		t.Fatalf("ActivateKeepAwake: %v", err)
	}
	if err := e.ActivateKeepAwake(ctx); err != nil {
		t.Fatalf("second ActivateKeepAwake: %v", err)
	}
	if !e.KeepAwakeActive() {
		t.Fatalf("expected keep-awake to run")
	}
	if err := e.DeactivateKeepAwake(ctx); err != nil {
		t.Fatalf("DeactivateKeepAwake: %v", err)
	}
	if e.KeepAwakeActive() {
		t.Fatalf("expected keep-awake to stop")
	}
	if err := e.DeactivateKeepAwake(ctx); err != nil {
		t.Fatalf("second DeactivateKeepAwake: %v", err)
	}
}

func TestKeepAwakeEarlyExitIsCleared(t *testing.T) {
	e := NewExec(Commands{KeepAwake: script(t, "awake.sh", "exit 0")}, nil)
	if err := e.ActivateKeepAwake(context.Background()); err != nil {
		t.Fatalf("ActivateKeepAwake: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for e.KeepAwakeActive() {
		if time.Now().After(deadline) {
			t.Fatalf("keep-awake state not cleared after exit")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEmptyCommandsAreNoops(t *testing.T) {
	e := NewExec(Commands{}, nil)
	ctx := context.Background()
	if err := e.ActivateKeepAwake(ctx); err != nil {
		t.Fatalf("ActivateKeepAwake: %v", err)
	}
	if err := e.ActivateDND(ctx); err != nil {
		t.Fatalf("ActivateDND: %v", err)
	}
	if e.KeepAwakeActive() {
		t.Fatalf("no process should run")
	}
}
