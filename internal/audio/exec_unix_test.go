//go:build unix

package audio

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func writeSound(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bell.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("failed to write sound: %v", err)
	}
	return path
}

func TestPlayerArgsSubstitutesPlaceholders(t *testing.T) {
	script := writeScript(t, "exit 0")
	args, err := playerArgs(script+" --volume {volume} {file}", "/tmp/bell.wav", 0.6)
	if err != nil {
		t.Fatalf("playerArgs: %v", err)
	}
	want := []string{script, "--volume", "60", "/tmp/bell.wav"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args %v, want %v", args, want)
	}
}

func TestPlayerArgsAppendsFileWhenMissing(t *testing.T) {
	script := writeScript(t, "exit 0")
	args, err := playerArgs(script, "/tmp/bell.wav", 1)
	if err != nil {
		t.Fatalf("playerArgs: %v", err)
	}
	if args[len(args)-1] != "/tmp/bell.wav" {
		t.Fatalf("expected file appended, got %v", args)
	}
}

func TestPlayerArgsUnknownPlayer(t *testing.T) {
	if _, err := playerArgs("definitely-not-a-player-binary {file}", "/tmp/bell.wav", 1); err == nil {
		t.Fatalf("expected error for missing player")
	}
}

func TestExecBackendMissingFile(t *testing.T) {
	b := &ExecBackend{Command: writeScript(t, "exit 0")}
	if _, err := b.Load(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), LoadOptions{}); err == nil {
		t.Fatalf("expected error for missing sound file")
	}
}

func TestExecSoundReportsNaturalCompletion(t *testing.T) {
	b := &ExecBackend{Command: writeScript(t, "exit 0") + " {file}"}
	sound, err := b.Load(context.Background(), writeSound(t), LoadOptions{Volume: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	done := make(chan Status, 1)
	sound.OnStatus(func(st Status) { done <- st })
	if err := sound.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	select {
	case st := <-done:
		if !st.Finished || st.Err != nil {
			t.Fatalf("unexpected status %+v", st)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}
}

func TestExecSoundStopIsSilent(t *testing.T) {
	b := &ExecBackend{Command: writeScript(t, "sleep 5") + " {file}"}
	sound, err := b.Load(context.Background(), writeSound(t), LoadOptions{Volume: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	done := make(chan Status, 1)
	sound.OnStatus(func(st Status) { done <- st })
	ctx := context.Background()
	if err := sound.Play(ctx); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := sound.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := sound.Unload(ctx); err != nil {
		t.Fatalf("Unload: %v", err)
	}
	select {
	case st := <-done:
		t.Fatalf("unexpected status after stop: %+v", st)
	case <-time.After(300 * time.Millisecond):
	}
	if err := sound.Play(ctx); err == nil {
		t.Fatalf("expected play after unload to fail")
	}
}
