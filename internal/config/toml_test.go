package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Session.CountUp != nil {
		t.Fatalf("expected unset count-up")
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[session]
count-up = true
dnd = false

[audio]
player = "paplay {file}"

[stats]
period = "6M"
locale = "de-DE"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Session.CountUp == nil || !*cfg.Session.CountUp {
		t.Fatalf("expected count-up = true")
	}
	if cfg.Session.DND == nil || *cfg.Session.DND {
		t.Fatalf("expected dnd = false")
	}
	if cfg.Session.KeepScreenOn != nil {
		t.Fatalf("expected keep-screen-on unset")
	}
	if cfg.Audio.Player == nil || *cfg.Audio.Player != "paplay {file}" {
		t.Fatalf("unexpected player: %v", cfg.Audio.Player)
	}
	if cfg.Stats.Period == nil || *cfg.Stats.Period != "6M" {
		t.Fatalf("unexpected period: %v", cfg.Stats.Period)
	}
}

func TestLoadConfigRejectsEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
