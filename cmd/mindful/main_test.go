package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/mindful/internal/config"
	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/session"
)

func sampleTimers() []model.Timer {
	return []model.Timer{
		{ID: "a1b2c3d4-0000", Name: "Morning"},
		{ID: "a1ffeeee-0000", Name: "Evening"},
		{ID: "ffff0000-0000", Name: "Body scan"},
	}
}

func TestMatchTimer(t *testing.T) {
	timers := sampleTimers()
	cases := []struct {
		query string
		want  string
	}{
		{"a1b2c3d4-0000", "Morning"},
		{"morning", "Morning"},
		{"BODY SCAN", "Body scan"},
		{"ffff", "Body scan"},
		{"a1b", "Morning"},
	}
	for _, tc := range cases {
		got, err := matchTimer(timers, tc.query)
		if err != nil {
			t.Fatalf("query %q: %v", tc.query, err)
		}
		if got.Name != tc.want {
			t.Fatalf("query %q: expected %s, got %s", tc.query, tc.want, got.Name)
		}
	}
}

func TestMatchTimerErrors(t *testing.T) {
	timers := sampleTimers()
	if _, err := matchTimer(timers, "a1"); err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous error, got %v", err)
	}
	if _, err := matchTimer(timers, "nope"); !errors.Is(err, session.ErrTimerNotFound) {
		t.Fatalf("expected ErrTimerNotFound, got %v", err)
	}
	if _, err := matchTimer(timers, ""); err == nil {
		t.Fatalf("expected error for empty query with several timers")
	}
	if _, err := matchTimer(nil, "x"); err == nil {
		t.Fatalf("expected error with no timers")
	}
	only, err := matchTimer(timers[:1], "")
	if err != nil || only.Name != "Morning" {
		t.Fatalf("expected single timer, got %+v %v", only, err)
	}
}

func TestParseSeconds(t *testing.T) {
	cases := map[string]int{
		"90":    90,
		"0":     0,
		"10m":   600,
		"1m30s": 90,
		" 45s ": 45,
	}
	for raw, want := range cases {
		got, err := parseSeconds(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: expected %d, got %d", raw, want, got)
		}
	}
	for _, raw := range []string{"", "1.5s", "abc"} {
		if _, err := parseSeconds(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseRepeat(t *testing.T) {
	policy, count, err := parseRepeat("Forever")
	if err != nil || policy != model.RepeatForever || count != 0 {
		t.Fatalf("unexpected forever parse: %s %d %v", policy, count, err)
	}
	policy, count, err = parseRepeat("3")
	if err != nil || policy != model.RepeatCount || count != 3 {
		t.Fatalf("unexpected count parse: %s %d %v", policy, count, err)
	}
	if _, _, err := parseRepeat("twice"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDescribeTimer(t *testing.T) {
	timer := model.Timer{
		ID:   "abc",
		Name: "Morning",
		Blueprint: model.Blueprint{
			PreparationSeconds: 15,
			Segments:           []model.Segment{{DurationSeconds: 300}, {DurationSeconds: 600}},
			SegmentationSound:  model.SegmentationSound{URI: "bell.mp3", RepetitionCount: 2, Volume: 3},
			MeditationSound: model.MeditationSound{
				URI:              "rain.mp3",
				Origin:           model.OriginSystem,
				RepetitionPolicy: model.RepeatCount,
				RepetitionCount:  4,
				Volume:           5,
			},
		},
		DailyReminderEnabled: true,
		ReminderTime:         "07:30",
		EnableDiaryNote:      true,
	}
	out := strings.Join(describeTimer(timer), "\n")
	for _, want := range []string{"Segment 2:   10:00", "Total:       15:15", "bell.mp3 x2", "4 times", "Reminder:    07:30", "Diary note:  on"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestTimestampOrNow(t *testing.T) {
	got, err := timestampOrNow("2025-03-01T10:00:00+02:00")
	if err != nil {
		t.Fatalf("timestampOrNow: %v", err)
	}
	if got != "2025-03-01T08:00:00Z" {
		t.Fatalf("expected UTC timestamp, got %s", got)
	}
	if _, err := timestampOrNow("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
	if now, err := timestampOrNow(""); err != nil || now == "" {
		t.Fatalf("expected current time, got %q %v", now, err)
	}
}

func TestDiaryYAML(t *testing.T) {
	var buf bytes.Buffer
	entries := []model.DiaryEntry{{Timestamp: "2025-03-01T08:00:00Z", Content: "calm"}}
	if err := writeDiaryYAML(&buf, entries); err != nil {
		t.Fatalf("writeDiaryYAML: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "entries:") || !strings.Contains(out, "content: calm") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template does not decode: %v", err)
	}
	if cfg.Session.Sound != nil || cfg.Stats.Period != nil {
		t.Fatalf("expected every value commented out, got %+v", cfg)
	}
}

func TestOpenLoggerOff(t *testing.T) {
	off := "off"
	logger, closeLog, err := openLogger(&off)
	if err != nil || logger == nil {
		t.Fatalf("expected discard logger, got %v", err)
	}
	closeLog()
	bad := "loud"
	if _, _, err := openLogger(&bad); err == nil {
		t.Fatalf("expected invalid level error")
	}
}
