package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/mindful/internal/lifecycle"
	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/session"
)

type fakeSession struct {
	snap       session.Snapshot
	toggles    int
	sound      []bool
	terminated []bool
	closed     bool
	dismissed  bool
	logErr     error
}

func (f *fakeSession) TogglePause() {
	f.toggles++
	if f.snap.Phase == model.PhasePaused {
		f.snap.Phase = model.PhaseInSession
	} else {
		f.snap.Phase = model.PhasePaused
	}
}

func (f *fakeSession) SetSoundEnabled(enabled bool) {
	f.sound = append(f.sound, enabled)
	f.snap.SoundEnabled = enabled
}

func (f *fakeSession) Terminate(_ context.Context, confirmed bool) (model.MeditationLog, bool, error) {
	f.terminated = append(f.terminated, confirmed)
	f.snap.Phase = model.PhaseTerminated
	if f.logErr != nil {
		return model.MeditationLog{}, false, f.logErr
	}
	return model.MeditationLog{Timestamp: "2025-05-10T08:00:00Z", Duration: 600}, true, nil
}

func (f *fakeSession) Close() { f.closed = true }

func (f *fakeSession) Snapshot() session.Snapshot { return f.snap }

func (f *fakeSession) DismissNotice() {
	f.dismissed = true
	f.snap.Notice = ""
}

type diaryRecorder struct {
	entries []model.DiaryEntry
	err     error
}

func (d *diaryRecorder) AddDiaryEntry(_ context.Context, e model.DiaryEntry) error {
	if d.err != nil {
		return d.err
	}
	d.entries = append(d.entries, e)
	return nil
}

func runningSession() *fakeSession {
	return &fakeSession{snap: session.Snapshot{
		TimerName:     "Morning sit",
		Phase:         model.PhaseInSession,
		SegmentIndex:  1,
		SegmentCount:  3,
		RoundValue:    125,
		RoundDuration: 300,
		Progress:      0.6,
		SoundEnabled:  true,
	}}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestViewShowsSegmentAndClock(t *testing.T) {
	m := NewModel(context.Background(), runningSession(), Options{})
	out := m.View()
	for _, want := range []string{"Morning sit", "Segment 2", "02:05", "2/3", "space pause", "m mute", "q end"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestSpaceTogglesPause(t *testing.T) {
	s := runningSession()
	m := NewModel(context.Background(), s, Options{})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if s.toggles != 1 || m.snap.Phase != model.PhasePaused {
		t.Fatalf("expected pause, got toggles=%d phase=%s", s.toggles, m.snap.Phase)
	}
	if out := m.View(); !strings.Contains(out, "Paused") || !strings.Contains(out, "space resume") {
		t.Fatalf("expected paused view:\n%s", out)
	}
	m.Update(keyRunes("p"))
	if s.toggles != 2 || m.snap.Phase != model.PhaseInSession {
		t.Fatalf("expected resume, got toggles=%d phase=%s", s.toggles, m.snap.Phase)
	}
}

func TestMuteToggle(t *testing.T) {
	s := runningSession()
	m := NewModel(context.Background(), s, Options{})
	m.Update(keyRunes("m"))
	m.Update(keyRunes("m"))
	if len(s.sound) != 2 || s.sound[0] || !s.sound[1] {
		t.Fatalf("unexpected sound toggles %v", s.sound)
	}
}

func TestConfirmEndLogsAndQuits(t *testing.T) {
	s := runningSession()
	m := NewModel(context.Background(), s, Options{})
	if _, cmd := m.Update(keyRunes("q")); cmd != nil {
		t.Fatalf("q must only ask for confirmation")
	}
	if !strings.Contains(m.View(), "End session?") {
		t.Fatalf("expected confirmation prompt")
	}
	m.Update(keyRunes("n"))
	if len(s.terminated) != 0 || m.mode != modeRunning {
		t.Fatalf("declining must keep the session running")
	}
	m.Update(keyRunes("q"))
	_, cmd := m.Update(keyRunes("y"))
	if !isQuit(t, cmd) {
		t.Fatalf("expected quit after confirming")
	}
	if len(s.terminated) != 1 || !s.terminated[0] {
		t.Fatalf("expected confirmed terminate, got %v", s.terminated)
	}
	res := m.Result()
	if !res.Logged || res.Log.Duration != 600 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNaturalEndOpensDiary(t *testing.T) {
	s := runningSession()
	s.snap.EnableDiaryNote = true
	diary := &diaryRecorder{}
	now := time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)
	m := NewModel(context.Background(), s, Options{Diary: diary, Now: func() time.Time { return now }})

	s.snap.Phase = model.PhaseTerminated
	if _, cmd := m.Update(tickMsg(now)); isQuit(t, cmd) {
		t.Fatalf("diary prompt expected before quitting")
	}
	if m.mode != modeDiary || len(s.terminated) != 1 {
		t.Fatalf("expected diary mode after natural end, mode=%d terminated=%v", m.mode, s.terminated)
	}

	m.Update(keyRunes("calm"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(t, cmd) {
		t.Fatalf("expected quit after saving note")
	}
	if len(diary.entries) != 1 || diary.entries[0].Content != "calm" || diary.entries[0].Timestamp != "2025-05-10T08:30:00Z" {
		t.Fatalf("unexpected diary entries %+v", diary.entries)
	}
	if !m.Result().DiarySaved {
		t.Fatalf("expected diary saved in result")
	}
}

func TestDiaryErrorKeepsPrompt(t *testing.T) {
	s := runningSession()
	s.snap.EnableDiaryNote = true
	diary := &diaryRecorder{err: errors.New("disk full")}
	m := NewModel(context.Background(), s, Options{Diary: diary})
	m.Update(keyRunes("q"))
	m.Update(keyRunes("y"))
	m.Update(keyRunes("note"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if isQuit(t, cmd) || m.mode != modeDiary {
		t.Fatalf("failed save must keep the prompt open")
	}
	if !strings.Contains(m.View(), "disk full") {
		t.Fatalf("expected error in view")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); !isQuit(t, cmd) {
		t.Fatalf("esc must skip the note")
	}
}

func TestNoDiaryWithoutLog(t *testing.T) {
	s := runningSession()
	s.snap.EnableDiaryNote = true
	s.logErr = errors.New("locked")
	m := NewModel(context.Background(), s, Options{Diary: &diaryRecorder{}})
	m.Update(keyRunes("q"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !isQuit(t, cmd) {
		t.Fatalf("expected quit when nothing was logged")
	}
	if m.Result().Err == nil {
		t.Fatalf("expected log error in result")
	}
}

func TestCtrlCClosesWithoutLogging(t *testing.T) {
	s := runningSession()
	m := NewModel(context.Background(), s, Options{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(t, cmd) || !s.closed || len(s.terminated) != 0 {
		t.Fatalf("expected close without terminate, closed=%v terminated=%v", s.closed, s.terminated)
	}
}

func TestFocusPublishesAppState(t *testing.T) {
	hub := lifecycle.NewHub()
	var states []lifecycle.State
	hub.Subscribe(func(s lifecycle.State) { states = append(states, s) })
	m := NewModel(context.Background(), runningSession(), Options{Lifecycle: hub})
	m.Update(tea.BlurMsg{})
	m.Update(tea.FocusMsg{})
	if len(states) != 2 || states[0] != lifecycle.Inactive || states[1] != lifecycle.Active {
		t.Fatalf("unexpected states %v", states)
	}
}

func TestNoticeDismiss(t *testing.T) {
	s := runningSession()
	s.snap.Notice = "Meditation sound playback error: file missing"
	m := NewModel(context.Background(), s, Options{})
	if out := m.View(); !strings.Contains(out, "x dismiss") {
		t.Fatalf("expected dismiss hint:\n%s", out)
	}
	m.Update(keyRunes("x"))
	if !s.dismissed || strings.Contains(m.View(), "playback error") {
		t.Fatalf("expected notice dismissed")
	}
}

func TestPhaseLabel(t *testing.T) {
	cases := []struct {
		snap session.Snapshot
		want string
	}{
		{session.Snapshot{Phase: model.PhaseNotStarted}, "Ready"},
		{session.Snapshot{Phase: model.PhasePreparation, SegmentIndex: model.PreparationIndex}, "Preparation"},
		{session.Snapshot{Phase: model.PhaseInSession, SegmentIndex: 0}, "Segment 1"},
		{session.Snapshot{Phase: model.PhasePaused, SegmentIndex: 2}, "Paused"},
		{session.Snapshot{Phase: model.PhaseTerminated}, "Finished"},
	}
	for _, tc := range cases {
		if got := PhaseLabel(tc.snap); got != tc.want {
			t.Fatalf("PhaseLabel(%s) = %q, want %q", tc.snap.Phase, got, tc.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{-3: "00:00", 0: "00:00", 59: "00:59", 600: "10:00", 3725: "1:02:05"}
	for in, want := range cases {
		if got := FormatClock(in); got != want {
			t.Fatalf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}
