// Package tui provides the Bubble Tea session window.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/mindful/internal/lifecycle"
	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/session"
)

const (
	defaultRefresh = 250 * time.Millisecond
	barFull        = "█"
	barEmpty       = "░"
	maxBarWidth    = 48
)

// Session is the part of session.Runner the window drives.
type Session interface {
	TogglePause()
	SetSoundEnabled(enabled bool)
	Terminate(ctx context.Context, confirmed bool) (model.MeditationLog, bool, error)
	Close()
	Snapshot() session.Snapshot
	DismissNotice()
}

// DiarySink stores the optional note written after a session.
type DiarySink interface {
	AddDiaryEntry(ctx context.Context, entry model.DiaryEntry) error
}

// AppStatePublisher receives focus changes of the terminal.
type AppStatePublisher interface {
	Publish(state lifecycle.State)
}

// Options configures the window. All fields are optional.
type Options struct {
	Diary     DiarySink
	Lifecycle AppStatePublisher
	Now       func() time.Time
	Refresh   time.Duration
}

// Result describes how the window ended.
type Result struct {
	Log        model.MeditationLog
	Logged     bool
	DiarySaved bool
	Err        error
}

type mode int

const (
	modeRunning mode = iota
	modeConfirm
	modeDiary
	modeDone
)

type tickMsg time.Time

// Model implements the Bubble Tea session window.
type Model struct {
	ctx     context.Context
	session Session
	opts    Options

	width  int
	height int

	snap   session.Snapshot
	mode   mode
	diary  textinput.Model
	result Result
	errMsg string
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	clockStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	pausedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	barFilledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	barPendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
)

// NewModel constructs the window for a started session.
func NewModel(ctx context.Context, s Session, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Refresh <= 0 {
		opts.Refresh = defaultRefresh
	}
	input := textinput.New()
	input.Placeholder = "How was your session?"
	input.CharLimit = 2000
	input.Prompt = "> "
	return &Model{
		ctx:     ctx,
		session: s,
		opts:    opts,
		snap:    s.Snapshot(),
		diary:   input,
	}
}

// Result returns the outcome once the program has exited.
func (m *Model) Result() Result {
	return m.result
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.FocusMsg:
		m.publish(lifecycle.Active)
		return m, nil
	case tea.BlurMsg:
		m.publish(lifecycle.Inactive)
		return m, nil
	case tickMsg:
		if m.mode == modeDone {
			return m, nil
		}
		m.snap = m.session.Snapshot()
		if (m.mode == modeRunning || m.mode == modeConfirm) && m.snap.Phase == model.PhaseTerminated {
			return m, m.finish()
		}
		return m, m.tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.session.Close()
			m.mode = modeDone
			return m, tea.Quit
		}
		switch m.mode {
		case modeDiary:
			return m, m.updateDiary(msg)
		case modeConfirm:
			return m, m.updateConfirm(msg)
		case modeRunning:
			return m, m.updateRunning(msg)
		}
		return m, nil
	default:
		if m.mode == modeDiary {
			var cmd tea.Cmd
			m.diary, cmd = m.diary.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

func (m *Model) publish(state lifecycle.State) {
	if m.opts.Lifecycle != nil {
		m.opts.Lifecycle.Publish(state)
	}
}

func (m *Model) updateRunning(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeySpace:
		m.session.TogglePause()
	case tea.KeyEsc:
		m.mode = modeConfirm
	case tea.KeyRunes:
		switch strings.ToLower(string(msg.Runes)) {
		case "p", " ":
			m.session.TogglePause()
		case "m":
			m.session.SetSoundEnabled(!m.snap.SoundEnabled)
		case "x":
			m.session.DismissNotice()
		case "q":
			m.mode = modeConfirm
		}
	}
	m.snap = m.session.Snapshot()
	return nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		return m.finish()
	case tea.KeyEsc:
		m.mode = modeRunning
	case tea.KeyRunes:
		switch strings.ToLower(string(msg.Runes)) {
		case "y":
			return m.finish()
		case "n", "q":
			m.mode = modeRunning
		}
	}
	return nil
}

func (m *Model) updateDiary(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeDone
		return tea.Quit
	case tea.KeyEnter:
		content := strings.TrimSpace(m.diary.Value())
		if content == "" {
			m.mode = modeDone
			return tea.Quit
		}
		entry := model.DiaryEntry{Timestamp: model.FormatTimestamp(m.opts.Now()), Content: content}
		if err := m.opts.Diary.AddDiaryEntry(m.ctx, entry); err != nil {
			m.errMsg = fmt.Sprintf("Could not save note: %v", err)
			return nil
		}
		m.result.DiarySaved = true
		m.mode = modeDone
		return tea.Quit
	}
	var cmd tea.Cmd
	m.diary, cmd = m.diary.Update(msg)
	return cmd
}

// finish logs the session and either opens the diary prompt or quits.
func (m *Model) finish() tea.Cmd {
	entry, logged, err := m.session.Terminate(m.ctx, true)
	m.snap = m.session.Snapshot()
	m.result.Log = entry
	m.result.Logged = logged
	if err != nil {
		m.result.Err = err
		m.errMsg = err.Error()
	}
	if logged && m.snap.EnableDiaryNote && m.opts.Diary != nil {
		m.mode = modeDiary
		return m.diary.Focus()
	}
	m.mode = modeDone
	return tea.Quit
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.mode == modeDone {
		return ""
	}
	contentWidth := m.width
	if contentWidth <= 0 || contentWidth > maxBarWidth {
		contentWidth = maxBarWidth
	}

	lines := []string{}
	if m.snap.TimerName != "" {
		lines = append(lines, titleStyle.Render(m.snap.TimerName), "")
	}
	label := labelStyle
	if m.snap.Phase == model.PhasePaused {
		label = pausedStyle
	}
	lines = append(lines,
		label.Render(PhaseLabel(m.snap)),
		clockStyle.Render(FormatClock(m.snap.RoundValue)),
		renderStyledRunes(buildBar(m.snap.Progress, contentWidth)),
	)
	if pos := segmentPosition(m.snap); pos != "" {
		lines = append(lines, pausedStyle.Render(pos))
	}
	if !m.snap.SoundEnabled {
		lines = append(lines, pausedStyle.Render("Sound off"))
	}
	if m.snap.Notice != "" {
		lines = append(lines, "", wrapStyledRunes(buildStyledText(m.snap.Notice, noticeStyle), contentWidth))
	}
	if m.errMsg != "" {
		lines = append(lines, "", wrapStyledRunes(buildStyledText(m.errMsg, noticeStyle), contentWidth))
	}
	switch m.mode {
	case modeConfirm:
		lines = append(lines, "", labelStyle.Render("End session? (y/n)"))
	case modeDiary:
		m.diary.Width = contentWidth - len(m.diary.Prompt)
		lines = append(lines, "", labelStyle.Render("Diary note"), m.diary.View())
	}
	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	footer := footerStyle.Render(m.footer())
	if m.width == 0 || m.height < 3 {
		return content + "\n\n" + footer
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) footer() string {
	switch m.mode {
	case modeConfirm:
		return "y end and log · n keep going"
	case modeDiary:
		return "enter save · esc skip"
	}
	segments := []string{}
	if m.snap.Phase == model.PhasePaused {
		segments = append(segments, "space resume")
	} else {
		segments = append(segments, "space pause")
	}
	if m.snap.SoundEnabled {
		segments = append(segments, "m mute")
	} else {
		segments = append(segments, "m unmute")
	}
	if m.snap.Notice != "" {
		segments = append(segments, "x dismiss")
	}
	segments = append(segments, "q end")
	return strings.Join(segments, " · ")
}

// PhaseLabel names what the session is doing.
func PhaseLabel(s session.Snapshot) string {
	switch s.Phase {
	case model.PhasePaused:
		return "Paused"
	case model.PhasePreparation:
		return "Preparation"
	case model.PhaseInSession:
		return fmt.Sprintf("Segment %d", s.SegmentIndex+1)
	case model.PhaseTerminated:
		return "Finished"
	default:
		return "Ready"
	}
}

func segmentPosition(s session.Snapshot) string {
	if s.SegmentCount < 2 || s.SegmentIndex < 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", s.SegmentIndex+1, s.SegmentCount)
}

// FormatClock renders seconds as MM:SS, or H:MM:SS from one hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	mnt := (seconds % 3600) / 60
	sec := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, sec)
	}
	return fmt.Sprintf("%02d:%02d", mnt, sec)
}
