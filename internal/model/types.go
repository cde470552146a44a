// Package model defines shared data structures.
package model

import "time"

// SoundOrigin tells where a sound URI points to.
type SoundOrigin string

const (
	OriginSystem   SoundOrigin = "system"
	OriginUserFile SoundOrigin = "user_file"
)

// RepetitionPolicy controls how often the meditation sound is played.
type RepetitionPolicy string

const (
	RepeatForever RepetitionPolicy = "forever"
	RepeatCount   RepetitionPolicy = "count"
)

// MaxVolume is the upper bound of the volume scale used in configs.
const MaxVolume = 5

const (
	MinSegments = 1
	MaxSegments = 4
)

// SegmentationSound is the cue played at segment boundaries.
type SegmentationSound struct {
	URI             string `json:"uri"`
	RepetitionCount int    `json:"repetition"`
	Volume          int    `json:"volume"`
}

// MeditationSound is the ambient sound played through the session.
type MeditationSound struct {
	URI              string           `json:"uri"`
	Origin           SoundOrigin      `json:"origin"`
	RepetitionPolicy RepetitionPolicy `json:"repetitionType"`
	RepetitionCount  int              `json:"repetitionCount,omitempty"`
	Volume           int              `json:"volume"`
}

// Segment is one timed unit of a session.
type Segment struct {
	DurationSeconds int `json:"duration"`
}

// Blueprint describes a configured session. A running session works on a
// Clone so edits to the stored timer never reach it.
type Blueprint struct {
	PreparationSeconds int
	SegmentationSound  SegmentationSound
	MeditationSound    MeditationSound
	Segments           []Segment
}

// Clone returns a deep copy of the blueprint.
func (b Blueprint) Clone() Blueprint {
	out := b
	out.Segments = make([]Segment, len(b.Segments))
	copy(out.Segments, b.Segments)
	return out
}

// HasPreparation reports whether the session starts with a preparation round.
func (b Blueprint) HasPreparation() bool {
	return b.PreparationSeconds > 0
}

// TotalSeconds is the planned length of the session including preparation.
func (b Blueprint) TotalSeconds() int {
	total := b.PreparationSeconds
	for _, seg := range b.Segments {
		total += seg.DurationSeconds
	}
	return total
}

// Timer is a stored session definition.
type Timer struct {
	ID                   string
	Name                 string
	Blueprint            Blueprint
	DailyReminderEnabled bool
	ReminderTime         string
	EnableDiaryNote      bool
}

// LockedSettings is the snapshot of user preferences taken at session start.
type LockedSettings struct {
	CountUp      bool
	KeepScreenOn bool
	DNDEnabled   bool
	SoundEnabled bool
}

// MeditationLog records a performed session. Timestamp is the session start.
type MeditationLog struct {
	Timestamp string `yaml:"timestamp"`
	Duration  int    `yaml:"duration"`
}

// DiaryEntry is a free-form reflection note.
type DiaryEntry struct {
	Timestamp string `yaml:"timestamp"`
	Content   string `yaml:"content"`
}

// StatsSummary aggregates a set of meditation logs.
type StatsSummary struct {
	TotalSessions          int     `yaml:"total_sessions"`
	TotalTimeMinutes       int     `yaml:"total_time_minutes"`
	AverageSessionDuration float64 `yaml:"average_session_duration_minutes"`
}

// StatsByPeriod is the breakdown for one calendar month.
type StatsByPeriod struct {
	Period        string `yaml:"period"`
	TotalSessions int    `yaml:"total_sessions"`
	TotalMinutes  int    `yaml:"total_minutes"`
}

// ChartData holds chart-ready labels and values, index aligned.
type ChartData struct {
	Labels []string
	Data   []int
}

// StatsConfig defines the period and locale for stats output.
type StatsConfig struct {
	Period string
	Locale string
	Now    time.Time
}

// Phase is the coarse state of a running session.
type Phase string

const (
	PhaseNotStarted  Phase = "not_started"
	PhasePreparation Phase = "preparation"
	PhaseInSession   Phase = "in_session"
	PhasePaused      Phase = "paused"
	PhaseTerminated  Phase = "terminated"
)

// PreparationIndex is the segment index used while the preparation round runs.
const PreparationIndex = -1
