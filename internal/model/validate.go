package model

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// ErrInvalidLog is returned for meditation logs that must not be stored or aggregated.
var ErrInvalidLog = errors.New("invalid meditation log")

var reminderTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidationErrors maps a field key to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, v[k])
	}
	return strings.Join(msgs, "; ")
}

// ValidateBlueprint checks the rules the timing engine relies on.
func ValidateBlueprint(b Blueprint) ValidationErrors {
	errs := ValidationErrors{}
	if b.PreparationSeconds < 0 {
		errs["preparationTime"] = "Preparation time must be an integer >= 0."
	}

	seg := b.SegmentationSound
	if strings.TrimSpace(seg.URI) != "" {
		if seg.RepetitionCount < 1 || seg.RepetitionCount > 3 {
			errs["segmentationSound_repetition"] = "Repetition: integer 1-3 required."
		}
		if seg.Volume < 0 || seg.Volume > MaxVolume {
			errs["segmentationSound_volume"] = "Volume: integer 0-5 required."
		}
	}

	med := b.MeditationSound
	if strings.TrimSpace(med.URI) != "" {
		if med.Origin != OriginSystem && med.Origin != OriginUserFile {
			errs["meditationSound_origin"] = "Sound origin invalid."
		}
		switch med.RepetitionPolicy {
		case RepeatForever:
		case RepeatCount:
			if med.RepetitionCount < 1 {
				errs["meditationSound_repetitionCount"] = "Repetition count required (>=1) for count type."
			}
		default:
			errs["meditationSound_repetitionType"] = "Repetition type invalid."
		}
		if med.Volume < 0 || med.Volume > MaxVolume {
			errs["meditationSound_volume"] = "Volume: integer 0-5 required."
		}
	}

	if len(b.Segments) < MinSegments || len(b.Segments) > MaxSegments {
		errs["segments_count"] = "1-4 segments required."
	}
	for i, s := range b.Segments {
		if s.DurationSeconds < 1 {
			errs[fmt.Sprintf("segment_%d_duration", i)] = fmt.Sprintf("Segment #%d: Duration must be integer >= 1.", i+1)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateTimer checks a stored timer definition including its blueprint.
func ValidateTimer(t Timer) ValidationErrors {
	errs := ValidateBlueprint(t.Blueprint)
	if errs == nil {
		errs = ValidationErrors{}
	}
	if strings.TrimSpace(t.Name) == "" {
		errs["name"] = "Name is required."
	}
	if t.DailyReminderEnabled && !reminderTimePattern.MatchString(t.ReminderTime) {
		errs["reminderTime"] = `Reminder time required ("HH:mm" 24h format) when reminder is enabled.`
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ParseTimestamp parses an ISO8601 timestamp as stored in logs and diary entries.
func ParseTimestamp(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

// FormatTimestamp renders a time the way logs and diary entries store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ValidateLog rejects logs with a malformed timestamp or a non-positive duration.
func ValidateLog(l MeditationLog) error {
	if _, err := ParseTimestamp(l.Timestamp); err != nil {
		return fmt.Errorf("%w: timestamp %q: %v", ErrInvalidLog, l.Timestamp, err)
	}
	if l.Duration < 1 {
		return fmt.Errorf("%w: duration must be >= 1, got %d", ErrInvalidLog, l.Duration)
	}
	return nil
}

// ValidDuration reports whether a raw duration value can be aggregated.
func ValidDuration(seconds float64) bool {
	return !math.IsNaN(seconds) && !math.IsInf(seconds, 0) && seconds > 0
}

// ErrInvalidDiaryEntry is returned for diary entries that must not be stored.
var ErrInvalidDiaryEntry = errors.New("invalid diary entry")

// ValidateDiaryEntry requires a parseable timestamp and non-blank content.
func ValidateDiaryEntry(e DiaryEntry) error {
	if _, err := ParseTimestamp(e.Timestamp); err != nil {
		return fmt.Errorf("%w: timestamp %q: %v", ErrInvalidDiaryEntry, e.Timestamp, err)
	}
	if strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: entry content is required", ErrInvalidDiaryEntry)
	}
	return nil
}
