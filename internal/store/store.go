// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/verte-zerg/mindful/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a timer, log or diary entry does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps SQLite access for timers, meditation logs and diary entries.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer keeps sqlite from returning SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS timers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			preparation_seconds INTEGER NOT NULL,
			segmentation_sound TEXT NOT NULL,
			meditation_sound TEXT NOT NULL,
			segments TEXT NOT NULL,
			daily_reminder_enabled INTEGER NOT NULL,
			reminder_time TEXT,
			enable_diary_note INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meditation_logs (
			timestamp TEXT PRIMARY KEY,
			duration INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS diary_entries (
			timestamp TEXT PRIMARY KEY,
			content TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_timers_name ON timers(name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type timerRow struct {
	segmentation string
	meditation   string
	segments     string
}

func encodeTimer(t model.Timer) (timerRow, error) {
	seg, err := json.Marshal(t.Blueprint.SegmentationSound)
	if err != nil {
		return timerRow{}, err
	}
	med, err := json.Marshal(t.Blueprint.MeditationSound)
	if err != nil {
		return timerRow{}, err
	}
	segments := t.Blueprint.Segments
	if segments == nil {
		segments = []model.Segment{}
	}
	list, err := json.Marshal(segments)
	if err != nil {
		return timerRow{}, err
	}
	return timerRow{segmentation: string(seg), meditation: string(med), segments: string(list)}, nil
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// CreateTimer validates and stores a new timer. The returned timer carries
// the generated ID.
func (s *Store) CreateTimer(ctx context.Context, t model.Timer) (model.Timer, error) {
	if errs := model.ValidateTimer(t); errs != nil {
		return model.Timer{}, errs
	}
	t.ID = uuid.NewString()
	row, err := encodeTimer(t)
	if err != nil {
		return model.Timer{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO timers (id, name, preparation_seconds, segmentation_sound, meditation_sound, segments, daily_reminder_enabled, reminder_time, enable_diary_note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Name,
		t.Blueprint.PreparationSeconds,
		row.segmentation,
		row.meditation,
		row.segments,
		t.DailyReminderEnabled,
		nullableString(t.ReminderTime),
		t.EnableDiaryNote,
	)
	if err != nil {
		return model.Timer{}, err
	}
	return t, nil
}

// UpdateTimer replaces a stored timer definition.
func (s *Store) UpdateTimer(ctx context.Context, t model.Timer) error {
	if errs := model.ValidateTimer(t); errs != nil {
		return errs
	}
	row, err := encodeTimer(t)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE timers SET name = ?, preparation_seconds = ?, segmentation_sound = ?, meditation_sound = ?, segments = ?,
			daily_reminder_enabled = ?, reminder_time = ?, enable_diary_note = ?
		 WHERE id = ?`,
		t.Name,
		t.Blueprint.PreparationSeconds,
		row.segmentation,
		row.meditation,
		row.segments,
		t.DailyReminderEnabled,
		nullableString(t.ReminderTime),
		t.EnableDiaryNote,
		t.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res, "timer", t.ID)
}

// DeleteTimer removes a timer by ID.
func (s *Store) DeleteTimer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res, "timer", id)
}

const timerColumns = `id, name, preparation_seconds, segmentation_sound, meditation_sound, segments, daily_reminder_enabled, reminder_time, enable_diary_note`

type scanner interface {
	Scan(dest ...any) error
}

func scanTimer(sc scanner) (model.Timer, error) {
	var t model.Timer
	var row timerRow
	var reminder sql.NullString
	if err := sc.Scan(&t.ID, &t.Name, &t.Blueprint.PreparationSeconds, &row.segmentation, &row.meditation, &row.segments,
		&t.DailyReminderEnabled, &reminder, &t.EnableDiaryNote); err != nil {
		return model.Timer{}, err
	}
	t.ReminderTime = reminder.String
	if err := json.Unmarshal([]byte(row.segmentation), &t.Blueprint.SegmentationSound); err != nil {
		return model.Timer{}, fmt.Errorf("timer %s: segmentation sound: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(row.meditation), &t.Blueprint.MeditationSound); err != nil {
		return model.Timer{}, fmt.Errorf("timer %s: meditation sound: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(row.segments), &t.Blueprint.Segments); err != nil {
		return model.Timer{}, fmt.Errorf("timer %s: segments: %w", t.ID, err)
	}
	return t, nil
}

// GetTimer returns the timer with the given ID or ErrNotFound.
func (s *Store) GetTimer(ctx context.Context, id string) (model.Timer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timerColumns+` FROM timers WHERE id = ?`, id)
	t, err := scanTimer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Timer{}, fmt.Errorf("timer %s: %w", id, ErrNotFound)
	}
	return t, err
}

// LookupTimer reports whether a timer exists alongside its definition.
func (s *Store) LookupTimer(ctx context.Context, id string) (model.Timer, bool, error) {
	t, err := s.GetTimer(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.Timer{}, false, nil
	}
	if err != nil {
		return model.Timer{}, false, err
	}
	return t, true, nil
}

// ListTimers returns all timers ordered by name.
func (s *Store) ListTimers(ctx context.Context) ([]model.Timer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+timerColumns+` FROM timers ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var timers []model.Timer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		timers = append(timers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return timers, nil
}

// AddLog stores a meditation log. Logs with a malformed timestamp or a
// non-positive duration are rejected with model.ErrInvalidLog. A log with
// an existing timestamp replaces the previous one.
func (s *Store) AddLog(ctx context.Context, l model.MeditationLog) error {
	if err := model.ValidateLog(l); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meditation_logs (timestamp, duration) VALUES (?, ?)
		 ON CONFLICT(timestamp) DO UPDATE SET duration = excluded.duration`,
		l.Timestamp, l.Duration)
	return err
}

// UpdateLogDuration corrects the duration of an existing log.
func (s *Store) UpdateLogDuration(ctx context.Context, timestamp string, duration int) error {
	if err := model.ValidateLog(model.MeditationLog{Timestamp: timestamp, Duration: duration}); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE meditation_logs SET duration = ? WHERE timestamp = ?`, duration, timestamp)
	if err != nil {
		return err
	}
	return expectAffected(res, "log", timestamp)
}

// DeleteLog removes the log with the given timestamp.
func (s *Store) DeleteLog(ctx context.Context, timestamp string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meditation_logs WHERE timestamp = ?`, timestamp)
	if err != nil {
		return err
	}
	return expectAffected(res, "log", timestamp)
}

// ListLogs returns all meditation logs ordered by timestamp.
func (s *Store) ListLogs(ctx context.Context) ([]model.MeditationLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp, duration FROM meditation_logs ORDER BY timestamp ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var logs []model.MeditationLog
	for rows.Next() {
		var l model.MeditationLog
		if err := rows.Scan(&l.Timestamp, &l.Duration); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// AddDiaryEntry stores a diary entry. Timestamps are unique.
func (s *Store) AddDiaryEntry(ctx context.Context, e model.DiaryEntry) error {
	if err := model.ValidateDiaryEntry(e); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO diary_entries (timestamp, content) VALUES (?, ?)`, e.Timestamp, e.Content)
	return err
}

// DeleteDiaryEntry removes the entry with the given timestamp.
func (s *Store) DeleteDiaryEntry(ctx context.Context, timestamp string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diary_entries WHERE timestamp = ?`, timestamp)
	if err != nil {
		return err
	}
	return expectAffected(res, "diary entry", timestamp)
}

// ListDiaryEntries returns diary entries, newest first.
func (s *Store) ListDiaryEntries(ctx context.Context) ([]model.DiaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp, content FROM diary_entries ORDER BY timestamp DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.DiaryEntry
	for rows.Next() {
		var e model.DiaryEntry
		if err := rows.Scan(&e.Timestamp, &e.Content); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func expectAffected(res sql.Result, kind, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, key, ErrNotFound)
	}
	return nil
}
