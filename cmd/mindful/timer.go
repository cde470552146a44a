package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/stats"
	"github.com/verte-zerg/mindful/internal/tui"
)

const (
	defaultBellRepeat  = 1
	defaultBellVolume  = 3
	defaultSoundVolume = 3
)

var (
	timerName        string
	timerPrep        string
	timerSegments    []string
	timerBell        string
	timerBellRepeat  int
	timerBellVolume  int
	timerSound       string
	timerSoundOrigin string
	timerSoundRepeat string
	timerSoundVolume int
	timerReminder    string
	timerDiary       bool
)

func newTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Manage session timers",
	}
	cmd.AddCommand(newTimerAddCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List timers",
		Args:  cobra.NoArgs,
		RunE:  runTimerListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <timer>",
		Short: "Show a timer",
		Args:  cobra.ExactArgs(1),
		RunE:  runTimerShowCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <timer>",
		Short: "Delete a timer",
		Args:  cobra.ExactArgs(1),
		RunE:  runTimerRmCmd,
	})
	return cmd
}

func newTimerAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a timer",
		Args:  cobra.NoArgs,
		RunE:  runTimerAddCmd,
	}
	cmd.Flags().StringVar(&timerName, "name", "", "timer name")
	cmd.Flags().StringVar(&timerPrep, "prep", "0", "preparation time (seconds or duration like 30s)")
	cmd.Flags().StringArrayVar(&timerSegments, "segment", nil, "segment duration, repeat for up to 4 segments (e.g. 10m)")
	cmd.Flags().StringVar(&timerBell, "bell", "", "segmentation sound (system sound name)")
	cmd.Flags().IntVar(&timerBellRepeat, "bell-repeat", defaultBellRepeat, "segmentation sound repetitions (1-3)")
	cmd.Flags().IntVar(&timerBellVolume, "bell-volume", defaultBellVolume, "segmentation sound volume (0-5)")
	cmd.Flags().StringVar(&timerSound, "sound", "", "meditation sound (system sound name or file)")
	cmd.Flags().StringVar(&timerSoundOrigin, "sound-origin", string(model.OriginSystem), "meditation sound origin (system or user_file)")
	cmd.Flags().StringVar(&timerSoundRepeat, "sound-repeat", string(model.RepeatForever), "meditation sound repetition: forever or a count")
	cmd.Flags().IntVar(&timerSoundVolume, "sound-volume", defaultSoundVolume, "meditation sound volume (0-5)")
	cmd.Flags().StringVar(&timerReminder, "reminder", "", "daily reminder time (HH:mm)")
	cmd.Flags().BoolVar(&timerDiary, "diary", false, "ask for a diary note after the session")
	return cmd
}

func runTimerAddCmd(cmd *cobra.Command, _ []string) error {
	prep, err := parseSeconds(timerPrep)
	if err != nil {
		return fmt.Errorf("invalid --prep value: %w", err)
	}
	segments := make([]model.Segment, 0, len(timerSegments))
	for _, raw := range timerSegments {
		secs, err := parseSeconds(raw)
		if err != nil {
			return fmt.Errorf("invalid --segment value: %w", err)
		}
		segments = append(segments, model.Segment{DurationSeconds: secs})
	}
	policy, count, err := parseRepeat(timerSoundRepeat)
	if err != nil {
		return fmt.Errorf("invalid --sound-repeat value: %w", err)
	}

	timer := model.Timer{
		Name: strings.TrimSpace(timerName),
		Blueprint: model.Blueprint{
			PreparationSeconds: prep,
			Segments:           segments,
		},
		DailyReminderEnabled: timerReminder != "",
		ReminderTime:         timerReminder,
		EnableDiaryNote:      timerDiary,
	}
	if timerBell != "" {
		timer.Blueprint.SegmentationSound = model.SegmentationSound{
			URI:             timerBell,
			RepetitionCount: timerBellRepeat,
			Volume:          timerBellVolume,
		}
	}
	if timerSound != "" {
		timer.Blueprint.MeditationSound = model.MeditationSound{
			URI:              timerSound,
			Origin:           model.SoundOrigin(timerSoundOrigin),
			RepetitionPolicy: policy,
			RepetitionCount:  count,
			Volume:           timerSoundVolume,
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	created, err := st.CreateTimer(context.Background(), timer)
	if err != nil {
		return fmt.Errorf("failed to create timer: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), created.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runTimerListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	timers, err := st.ListTimers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list timers: %w", err)
	}
	if len(timers) == 0 {
		logErrln("No timers found. Create one with: mindful timer add --name <name> --segment 10m")
		return nil
	}
	rows := make([][]string, 0, len(timers))
	for _, t := range timers {
		rows = append(rows, []string{
			shortID(t.ID),
			t.Name,
			strconv.Itoa(len(t.Blueprint.Segments)),
			tui.FormatClock(t.Blueprint.TotalSeconds()),
		})
	}
	return writeLines(cmd, stats.FormatTable([]string{"ID", "Name", "Segments", "Total"}, rows, map[int]bool{2: true, 3: true}))
}

func runTimerShowCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	timer, err := resolveTimer(context.Background(), st, args[0])
	if err != nil {
		return err
	}
	return writeLines(cmd, describeTimer(timer))
}

func runTimerRmCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	timer, err := resolveTimer(ctx, st, args[0])
	if err != nil {
		return err
	}
	if err := st.DeleteTimer(ctx, timer.ID); err != nil {
		return fmt.Errorf("failed to delete timer: %w", err)
	}
	logErrf("Deleted %s (%s)\n", timer.Name, shortID(timer.ID))
	return nil
}

func describeTimer(t model.Timer) []string {
	b := t.Blueprint
	lines := []string{
		fmt.Sprintf("ID:          %s", t.ID),
		fmt.Sprintf("Name:        %s", t.Name),
		fmt.Sprintf("Preparation: %s", tui.FormatClock(b.PreparationSeconds)),
	}
	for i, seg := range b.Segments {
		lines = append(lines, fmt.Sprintf("Segment %d:   %s", i+1, tui.FormatClock(seg.DurationSeconds)))
	}
	lines = append(lines, fmt.Sprintf("Total:       %s", tui.FormatClock(b.TotalSeconds())))
	if b.SegmentationSound.URI != "" {
		s := b.SegmentationSound
		lines = append(lines, fmt.Sprintf("Bell:        %s x%d, volume %d", s.URI, s.RepetitionCount, s.Volume))
	}
	if b.MeditationSound.URI != "" {
		s := b.MeditationSound
		repeat := string(s.RepetitionPolicy)
		if s.RepetitionPolicy == model.RepeatCount {
			repeat = fmt.Sprintf("%d times", s.RepetitionCount)
		}
		lines = append(lines, fmt.Sprintf("Sound:       %s (%s), %s, volume %d", s.URI, s.Origin, repeat, s.Volume))
	}
	if t.DailyReminderEnabled {
		lines = append(lines, fmt.Sprintf("Reminder:    %s", t.ReminderTime))
	}
	if t.EnableDiaryNote {
		lines = append(lines, "Diary note:  on")
	}
	return lines
}

// parseSeconds accepts whole seconds ("90") or a Go duration ("1m30s").
func parseSeconds(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("%q is not a whole number of seconds", raw)
	}
	return int(d / time.Second), nil
}

// parseRepeat maps "forever" or a count to a repetition policy.
func parseRepeat(raw string) (model.RepetitionPolicy, int, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" || raw == string(model.RepeatForever) {
		return model.RepeatForever, 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return "", 0, fmt.Errorf("expected %q or a count, got %q", model.RepeatForever, raw)
	}
	return model.RepeatCount, n, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeLines(cmd *cobra.Command, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
