package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/stats"
	"github.com/verte-zerg/mindful/internal/tui"
)

var (
	logAt        string
	logDuration  string
	diaryAt      string
	diaryOutPath string
)

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Manage meditation logs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List meditation logs",
		Args:  cobra.NoArgs,
		RunE:  runLogListCmd,
	})

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a session manually",
		Args:  cobra.NoArgs,
		RunE:  runLogAddCmd,
	}
	add.Flags().StringVar(&logAt, "at", "", "session start (RFC3339, default: now)")
	add.Flags().StringVar(&logDuration, "duration", "", "session length (seconds or duration like 20m)")
	cmd.AddCommand(add)

	fix := &cobra.Command{
		Use:   "fix <timestamp>",
		Short: "Correct the duration of a logged session",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogFixCmd,
	}
	fix.Flags().StringVar(&logDuration, "duration", "", "corrected length (seconds or duration like 20m)")
	cmd.AddCommand(fix)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <timestamp>",
		Short: "Delete a logged session",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogRmCmd,
	})
	return cmd
}

func runLogListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	logs, err := st.ListLogs(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list logs: %w", err)
	}
	if len(logs) == 0 {
		logErrln("No sessions found.")
		return nil
	}
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []string{l.Timestamp, tui.FormatClock(l.Duration), strconv.Itoa(stats.RoundMinutes(float64(l.Duration)))})
	}
	return writeLines(cmd, stats.FormatTable([]string{"Started", "Duration", "Minutes"}, rows, map[int]bool{1: true, 2: true}))
}

func runLogAddCmd(_ *cobra.Command, _ []string) error {
	secs, err := requireDuration(logDuration)
	if err != nil {
		return err
	}
	at, err := timestampOrNow(logAt)
	if err != nil {
		return fmt.Errorf("invalid --at value: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.AddLog(context.Background(), model.MeditationLog{Timestamp: at, Duration: secs}); err != nil {
		return fmt.Errorf("failed to add log: %w", err)
	}
	logErrf("Logged %s at %s\n", tui.FormatClock(secs), at)
	return nil
}

func runLogFixCmd(_ *cobra.Command, args []string) error {
	secs, err := requireDuration(logDuration)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.UpdateLogDuration(context.Background(), args[0], secs); err != nil {
		return fmt.Errorf("failed to fix log: %w", err)
	}
	return nil
}

func runLogRmCmd(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeleteLog(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	return nil
}

func newDiaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Manage diary entries",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List diary entries",
		Args:  cobra.NoArgs,
		RunE:  runDiaryListCmd,
	})

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Write a diary entry",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDiaryAddCmd,
	}
	add.Flags().StringVar(&diaryAt, "at", "", "entry time (RFC3339, default: now)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <timestamp>",
		Short: "Delete a diary entry",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiaryRmCmd,
	})

	export := &cobra.Command{
		Use:   "export",
		Short: "Export diary entries as YAML",
		Args:  cobra.NoArgs,
		RunE:  runDiaryExportCmd,
	}
	export.Flags().StringVarP(&diaryOutPath, "output", "o", "", "write to file instead of stdout")
	cmd.AddCommand(export)
	return cmd
}

func runDiaryListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	entries, err := st.ListDiaryEntries(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list diary entries: %w", err)
	}
	if len(entries) == 0 {
		logErrln("No diary entries found.")
		return nil
	}
	lines := make([]string, 0, len(entries)*3)
	for i, e := range entries {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, e.Timestamp, e.Content)
	}
	return writeLines(cmd, lines)
}

func runDiaryAddCmd(_ *cobra.Command, args []string) error {
	at, err := timestampOrNow(diaryAt)
	if err != nil {
		return fmt.Errorf("invalid --at value: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	entry := model.DiaryEntry{Timestamp: at, Content: strings.Join(args, " ")}
	if err := st.AddDiaryEntry(context.Background(), entry); err != nil {
		return fmt.Errorf("failed to add diary entry: %w", err)
	}
	return nil
}

func runDiaryRmCmd(_ *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeleteDiaryEntry(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete diary entry: %w", err)
	}
	return nil
}

type diaryExport struct {
	Entries []model.DiaryEntry `yaml:"entries"`
}

func runDiaryExportCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	entries, err := st.ListDiaryEntries(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list diary entries: %w", err)
	}
	if entries == nil {
		entries = []model.DiaryEntry{}
	}
	return withOutput(cmd, diaryOutPath, func(w io.Writer) error {
		return writeDiaryYAML(w, entries)
	})
}

func writeDiaryYAML(w io.Writer, entries []model.DiaryEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(diaryExport{Entries: entries}); err != nil {
		return fmt.Errorf("failed to encode diary: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode diary: %w", err)
	}
	return nil
}

// withOutput runs write against path, or stdout when path is empty.
func withOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(file); err != nil {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close after a failed write.
			_ = cerr
		}
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func requireDuration(raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("--duration is required")
	}
	secs, err := parseSeconds(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --duration value: %w", err)
	}
	return secs, nil
}

// timestampOrNow normalizes raw to the stored timestamp format.
func timestampOrNow(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return model.FormatTimestamp(time.Now()), nil
	}
	t, err := model.ParseTimestamp(raw)
	if err != nil {
		return "", err
	}
	return model.FormatTimestamp(t), nil
}
