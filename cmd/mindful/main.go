// Package main provides the CLI entrypoint for mindful.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/mindful/internal/audio"
	"github.com/verte-zerg/mindful/internal/clock"
	"github.com/verte-zerg/mindful/internal/config"
	"github.com/verte-zerg/mindful/internal/lifecycle"
	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/osint"
	"github.com/verte-zerg/mindful/internal/session"
	"github.com/verte-zerg/mindful/internal/soundlib"
	"github.com/verte-zerg/mindful/internal/store"
	"github.com/verte-zerg/mindful/internal/tui"
)

const (
	defaultSound    = true
	defaultLogLevel = "info"
)

var (
	runCountUp      bool
	runKeepScreenOn bool
	runDND          bool
	runSound        bool
	runPlayer       string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mindful [timer]",
		Short:         "Terminal meditation timer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runSessionCmd,
	}

	rootCmd.Flags().BoolVar(&runCountUp, "count-up", false, "show elapsed instead of remaining time")
	rootCmd.Flags().BoolVar(&runKeepScreenOn, "keep-screen-on", false, "keep the display awake during the session")
	rootCmd.Flags().BoolVar(&runDND, "dnd", false, "enable do-not-disturb during the session")
	rootCmd.Flags().BoolVar(&runSound, "sound", defaultSound, "play session sounds")
	rootCmd.Flags().StringVar(&runPlayer, "player", audio.DefaultPlayer, "player command ({file} and {volume} placeholders)")

	rootCmd.AddCommand(newTimerCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newDiaryCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSoundsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runSessionCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBoolConfig(cmd, "count-up", &runCountUp, fileCfg.Session.CountUp)
	applyBoolConfig(cmd, "keep-screen-on", &runKeepScreenOn, fileCfg.Session.KeepScreenOn)
	applyBoolConfig(cmd, "dnd", &runDND, fileCfg.Session.DND)
	applyBoolConfig(cmd, "sound", &runSound, fileCfg.Session.Sound)
	applyStringConfig(cmd, "player", &runPlayer, fileCfg.Audio.Player)

	settings := model.LockedSettings{
		CountUp:      runCountUp,
		KeepScreenOn: runKeepScreenOn,
		DNDEnabled:   runDND,
		SoundEnabled: runSound,
	}

	logger, closeLog, err := openLogger(fileCfg.Log.Level)
	if err != nil {
		logErrf("debug log disabled: %v\n", err)
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLog = func() {}
	}
	defer closeLog()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	timer, err := resolveTimer(ctx, st, query)
	if err != nil {
		return err
	}

	lib := soundlib.New(config.DefaultSoundsDir())
	backend := &audio.ExecBackend{Command: runPlayer, Resolve: lib.Resolve, Logger: logger}
	osInt := osint.NewExec(osCommands(fileCfg.OS), logger)
	hub := lifecycle.NewHub()

	runner := session.New(session.Deps{
		Timers:    st,
		Logs:      st,
		Settings:  settings,
		Backend:   backend,
		OS:        osInt,
		Lifecycle: hub,
		Scheduler: clock.TickerScheduler{},
		Clock:     clock.SystemClock{},
		Logger:    logger,
	}, timer.ID)
	defer runner.Close()

	if err := runner.Start(ctx); err != nil {
		var verrs model.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("timer %q is invalid: %w", timer.Name, err)
		}
		return fmt.Errorf("failed to start session: %w", err)
	}

	window := tui.NewModel(ctx, runner, tui.Options{Diary: st, Lifecycle: hub})
	program := tea.NewProgram(window, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	res := window.Result()
	if res.Err != nil {
		return res.Err
	}
	if res.Logged {
		logErrf("Logged %s session started %s\n", tui.FormatClock(res.Log.Duration), res.Log.Timestamp)
	}
	if res.DiarySaved {
		logErrln("Diary note saved")
	}
	return nil
}

// resolveTimer finds a timer by ID, ID prefix or case-insensitive name. An
// empty query picks the only stored timer.
func resolveTimer(ctx context.Context, st *store.Store, query string) (model.Timer, error) {
	timers, err := st.ListTimers(ctx)
	if err != nil {
		return model.Timer{}, fmt.Errorf("failed to list timers: %w", err)
	}
	return matchTimer(timers, query)
}

func matchTimer(timers []model.Timer, query string) (model.Timer, error) {
	if len(timers) == 0 {
		return model.Timer{}, fmt.Errorf("no timers found. Create one with: mindful timer add --name <name> --segment 10m")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		if len(timers) == 1 {
			return timers[0], nil
		}
		return model.Timer{}, fmt.Errorf("several timers found; pass one (see: mindful timer list)")
	}
	var matches []model.Timer
	for _, t := range timers {
		if t.ID == query {
			return t, nil
		}
		if strings.EqualFold(t.Name, query) || strings.HasPrefix(t.ID, query) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Timer{}, fmt.Errorf("%w: %s", session.ErrTimerNotFound, query)
	case 1:
		return matches[0], nil
	default:
		return model.Timer{}, fmt.Errorf("timer %q is ambiguous (%d matches)", query, len(matches))
	}
}

func osCommands(cfg config.OSConfig) osint.Commands {
	cmds := osint.Commands{KeepAwake: osint.DefaultKeepAwake()}
	if cfg.KeepAwake != nil {
		cmds.KeepAwake = *cfg.KeepAwake
	}
	if cfg.DNDOn != nil {
		cmds.DNDOn = *cfg.DNDOn
	}
	if cfg.DNDOff != nil {
		cmds.DNDOff = *cfg.DNDOff
	}
	return cmds
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// openLogger writes debug logs to the data dir. Level "off" discards them.
func openLogger(level *string) (*slog.Logger, func(), error) {
	name := defaultLogLevel
	if level != nil {
		name = strings.TrimSpace(*level)
	}
	if strings.EqualFold(name, "off") {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: lvl}))
	return logger, func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close of the debug log.
			_ = cerr
		}
	}, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
