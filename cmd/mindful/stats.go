package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/mindful/internal/audio"
	"github.com/verte-zerg/mindful/internal/config"
	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/osint"
	"github.com/verte-zerg/mindful/internal/soundlib"
	"github.com/verte-zerg/mindful/internal/stats"
	"github.com/verte-zerg/mindful/internal/statsui"
)

const (
	defaultStatsPeriod = stats.PeriodAll
	defaultStatsLocale = "en"
	exportFormatYAML   = "yaml"
)

var (
	statsPeriod  string
	statsLocale  string
	statsExport  string
	statsOutPath string
	statsPlain   bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show meditation stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsPeriod, "period", defaultStatsPeriod, "period: ALL or <n>M (e.g. 3M)")
	cmd.Flags().StringVar(&statsLocale, "locale", defaultStatsLocale, "locale for month labels")
	cmd.Flags().StringVar(&statsExport, "export", "", "export format (yaml)")
	cmd.Flags().StringVarP(&statsOutPath, "output", "o", "", "write export to file instead of stdout")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain report instead of the interactive view")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "period", &statsPeriod, fileCfg.Stats.Period)
	applyStringConfig(cmd, "locale", &statsLocale, fileCfg.Stats.Locale)

	if _, err := stats.ParsePeriod(statsPeriod); err != nil {
		return fmt.Errorf("invalid --period value: %w", err)
	}
	cfg := model.StatsConfig{
		Period: strings.ToUpper(strings.TrimSpace(statsPeriod)),
		Locale: strings.TrimSpace(statsLocale),
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	switch {
	case statsExport != "":
		if !strings.EqualFold(statsExport, exportFormatYAML) {
			return fmt.Errorf("unsupported export format %q", statsExport)
		}
		res, err := stats.BuildReport(ctx, st, cfg)
		if err != nil {
			return err
		}
		return withOutput(cmd, statsOutPath, func(w io.Writer) error {
			return stats.ExportYAML(w, res)
		})
	case statsPlain || !term.IsTerminal(int(os.Stdout.Fd())):
		res, err := stats.BuildReport(ctx, st, cfg)
		if err != nil {
			return err
		}
		return stats.RenderReport(cmd.OutOrStdout(), res, 0, false)
	}

	view := statsui.NewModel(ctx, st, cfg)
	program := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newSoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sounds",
		Short: "List installed system sounds",
		Args:  cobra.NoArgs,
		RunE:  runSoundsCmd,
	}
}

func runSoundsCmd(cmd *cobra.Command, _ []string) error {
	dir := config.DefaultSoundsDir()
	sounds, err := soundlib.New(dir).List()
	if err != nil {
		return fmt.Errorf("failed to list sounds: %w", err)
	}
	if len(sounds) == 0 {
		logErrf("No sounds found. Copy audio files into: %s\n", dir)
		return nil
	}
	lines := make([]string, 0, len(sounds))
	for _, s := range sounds {
		lines = append(lines, s.Name)
	}
	return writeLines(cmd, lines)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# mindful configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# count-up = false        # Show elapsed instead of remaining time
# keep-screen-on = false  # Keep the display awake during a session
# dnd = false             # Enable do-not-disturb during a session
# sound = %t            # Play session sounds

[audio]
# player = %q

[os]
# keep-awake = %q
# dnd-on = ""
# dnd-off = ""

[stats]
# period = %q             # ALL or <n>M
# locale = %q

[log]
# level = %q             # debug, info, warn, error or off
`,
		defaultSound,
		audio.DefaultPlayer,
		osint.DefaultKeepAwake(),
		defaultStatsPeriod,
		defaultStatsLocale,
		defaultLogLevel,
	)
}
