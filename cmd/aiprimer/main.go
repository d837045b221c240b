// Package main provides the CLI entrypoint for aiprimer.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/aiprimer/internal/adaptation"
	"github.com/verte-zerg/aiprimer/internal/assets"
	"github.com/verte-zerg/aiprimer/internal/config"
	"github.com/verte-zerg/aiprimer/internal/fit"
	"github.com/verte-zerg/aiprimer/internal/logging"
	"github.com/verte-zerg/aiprimer/internal/model"
	"github.com/verte-zerg/aiprimer/internal/primer"
	"github.com/verte-zerg/aiprimer/internal/primerui"
	"github.com/verte-zerg/aiprimer/internal/stats"
	"github.com/verte-zerg/aiprimer/internal/store"
	"github.com/verte-zerg/aiprimer/internal/watch"
)

const (
	defaultNumLevels = 5
	defaultSpacing   = 1
	defaultMinLevel  = 80
	defaultMaxLevel  = 120
	defaultFit       = "none"
	defaultLogLevel  = "info"
	defaultHistory   = 20
)

var (
	logLevel   string
	logJSON    bool
	assetsFile string

	primerNumLevels int
	primerSpacing   int
	primerMinLevel  int
	primerMaxLevel  int
	primerFit       string

	classID string
	trackID string
	level   int

	reportFormat string
	historyLast  int
	fitModelName string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "aiprimer",
		Short:         "Inspect and prime the simulator's AI adaptation data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&assetsFile, "assets", "", "asset catalog JSON for class and track names")
	rootCmd.PersistentFlags().IntVar(&primerNumLevels, "levels", defaultNumLevels, "levels touched by one apply")
	rootCmd.PersistentFlags().IntVar(&primerSpacing, "spacing", defaultSpacing, "step between applied levels")
	rootCmd.PersistentFlags().IntVar(&primerMinLevel, "min-level", defaultMinLevel, "lowest selectable AI level")
	rootCmd.PersistentFlags().IntVar(&primerMaxLevel, "max-level", defaultMaxLevel, "highest selectable AI level")
	rootCmd.PersistentFlags().StringVar(&primerFit, "fit", defaultFit, "curve used to synthesize unobserved levels (none, linear, parabola)")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newFitCmd())
	rootCmd.AddCommand(newRemoveGeneratedCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newUICmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app bundles what every data command needs.
type app struct {
	cfg            model.PrimerConfig
	adaptationFile string
	logger         *slog.Logger
	store          *store.Store
	session        *primer.Session
	assets         *model.Assets

	// saveMu serializes store writes from the watcher and the TUI.
	saveMu sync.Mutex
}

// openApp loads config, the asset catalog and the stored snapshot. With
// interactive set, logs are discarded since the TUI owns the terminal.
func openApp(cmd *cobra.Command, interactive bool) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "levels", &primerNumLevels, fileCfg.Primer.NumLevels)
	applyIntConfig(cmd, "spacing", &primerSpacing, fileCfg.Primer.Spacing)
	applyIntConfig(cmd, "min-level", &primerMinLevel, fileCfg.Primer.MinLevel)
	applyIntConfig(cmd, "max-level", &primerMaxLevel, fileCfg.Primer.MaxLevel)
	applyStringConfig(cmd, "fit", &primerFit, fileCfg.Primer.Fit)
	applyStringConfig(cmd, "assets", &assetsFile, fileCfg.Primer.AssetsFile)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyBoolConfig(cmd, "log-json", &logJSON, fileCfg.Log.JSON)

	cfg := model.PrimerConfig{
		NumLevels: primerNumLevels,
		Spacing:   primerSpacing,
		MinLevel:  primerMinLevel,
		MaxLevel:  primerMaxLevel,
		FitModel:  primerFit,
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	fitModel, err := fit.ParseModel(cfg.FitModel)
	if err != nil {
		return nil, err
	}
	lvl, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{Level: lvl, JSON: logJSON})
	if interactive {
		logger = logging.Discard()
	}

	var catalog *model.Assets
	if assetsFile != "" {
		catalog, err = assets.Load(assetsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load assets: %w", err)
		}
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db, pt, err := st.Load(cmd.Context())
	if err != nil {
		closeStore(st)
		return nil, fmt.Errorf("failed to load db: %w", err)
	}
	session := primer.NewSession(primer.Options{
		Logger:   logger,
		FitModel: fitModel,
		Levels:   model.Range{Min: cfg.MinLevel, Max: cfg.MaxLevel},
	})
	session.Restore(db, pt)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		session: session,
		assets:  catalog,
	}
	if fileCfg.Primer.AdaptationFile != nil {
		a.adaptationFile = *fileCfg.Primer.AdaptationFile
	}
	return a, nil
}

func (a *app) Close() {
	closeStore(a.store)
}

func (a *app) save(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	snap := a.session.Snapshot()
	if err := a.store.Save(ctx, snap.Database, snap.PlayerTimes); err != nil {
		return fmt.Errorf("failed to save db: %w", err)
	}
	return nil
}

// ingest reads one export into the session and records it in the history.
func (a *app) ingest(ctx context.Context, path string) (bool, error) {
	added, err := a.session.IngestFile(path)
	if err != nil {
		return false, err
	}
	if _, err := a.store.RecordImport(ctx, path, added, time.Now()); err != nil {
		return added, err
	}
	return added, a.save(ctx)
}

func (a *app) exportPaths(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if a.adaptationFile == "" {
		return nil, errors.New("no export file given and no adaptation-file configured")
	}
	return []string{a.adaptationFile}, nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [FILE...]",
		Short: "Merge adaptation exports into the database",
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	paths, err := a.exportPaths(args)
	if err != nil {
		return err
	}
	var failed []string
	for _, path := range paths {
		added, err := a.ingest(cmd.Context(), path)
		if err != nil {
			logErrf("%s: %v\n", path, err)
			failed = append(failed, path)
			continue
		}
		if added {
			logErrf("%s: new lap times added\n", path)
		} else {
			logErrf("%s: nothing new\n", path)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to import %d of %d files", len(failed), len(paths))
	}
	return nil
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show tracks, or the levels of one track",
		Args:  cobra.NoArgs,
		RunE:  runShowCmd,
	}
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().StringVar(&trackID, "track", "", "track layout id")
	return cmd
}

func runShowCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.session.Snapshot()
	out := cmd.OutOrStdout()
	if classID == "" && trackID == "" {
		report := stats.BuildReport(snap.Database, snap.PlayerTimes, snap.Processed, a.assets)
		return writeLines(out, stats.RenderReport(report))
	}
	if classID == "" || trackID == "" {
		return fmt.Errorf("--class and --track must be given together")
	}
	track := snap.Processed.Track(classID, trackID)
	if track == nil {
		return fmt.Errorf("%w: class %s track %s", primer.ErrNoData, classID, trackID)
	}
	title := fmt.Sprintf("%s - %s", a.assets.ClassName(classID), a.assets.TrackName(trackID))
	if err := writeLines(out, append([]string{title}, stats.RenderLevelTable(track, snap.PlayerTimes.Track(classID, trackID))...)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return stats.PlotLapTimes(out, "Lap time by AI level", stats.TrackSeries(track), 0, 0)
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write processed lap times back for a window of AI levels",
		Args:  cobra.NoArgs,
		RunE:  runApplyCmd,
	}
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().StringVar(&trackID, "track", "", "track layout id")
	cmd.Flags().IntVar(&level, "level", 0, "AI level the window is centered on")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("track")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func runApplyCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if level < a.cfg.MinLevel || level > a.cfg.MaxLevel {
		return fmt.Errorf("--level must be between %d and %d", a.cfg.MinLevel, a.cfg.MaxLevel)
	}
	from, to, step := primer.Window(level, a.cfg.NumLevels, a.cfg.Spacing, a.cfg.MinLevel, a.cfg.MaxLevel)
	added, err := a.session.Apply(classID, trackID, from, to, step)
	if err != nil {
		return err
	}
	logErrf("%s - %s: %d-%d step %d, added %d levels\n",
		a.assets.ClassName(classID), a.assets.TrackName(trackID), from, to, step, added)
	if added == 0 {
		return nil
	}
	return a.save(cmd.Context())
}

func newFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a curve through a track's observed levels",
		Args:  cobra.NoArgs,
		RunE:  runFitCmd,
	}
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().StringVar(&trackID, "track", "", "track layout id")
	cmd.Flags().StringVar(&fitModelName, "model", "parabola", "curve model (linear, parabola)")
	_ = cmd.MarkFlagRequired("class")
	_ = cmd.MarkFlagRequired("track")
	return cmd
}

func runFitCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := fit.ParseModel(fitModelName)
	if err != nil {
		return err
	}
	if m == fit.None {
		return fmt.Errorf("--model must be linear or parabola")
	}
	track := a.session.Snapshot().Processed.Track(classID, trackID)
	if track == nil {
		return fmt.Errorf("%w: class %s track %s", primer.ErrNoData, classID, trackID)
	}
	curve, err := stats.FitTrack(track, m)
	if err != nil {
		return fmt.Errorf("failed to fit %s curve: %w", m, err)
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, curve.String()); err != nil {
		return err
	}
	fitted := stats.Series{Name: "fitted", Points: map[int]float64{}}
	for lvl := a.cfg.MinLevel; lvl <= a.cfg.MaxLevel; lvl++ {
		fitted.Points[lvl] = curve.Eval(float64(lvl))
	}
	series := append(stats.TrackSeries(track)[:1], fitted)
	return stats.PlotLapTimes(out, "", series, 0, 0)
}

func newRemoveGeneratedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-generated",
		Short: "Delete every level holding a single lap time",
		Args:  cobra.NoArgs,
		RunE:  runRemoveGeneratedCmd,
	}
}

func runRemoveGeneratedCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	removed := a.session.RemoveGenerated()
	logErrf("removed %d levels\n", removed)
	if removed == 0 {
		return nil
	}
	return a.save(cmd.Context())
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard all stored lap times and player times",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.Reset()
	if err := a.save(cmd.Context()); err != nil {
		return err
	}
	logErrln("database reset")
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the database in the simulator's export format",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.session.Snapshot()
	if err := writeExport(args[0], snap.Database, snap.PlayerTimes); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}
	logErrf("Wrote %s\n", args[0])
	return nil
}

func writeExport(path string, db *model.Database, pt *model.PlayerTimes) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.xml")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := adaptation.Encode(writer, db, pt); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print every track and level",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportFormat, "format", stats.FormatTable, "output format (table, json, yaml)")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.session.Snapshot()
	report := stats.BuildReport(snap.Database, snap.PlayerTimes, snap.Processed, a.assets)
	return stats.WriteReport(cmd.OutOrStdout(), report, reportFormat)
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent imports",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", defaultHistory, "number of imports to list (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.store.ListImports(cmd.Context(), historyLast)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logErrln("No imports yet.")
		return nil
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		result := "nothing new"
		if rec.Added {
			result = "added"
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %-11s  %s",
			rec.ImportedAt.Local().Format("2006-01-02 15:04:05"), rec.ID[:8], result, rec.Path))
	}
	return writeLines(cmd.OutOrStdout(), lines)
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [FILE]",
		Short: "Re-import an export whenever it changes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatchCmd,
	}
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	paths, err := a.exportPaths(args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(paths[0], func(path string) {
		added, err := a.ingest(ctx, path)
		if err != nil {
			a.logger.Error("failed to import export", "path", path, "error", err)
			return
		}
		a.logger.Info("imported export", "path", path, "added", added)
	}, watch.Options{Logger: a.logger})
	if err != nil {
		return err
	}
	logErrf("Watching %s (ctrl+c to stop)\n", paths[0])
	return w.Run(ctx)
}

func newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Browse lap times and apply level windows interactively",
		Args:  cobra.NoArgs,
		RunE:  runUICmd,
	}
}

func runUICmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ui := primerui.NewModel(primerui.Options{
		Session: a.session,
		Assets:  a.assets,
		Config:  a.cfg,
		OnChange: func(primer.Snapshot) error {
			return a.save(ctx)
		},
	})
	program := tea.NewProgram(ui, tea.WithAltScreen())

	if a.adaptationFile != "" {
		w, err := watch.New(a.adaptationFile, func(path string) {
			if _, err := a.ingest(ctx, path); err != nil {
				return
			}
			program.Send(primerui.RefreshMsg{})
		}, watch.Options{Logger: a.logger})
		if err != nil {
			return err
		}
		go func() {
			_ = w.Run(ctx)
		}()
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
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

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# aiprimer configuration
# Uncomment a value to enable it. CLI flags override config values.

[primer]
# ai-num-levels = %d        # Levels touched by one apply
# ai-spacing = %d           # Step between applied levels
# min-level = %d           # Lowest selectable AI level
# max-level = %d          # Highest selectable AI level
# fit = %q             # Synthesize unobserved levels: none, linear, parabola
# adaptation-file = ""      # Export read by import/watch/ui when no file is given
# assets-file = ""          # Asset catalog JSON for class and track names

[log]
# level = %q            # debug, info, warn, error
# json = false              # Log as JSON
`,
		defaultNumLevels,
		defaultSpacing,
		defaultMinLevel,
		defaultMaxLevel,
		defaultFit,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.PrimerConfig) error {
	if cfg.NumLevels <= 0 {
		return fmt.Errorf("--levels must be > 0")
	}
	if cfg.Spacing <= 0 {
		return fmt.Errorf("--spacing must be > 0")
	}
	if cfg.MinLevel > cfg.MaxLevel {
		return fmt.Errorf("--min-level must be <= --max-level")
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
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
