package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jadenpxrk/treescope/internal/analyzer"
	"github.com/jadenpxrk/treescope/internal/language"
	"github.com/jadenpxrk/treescope/internal/logger"
	"github.com/jadenpxrk/treescope/internal/report"
	"github.com/jadenpxrk/treescope/internal/session"
	"github.com/jadenpxrk/treescope/internal/settings"
)

var (
	cfgFile  string
	logLevel string
	logFile  string

	// Filtering
	folderExclusions []string
	fileExclusions   []string
	folderFilters    bool
	fileFilters      bool
	folderMatch      string
	respectGitignore bool
	maxDepth         int

	// Output
	outputFile      string
	outputFormat    string
	treeView        bool
	copyToClipboard bool

	// Processing
	numWorkers int

	// Interactive Mode
	interactiveMode bool

	appSettings *settings.Settings
	appLogger   = logger.Nop()
	closeLog    func() error
)

// version is the application version, set via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "treescope [PATH]",
	Short: "Treescope reports the structure, file counts and sizes of a directory.",
	Long: `Treescope walks a directory tree in parallel, applies folder and file
exclusion filters, and prints or exports a report listing every folder with its
file count and every file with its size.`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runAnalyze,
}

// flagKeys maps flag names to the settings keys they override.
var flagKeys = map[string]string{
	"exclude-folder": settings.KeyFolderFilters,
	"exclude-file":   settings.KeyFileFilters,
	"folder-filters": settings.KeyEnableFolderFilters,
	"file-filters":   settings.KeyEnableFileFilters,
	"folder-match":   settings.KeyFolderMatch,
	"gitignore":      settings.KeyRespectGitignore,
	"max-depth":      settings.KeyMaxDepth,
	"workers":        settings.KeyWorkers,
	"log-level":      settings.KeyLogLevel,
}

func init() {
	// Assigned here rather than in the literal: setup refers to rootCmd.
	rootCmd.PersistentPreRunE = setup

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is $HOME/.config/treescope/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error or silent")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append log lines to this file")

	// Filtering
	rootCmd.Flags().StringSliceVar(&folderExclusions, "exclude-folder", nil, "Folder exclusion tokens (comma-separated, replaces the configured list)")
	rootCmd.Flags().StringSliceVar(&fileExclusions, "exclude-file", nil, "File exclusion tokens such as .log or *.min.js (comma-separated)")
	rootCmd.Flags().BoolVar(&folderFilters, "folder-filters", true, "Apply folder exclusions")
	rootCmd.Flags().BoolVar(&fileFilters, "file-filters", true, "Apply file exclusions")
	rootCmd.Flags().StringVar(&folderMatch, "folder-match", "substring", "Folder token matching: substring or exact")
	rootCmd.Flags().BoolVar(&respectGitignore, "gitignore", false, "Also exclude entries matched by the root .gitignore")
	rootCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum directory depth to traverse (0 for no limit)")

	// Output
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Export the report to this file or directory")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Report format: text, yaml or pdf (default from the output extension)")
	rootCmd.Flags().BoolVarP(&treeView, "tree", "t", false, "Print a connector-drawn tree instead of the report")
	rootCmd.Flags().BoolVarP(&copyToClipboard, "clipboard", "c", false, "Copy the text report to the clipboard")

	// Processing
	rootCmd.Flags().IntVarP(&numWorkers, "workers", "w", 0, "Parallel directory readers (0 for one per CPU)")

	// Interactive Mode
	rootCmd.Flags().BoolVarP(&interactiveMode, "interactive", "i", false, "Pick the directory with a fuzzy finder")

	rootCmd.AddCommand(configCmd)
}

// setup loads .env and settings, binds flags and opens the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	s, err := settings.Load(settings.Options{ConfigFile: cfgFile})
	if err != nil {
		return err
	}
	for name, key := range flagKeys {
		flag := rootCmd.Flags().Lookup(name)
		if flag == nil {
			flag = rootCmd.PersistentFlags().Lookup(name)
		}
		if err := s.BindFlag(key, flag); err != nil {
			return err
		}
	}
	appSettings = s

	level := s.LogLevel()
	if cmd.Flags().Changed("log-level") {
		level = logger.ParseLevel(logLevel)
	}
	if logFile == "" {
		appLogger = logger.New(level, os.Stderr)
		return nil
	}
	l, closeFn, err := logger.OpenFile(logFile, level, os.Stderr)
	if err != nil {
		return err
	}
	appLogger, closeLog = l, closeFn
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path, err := resolveRoot(args)
	if err != nil {
		return err
	}
	if path == "" {
		// Interactive selection aborted.
		return nil
	}

	builder := analyzer.NewBuilder().
		WithLogger(appLogger).
		WithWorkers(appSettings.Workers())
	coord := session.New(builder).
		WithLogger(appLogger).
		WithSettings(appSettings).
		WithHooks(session.Hooks{
			OnStart: func(_ uuid.UUID, root string) {
				fmt.Fprintf(os.Stderr, "Analyzing %s...\n", root)
			},
		})

	// Ctrl+C stops the walk; the partial tree is discarded.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		<-sig
		if coord.Cancel() {
			fmt.Fprintln(os.Stderr, "\nCancelling analysis...")
		}
	}()

	res, err := coord.RunWithSettings(cmd.Context(), path, appSettings)
	if errors.Is(err, analyzer.ErrCancelled) {
		fmt.Fprintln(os.Stderr, "Analysis cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	langs := detectLanguages(res.Root)
	rep := report.New(res.Root, res.RootPath)
	rep.Notes = languageNotes(langs)

	format, err := report.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	summaryOut := os.Stdout

	switch {
	case outputFile != "":
		if !cmd.Flags().Changed("format") {
			format = report.FormatFromPath(outputFile)
		}
		dest := exportPath(outputFile, res.RootPath, format)
		if err := report.Export(dest, format, rep); err != nil {
			return err
		}
		fmt.Printf("Report saved to %s\n", dest)
	case treeView:
		printTree(os.Stdout, res.Root)
	case format == report.FormatPDF:
		return fmt.Errorf("pdf output needs a destination: use --output")
	default:
		if err := rep.Write(os.Stdout, format); err != nil {
			return err
		}
		if format != report.FormatText {
			summaryOut = os.Stderr
		}
	}

	if copyToClipboard {
		if err := clipboard.WriteAll(rep.String()); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, "Report copied to clipboard.")
		}
	}

	printSummary(summaryOut, res, langs)
	return nil
}

// resolveRoot picks the directory to analyze: the interactive choice, the
// argument, the last analyzed directory if it still exists, or ".".
func resolveRoot(args []string) (string, error) {
	switch {
	case interactiveMode:
		return pickDirectory(".", session.FilterConfigFrom(appSettings))
	case len(args) == 1:
		return args[0], nil
	}
	if last := appSettings.LastPath(); last != "" {
		if err := analyzer.ValidateRoot(last); err == nil {
			return last, nil
		}
		appLogger.Warn("Last analyzed directory is gone, using the current directory", logger.F("path", last))
	}
	return ".", nil
}

// exportPath resolves an --output that names an existing directory to the
// default report file inside it.
func exportPath(out, rootPath string, format report.Format) string {
	info, err := os.Stat(out)
	if err != nil || !info.IsDir() {
		return out
	}
	name := report.DefaultFileName(rootPath)
	if format != report.FormatText {
		name = name[:len(name)-len(filepath.Ext(name))] + "." + string(format)
	}
	return filepath.Join(out, name)
}

func detectLanguages(root *analyzer.Entry) []language.Stat {
	dirs := []string{filepath.Dir(appSettings.Path()), "."}
	detector, path, err := language.Find(dirs...)
	if err != nil {
		appLogger.Warn("Could not load language definitions", logger.Err(err))
	} else if path != "" {
		appLogger.Debug("Loaded language definitions", logger.F("path", path))
	}
	return language.Breakdown(root, detector)
}

func main() {
	err := rootCmd.Execute()
	if closeLog != nil {
		_ = closeLog()
	}
	if err != nil {
		os.Exit(1)
	}
}
