package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justchokingaround/mangadl/internal/app"
	"github.com/justchokingaround/mangadl/internal/clipboard"
	"github.com/justchokingaround/mangadl/internal/config"
	"github.com/justchokingaround/mangadl/internal/console"
	"github.com/justchokingaround/mangadl/internal/converter"
	"github.com/justchokingaround/mangadl/internal/database"
	"github.com/justchokingaround/mangadl/internal/downloader"
	"github.com/justchokingaround/mangadl/internal/history"
	"github.com/justchokingaround/mangadl/internal/providers"
	"github.com/justchokingaround/mangadl/internal/providers/comix"
	mhttp "github.com/justchokingaround/mangadl/internal/providers/http"
	"github.com/justchokingaround/mangadl/internal/providers/inmanga"
	"github.com/justchokingaround/mangadl/internal/providers/local"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
	// Global flags
	cfgFile   string
	logLevel  string
	noColor   bool
	debugMode bool

	// Download flags
	chaptersFlag string
	directory    string
	formatFlag   string
	profileFlag  string
	single       bool
	rotate       bool
	fullSize     bool
	removeAlpha  bool
	useCache     bool
	assumeYes    bool
	copyPath     bool
	sourceFlag   string

	// Global config, logger and console
	cfg     *config.Config
	logger  *slog.Logger
	printer = console.New(console.Options{Out: os.Stdout, In: os.Stdin, Color: true})
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	stop()
	reportError(err)
	os.Exit(1)
}

// reportError prints err the way the user expects to read it
func reportError(err error) {
	var ambiguous *providers.AmbiguousError

	switch {
	case errors.Is(err, context.Canceled):
		printer.Dim("\nCancelled")
	case errors.Is(err, app.ErrAborted):
		printer.Dim("Cancelled")
	case errors.As(err, &ambiguous):
		printer.Error("There are several results, please select one of these:\n%s", strings.Join(ambiguous.Candidates, "\n"))
	case errors.Is(err, local.ErrNotDownloaded):
		printer.Error("%v", err)
	case errors.Is(err, providers.ErrNotFound):
		printer.Error("Manga not found")
	case errors.Is(err, app.ErrNoChapters):
		printer.Error("No chapters found")
	default:
		printer.Error("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mangadl <manga>",
	Short: "Download manga chapters and convert them for e-readers",
	Long: `mangadl downloads manga chapters from inmanga.com and converts them to
PDF, CBZ, EPUB or MOBI (through Kindle Comic Converter).

Chapters are selected with a range expression:
  mangadl "one piece" --chapters "1..10, 15, last"

Chapters already downloaded are reused; --cache works offline from the
download directory.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for config init command
		if cmd.Name() == "init" && cmd.Parent().Name() == "config" {
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		var err error
		cfg, _, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if debugMode && logLevel == "" {
			cfg.Logging.Level = "debug"
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if noColor {
			cfg.Logging.Color = false
			printer = console.New(console.Options{Out: os.Stdout, In: os.Stdin})
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cfg.Database.Enabled {
			if _, err := database.Init(&cfg.Database); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := database.Close(); err != nil && logger != nil {
			logger.Error("failed to close database", "error", err)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDownloadFlags(cmd)

		format, err := converter.ParseFormat(cfg.Downloads.Format)
		if err != nil {
			return err
		}
		profile, err := converter.LookupProfile(cfg.Downloads.Profile)
		if err != nil {
			return err
		}

		runner, err := newRunner(useCache)
		if err != nil {
			return err
		}

		logger.Info("mangadl starting", "version", version, "source", runner.Source.Name())
		report, err := runner.Run(cmd.Context(), app.Options{
			Query:       strings.Join(args, " "),
			Chapters:    chaptersFlag,
			Directory:   cfg.Downloads.Directory,
			Format:      format,
			Profile:     profile,
			Single:      cfg.Downloads.Single,
			Rotate:      cfg.Downloads.Rotate,
			FullSize:    cfg.Downloads.FullSize,
			RemoveAlpha: cfg.Downloads.RemoveAlpha,
			Cache:       useCache,
			AssumeYes:   cfg.Downloads.AssumeYes,
		})
		if err != nil {
			return err
		}

		if copyPath {
			target := copyTarget(report, cfg.Downloads.Directory)
			if err := clipboard.NewService(cfg.Clipboard, logger).Write(cmd.Context(), target); err != nil {
				printer.Warn("Could not copy to clipboard: %v", err)
			} else {
				printer.Dim("Copied %s", target)
			}
		}
		return nil
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/mangadl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode (verbose HTTP logging)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "online source: inmanga, comix (default: config setting)")

	flags := rootCmd.Flags()
	flags.StringVarP(&chaptersFlag, "chapters", "c", "", `chapters to download, e.g. "1..10, 15, last" (default: all)`)
	flags.StringVarP(&directory, "directory", "d", "", "download directory (default: config setting)")
	flags.StringVarP(&formatFlag, "format", "f", "", "output format: "+formatNames()+" (default: config setting)")
	flags.StringVarP(&profileFlag, "profile", "p", "", "device profile: "+strings.Join(converter.ProfileCodes(), ", ")+" (default: config setting)")
	flags.BoolVarP(&single, "single", "s", false, "merge all chapters into one file")
	flags.BoolVarP(&rotate, "rotate", "r", false, "rotate double pages instead of splitting them")
	flags.BoolVar(&fullSize, "fullsize", false, "keep the original image size")
	flags.BoolVar(&removeAlpha, "remove-alpha", false, "remove the alpha channel of the images (PDF only)")
	flags.BoolVar(&useCache, "cache", false, "use the downloaded chapters only, without going online")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "continue without asking when some chapters are not found")
	flags.BoolVar(&copyPath, "copy", false, "copy the path of the last file produced to the clipboard")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

// applyDownloadFlags lets flags given on the command line win over the config
func applyDownloadFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	d := &cfg.Downloads
	if flags.Changed("directory") {
		d.Directory = directory
	}
	if flags.Changed("format") {
		d.Format = formatFlag
	}
	if flags.Changed("profile") {
		d.Profile = profileFlag
	}
	if flags.Changed("single") {
		d.Single = single
	}
	if flags.Changed("rotate") {
		d.Rotate = rotate
	}
	if flags.Changed("fullsize") {
		d.FullSize = fullSize
	}
	if flags.Changed("remove-alpha") {
		d.RemoveAlpha = removeAlpha
	}
	if flags.Changed("yes") {
		d.AssumeYes = assumeYes
	}
}

// registerSources fills the global source registry
func registerSources(client *mhttp.Client) {
	providers.Clear()
	for _, src := range []providers.Source{
		inmanga.New(client, logger),
		comix.New(client, cfg.Network.ComixURL, logger),
		local.New(cfg.Downloads.Directory, logger),
	} {
		if err := providers.Register(src); err != nil {
			logger.Warn("failed to register source", "name", src.Name(), "error", err)
		} else {
			logger.Debug("registered source", "name", src.Name())
		}
	}
}

// newRunner wires a runner for the online source, or the download
// directory when cache is set. Sources are registered here so that they see
// the directory after flag overrides.
func newRunner(cache bool) (*app.Runner, error) {
	client := mhttp.NewClient(mhttp.ConfigFromNetwork(cfg.Network, debugMode, logger))
	registerSources(client)

	name := cfg.Downloads.Source
	if sourceFlag != "" {
		name = sourceFlag
	}
	if cache {
		name = local.Name
	}

	src, err := providers.Get(name)
	if err != nil {
		return nil, fmt.Errorf("source %s not available: %w", name, err)
	}

	dl := downloader.New(client, printer, downloader.Options{
		Concurrency:  cfg.Downloads.Concurrency,
		MinFreeSpace: cfg.Downloads.MinFreeSpace,
	}, logger)

	conv := converter.New(converter.Config{
		KCCPath:     cfg.Converter.KCCPath,
		MangaStyle:  cfg.Converter.MangaStyle,
		HighQuality: cfg.Converter.HighQuality,
		Notifier:    printer,
		Logger:      logger,
	})

	runner := &app.Runner{
		Source:     src,
		Downloader: dl,
		Converter:  conv,
		Printer:    printer,
		Logger:     logger,
	}
	if hist := history.NewService(database.GetDB()); hist.Enabled() {
		runner.History = hist
	}
	return runner, nil
}

// copyTarget is the last file written, or the manga folder when the pages
// were kept as images
func copyTarget(report *app.Report, root string) string {
	target := downloader.MangaDir(root, report.Manga.Slug)
	if n := len(report.Outputs); n > 0 {
		target = report.Outputs[n-1].Path
	}
	if abs, err := filepath.Abs(target); err == nil {
		return abs
	}
	return target
}

func formatNames() string {
	names := make([]string, len(converter.Formats))
	for i, f := range converter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
