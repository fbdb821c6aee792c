package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/config"
	"github.com/justchokingaround/mangadl/internal/console"
	"github.com/justchokingaround/mangadl/internal/database"
	"github.com/justchokingaround/mangadl/internal/downloader/tools"
	"github.com/justchokingaround/mangadl/internal/history"
	"github.com/justchokingaround/mangadl/internal/providers"
	"github.com/justchokingaround/mangadl/internal/providers/utils"
)

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mangadl version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

// configCmd handles configuration operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = filepath.Join(config.GetConfigDir(), "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s", configPath)
		}

		if err := config.SaveDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to save default configuration: %w", err)
		}

		fmt.Printf("Default configuration generated successfully at: %s\n", configPath)
		fmt.Printf("You can now edit this file to customize mangadl's settings.\n")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Display configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			fmt.Println(cfgFile)
		} else {
			fmt.Println(filepath.Join(config.GetConfigDir(), "config.yaml"))
		}
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

// searchCmd lists the titles matching a query
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search manga by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		cache, _ := cmd.Flags().GetBool("cache")
		setDirectory(cmd)

		runner, err := newRunner(cache)
		if err != nil {
			return err
		}

		results, err := runner.Source.Search(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if len(results) == 0 {
			fmt.Println("No results found")
			return nil
		}

		titles := make([]string, len(results))
		byTitle := make(map[string]providers.Manga, len(results))
		for i, m := range results {
			titles[i] = m.Title
			byTitle[m.Title] = m
		}

		fmt.Printf("Found %d results:\n\n", len(results))
		for i, title := range utils.RankTitles(query, titles) {
			m := byTitle[title]
			fmt.Printf("%d. %s %s\n", i+1, console.Pad(title, 40), m.Slug)
		}
		return nil
	},
}

// chaptersCmd shows what a chapter expression selects without downloading
var chaptersCmd = &cobra.Command{
	Use:   "chapters <manga>",
	Short: "List the available chapters of a manga",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, _ := cmd.Flags().GetString("chapters")
		cache, _ := cmd.Flags().GetBool("cache")
		setDirectory(cmd)

		runner, err := newRunner(cache)
		if err != nil {
			return err
		}

		manga, list, err := runner.Lookup(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		printer.Info("%s", manga.Title)

		numbers := providers.ChapterNumbers(list)
		sel, err := chapters.Resolve(numbers, expr)
		if err != nil {
			return err
		}

		fmt.Printf("Available: %s (%d chapters, last %s)\n",
			chapters.Format(chapters.FromSorted(numbers), "..", ", "), len(numbers), sel.Last)
		if expr == "" {
			return nil
		}

		fmt.Printf("Requested: %s\n", chapters.Format(sel.Requested, "..", ", "))
		fmt.Printf("Selected:  %s (%d chapters)\n", sel.Fragment(), len(sel.Found))
		if !sel.Missing.Empty() {
			printer.Error("Chapters not found: %s", chapters.Format(sel.Missing, "..", ", "))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, chaptersCmd} {
		c.Flags().Bool("cache", false, "search the download directory instead of going online")
		c.Flags().StringP("directory", "d", "", "download directory (default: config setting)")
	}
	chaptersCmd.Flags().StringP("chapters", "c", "", "range expression to check")
}

// setDirectory applies a --directory flag on subcommands
func setDirectory(cmd *cobra.Command) {
	if cmd.Flags().Changed("directory") {
		cfg.Downloads.Directory, _ = cmd.Flags().GetString("directory")
	}
}

// historyCmd lists the files produced so far
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show download history",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := history.NewService(database.GetDB())
		if !svc.Enabled() {
			return fmt.Errorf("history is disabled (database.enabled is false)")
		}

		limit, _ := cmd.Flags().GetInt("limit")
		slug, _ := cmd.Flags().GetString("manga")

		var (
			rows []database.Download
			err  error
		)
		if slug != "" {
			rows, err = svc.ForManga(slug)
		} else {
			rows, err = svc.List(limit)
		}
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Println("No downloads yet")
			return nil
		}

		for _, row := range rows {
			line := fmt.Sprintf("%s  %s %s  %s",
				console.Pad(humanize.Time(row.CreatedAt), 16),
				utils.TruncateString(row.MangaTitle, 40), row.Chapters, row.Format)
			if row.Status == database.StatusFailed {
				printer.Error("%s  failed: %s", line, row.Error)
				continue
			}
			printer.Success("%s  %s  %s", line, humanize.Bytes(uint64(row.SizeBytes)), row.FilePath)
		}

		stats, err := svc.GetStats()
		if err != nil {
			return err
		}
		printer.Dim("%d downloads of %d manga, %s in total, %d failed",
			stats.TotalDownloads, stats.MangaCount, humanize.Bytes(uint64(stats.TotalBytes)), stats.FailedCount)
		return nil
	},
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove failed entries older than 30 days",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := history.NewService(database.GetDB())
		if !svc.Enabled() {
			return fmt.Errorf("history is disabled (database.enabled is false)")
		}
		return svc.Cleanup()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries to show (0 for all)")
	historyCmd.Flags().String("manga", "", "only show the downloads of this manga folder")
	historyCmd.AddCommand(historyCleanCmd)
}

// toolsCmd reports the external converters
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check the external conversion tools",
	Run: func(cmd *cobra.Command, args []string) {
		if info, err := tools.DetectKCC(cmd.Context(), cfg.Converter.KCCPath); err != nil {
			printer.Error("KCC: %v", err)
		} else {
			printer.Success("KCC: %s %s", info.Binary, info.Version)
		}

		if info, err := tools.DetectKindleGen(cmd.Context()); err != nil {
			printer.Warn("KindleGen: not found (KCC needs it for MOBI output)")
		} else {
			printer.Success("KindleGen: %s %s", info.Binary, info.Version)
		}
	},
}

// sourcesCmd lists the registered sources
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the available sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := newRunner(false); err != nil {
			return err
		}
		fmt.Printf("Available sources (%d):\n\n", providers.Count())
		for _, name := range providers.List() {
			fmt.Printf("- %s\n", name)
		}
		return nil
	},
}
