// Package app runs a download: it finds the manga, selects chapters from a
// range expression, downloads the pages and converts them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/converter"
	"github.com/justchokingaround/mangadl/internal/database"
	"github.com/justchokingaround/mangadl/internal/downloader"
	"github.com/justchokingaround/mangadl/internal/history"
	"github.com/justchokingaround/mangadl/internal/providers"
)

// ErrAborted is returned when the user declines to continue
var ErrAborted = errors.New("aborted")

// ErrNoChapters is returned when the selection matches no chapter
var ErrNoChapters = errors.New("no chapters found")

// ChapterDownloader downloads the pages of one chapter
type ChapterDownloader interface {
	DownloadChapter(ctx context.Context, src providers.Source, manga providers.Manga, chapter providers.Chapter, dir string) (*downloader.Result, error)
}

// Converter writes one output file
type Converter interface {
	Convert(ctx context.Context, job converter.Job) (*converter.Output, error)
}

// Recorder stores what was produced
type Recorder interface {
	Record(entry history.Entry) (*database.Download, error)
}

// Printer shows progress to the user
type Printer interface {
	Title(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Info(format string, args ...any)
	Dim(format string, args ...any)
	Confirm(question string, assumeYes bool) bool
}

// Runner ties a source to the downloader and the converter
type Runner struct {
	Source     providers.Source
	Downloader ChapterDownloader
	Converter  Converter
	// History may be nil
	History Recorder
	Printer Printer
	Logger  *slog.Logger
}

// Options describe one run
type Options struct {
	Query string
	// Chapters is a range expression; empty selects every chapter
	Chapters  string
	Directory string
	Format    converter.Format
	Profile   converter.Profile
	Single    bool
	Rotate    bool
	FullSize  bool
	// RemoveAlpha only applies to PDF
	RemoveAlpha bool
	// Cache reads chapters from Directory instead of downloading them
	Cache     bool
	AssumeYes bool
}

// Report summarizes a run
type Report struct {
	Manga     providers.Manga
	Selection chapters.Selection
	Chapters  []converter.ChapterPages
	// Downloaded and Skipped count pages
	Downloaded int
	Skipped    int
	Bytes      int64
	Outputs    []converter.Output
}

// Lookup searches the manga and lists its chapters
func (r *Runner) Lookup(ctx context.Context, query string) (providers.Manga, []providers.Chapter, error) {
	results, err := r.Source.Search(ctx, query)
	if err != nil {
		return providers.Manga{}, nil, fmt.Errorf("search failed: %w", err)
	}

	manga, err := providers.Resolve(query, results)
	if err != nil {
		return providers.Manga{}, nil, err
	}

	list, err := r.Source.Chapters(ctx, manga)
	if err != nil {
		return manga, nil, fmt.Errorf("failed to list chapters of %s: %w", manga.Title, err)
	}
	return manga, providers.SortChapters(list), nil
}

// Run downloads and converts the chapters opts selects
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	logger := r.logger().With("query", opts.Query, "source", r.Source.Name())

	where := "online"
	if opts.Cache {
		where = "in " + opts.Directory
	}
	r.Printer.Title("Searching '%s' %s...", opts.Query, where)

	manga, list, err := r.Lookup(ctx, opts.Query)
	if err != nil {
		return nil, err
	}
	r.Printer.Info("%s", manga.Title)
	report := &Report{Manga: manga}

	numbers := providers.ChapterNumbers(list)
	if len(numbers) == 0 {
		return report, ErrNoChapters
	}
	if opts.Cache {
		r.Printer.Warn("Last downloaded chapter: %s", chapters.Max(numbers))
	}

	sel, err := chapters.Resolve(numbers, opts.Chapters)
	if err != nil {
		return report, err
	}
	report.Selection = sel
	logger.Debug("chapters selected", "requested", sel.Requested.String(), "found", len(sel.Found), "missing", sel.Missing.String())

	if !sel.Missing.Empty() {
		r.Printer.Error("Chapters not found: %s", chapters.Format(sel.Missing, "..", ", "))
		if len(sel.Found) > 0 && !r.Printer.Confirm("Continue with the chapters found?", opts.AssumeYes) {
			return report, ErrAborted
		}
	}
	if len(sel.Found) == 0 {
		return report, ErrNoChapters
	}

	index := providers.ChapterIndex(list)
	selected := make([]providers.Chapter, 0, len(sel.Found))
	for _, n := range sel.Found {
		selected = append(selected, index[n])
	}

	if opts.Cache {
		err = r.collect(ctx, selected, report)
	} else {
		err = r.download(ctx, opts, manga, selected, report)
	}
	if err != nil {
		return report, err
	}

	if opts.Format == converter.PNG {
		dir, _ := filepath.Abs(downloader.MangaDir(opts.Directory, manga.Slug))
		r.Printer.Success("DONE: %s", dir)
		r.record(manga, sel.Fragment(), opts.Format, dir, report.Bytes, nil)
		return report, nil
	}

	r.Printer.Info("Converting to %s...", opts.Format)
	for _, job := range r.jobs(opts, manga, sel, report.Chapters) {
		r.Printer.Info("%s", job.Title)

		out, err := r.Converter.Convert(ctx, job)
		label := chapterLabel(job)
		if err != nil {
			r.record(manga, label, opts.Format, job.Output, 0, err)
			return report, fmt.Errorf("failed to convert %s: %w", job.Title, err)
		}
		report.Outputs = append(report.Outputs, *out)

		path, _ := filepath.Abs(out.Path)
		if out.Skipped {
			r.Printer.Warn("%s - Already exists", path)
			continue
		}
		r.Printer.Success("DONE: %s (%s)", path, humanize.Bytes(uint64(out.Size)))
		r.record(manga, label, opts.Format, path, out.Size, nil)
	}

	logger.Info("run finished", "chapters", len(report.Chapters), "outputs", len(report.Outputs))
	return report, nil
}

// download fetches the selected chapters into the download directory
func (r *Runner) download(ctx context.Context, opts Options, manga providers.Manga, selected []providers.Chapter, report *Report) error {
	r.Printer.Dim("%d chapter%s will be downloaded - Cancel with Ctrl+C", len(selected), plural(len(selected)))

	for _, ch := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.Printer.Warn("Downloading %s %s", manga.Title, ch.Number)

		dir := downloader.ChapterDir(opts.Directory, manga.Slug, ch.Number)
		result, err := r.Downloader.DownloadChapter(ctx, r.Source, manga, ch, dir)
		if err != nil {
			return fmt.Errorf("failed to download %s %s: %w", manga.Title, ch.Number, err)
		}

		report.Downloaded += result.Downloaded
		report.Skipped += result.Skipped
		report.Bytes += result.Bytes
		report.Chapters = append(report.Chapters, converter.ChapterPages{
			Number: ch.Number,
			Dir:    result.Dir,
			Pages:  result.Pages,
		})
	}
	return nil
}

// collect reads the pages of already downloaded chapters
func (r *Runner) collect(ctx context.Context, selected []providers.Chapter, report *Report) error {
	for _, ch := range selected {
		pages, err := r.Source.Pages(ctx, ch)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return fmt.Errorf("chapter %s has no pages in %s", ch.Number, ch.ID)
		}

		paths := make([]string, len(pages))
		for i, p := range pages {
			paths[i] = p.URL
		}
		report.Chapters = append(report.Chapters, converter.ChapterPages{
			Number: ch.Number,
			Dir:    ch.ID,
			Pages:  paths,
		})
	}
	return nil
}

// jobs builds one job per chapter, or a single job for all of them
func (r *Runner) jobs(opts Options, manga providers.Manga, sel chapters.Selection, list []converter.ChapterPages) []converter.Job {
	convOpts := converter.Options{
		Rotate:      opts.Rotate,
		FullSize:    opts.FullSize,
		RemoveAlpha: opts.RemoveAlpha,
		Single:      opts.Single,
	}
	newJob := func(label string, chs []converter.ChapterPages) converter.Job {
		return converter.Job{
			Title:    manga.Title + " " + label,
			Series:   manga.Title,
			Chapters: chs,
			Output:   downloader.OutputPath(opts.Directory, manga.Title, label, opts.Format.Ext()),
			Format:   opts.Format,
			Profile:  opts.Profile,
			Options:  convOpts,
		}
	}

	if opts.Single {
		return []converter.Job{newJob(sel.Fragment(), list)}
	}

	jobs := make([]converter.Job, 0, len(list))
	for _, ch := range list {
		jobs = append(jobs, newJob(ch.Number.String(), []converter.ChapterPages{ch}))
	}
	return jobs
}

func (r *Runner) record(manga providers.Manga, label string, format converter.Format, path string, size int64, err error) {
	if r.History == nil {
		return
	}
	_, recErr := r.History.Record(history.Entry{
		MangaTitle: manga.Title,
		MangaSlug:  manga.Slug,
		Source:     r.Source.Name(),
		Chapters:   label,
		Format:     string(format),
		FilePath:   path,
		SizeBytes:  size,
		Err:        err,
	})
	if recErr != nil {
		r.logger().Warn("failed to record history", "error", recErr)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// chapterLabel renders the chapters of a job as "1-3,5"
func chapterLabel(job converter.Job) string {
	numbers := make([]chapters.Number, len(job.Chapters))
	for i, ch := range job.Chapters {
		numbers[i] = ch.Number
	}
	return chapters.Format(chapters.FromSorted(numbers), "-", ",")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
