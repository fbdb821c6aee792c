package downloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/justchokingaround/mangadl/internal/providers"
)

// ErrCorruptImage is returned when a page still cannot be decoded after
// being downloaded twice
var ErrCorruptImage = errors.New("image file is corrupted")

// Fetcher downloads the body behind a URL
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Reporter is told about every page as it is handled
type Reporter interface {
	Exists(label string)
	Progress(label string, done, total int)
}

// Options configure a Downloader
type Options struct {
	// Concurrency is the number of pages fetched at once
	Concurrency int
	// MinFreeSpace is the free space in MB required before a chapter starts
	MinFreeSpace int64
}

// Downloader saves the pages of a chapter as <dir>/<page>.png
type Downloader struct {
	fetcher  Fetcher
	reporter Reporter
	opts     Options
	logger   *slog.Logger
}

// Result describes a downloaded chapter
type Result struct {
	Chapter providers.Chapter
	Dir     string
	// Pages are the page files in page order
	Pages      []string
	Downloaded int
	Skipped    int
	Bytes      int64
}

// New creates a downloader. A nil reporter prints nothing.
func New(fetcher Fetcher, reporter Reporter, opts Options, logger *slog.Logger) *Downloader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		fetcher:  fetcher,
		reporter: reporter,
		opts:     opts,
		logger:   logger,
	}
}

// DownloadChapter fetches the page list of chapter from src and downloads
// every page into dir. Pages already on disk are kept.
func (d *Downloader) DownloadChapter(ctx context.Context, src providers.Source, manga providers.Manga, chapter providers.Chapter, dir string) (*Result, error) {
	logger := d.logger.With("manga", manga.Title, "chapter", chapter.Number.String())

	pages, err := src.Pages(ctx, chapter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("chapter %s has no pages", chapter.Number)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chapter directory: %w", err)
	}
	if err := CheckDiskSpace(dir, d.opts.MinFreeSpace); err != nil {
		return nil, err
	}

	result := &Result{
		Chapter: chapter,
		Dir:     dir,
		Pages:   make([]string, len(pages)),
	}

	var (
		mu   sync.Mutex
		done atomic.Int32
	)
	total := len(pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for i, page := range pages {
		path := PagePath(dir, page.Number)
		result.Pages[i] = path

		g.Go(func() error {
			label := fmt.Sprintf("Page %d/%d", page.Number, total)

			if fileExists(path) {
				done.Add(1)
				d.reporter.Exists(label)
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			size, err := d.downloadPage(gctx, page, path)
			if err != nil {
				return fmt.Errorf("page %d: %w", page.Number, err)
			}

			d.reporter.Progress(label, int(done.Add(1)), total)
			mu.Lock()
			result.Downloaded++
			result.Bytes += size
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	logger.Info("chapter downloaded", "pages", total, "downloaded", result.Downloaded, "skipped", result.Skipped)
	return result, nil
}

// downloadPage fetches a page and writes it to path once it decodes as an
// image. An undecodable body is fetched one more time.
func (d *Downloader) downloadPage(ctx context.Context, page providers.Page, path string) (int64, error) {
	var data []byte
	for attempt := 1; ; attempt++ {
		var err error
		data, err = d.fetcher.Download(ctx, page.URL)
		if err != nil {
			return 0, err
		}

		err = verifyImage(data)
		if err == nil {
			break
		}
		if attempt == 2 {
			return 0, fmt.Errorf("%w: %s: %v", ErrCorruptImage, path, err)
		}
		d.logger.Warn("page is corrupted, trying again", "path", path, "error", err)
	}

	if err := writeFile(path, data); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// verifyImage checks that data starts with a known image header
func verifyImage(data []byte) error {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err
}

// writeFile writes through a temporary file so an interrupted download does
// not leave a page that looks complete
func writeFile(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type nopReporter struct{}

func (nopReporter) Exists(string)             {}
func (nopReporter) Progress(string, int, int) {}
