// Package converter turns downloaded chapter pages into e-reader files.
//
// PDF, CBZ and EPUB are written in process. MOBI is delegated to Kindle
// Comic Converter (KCC), which must be installed.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/justchokingaround/mangadl/internal/chapters"
)

// ErrToolMissing is returned when an external converter is not installed
var ErrToolMissing = errors.New("conversion tool not found")

// ErrNoPages is returned for a job without a single page
var ErrNoPages = errors.New("no pages to convert")

// Format is an output format
type Format string

const (
	// PNG keeps the downloaded pages as they are
	PNG  Format = "PNG"
	PDF  Format = "PDF"
	CBZ  Format = "CBZ"
	EPUB Format = "EPUB"
	MOBI Format = "MOBI"
)

// Formats lists every supported format
var Formats = []Format{PNG, PDF, CBZ, EPUB, MOBI}

// ParseFormat reads a format name ignoring case
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}

	names := make([]string, len(Formats))
	for i, known := range Formats {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown format %q (available: %s)", s, strings.Join(names, ", "))
}

// Ext is the file extension, with the dot
func (f Format) Ext() string {
	return "." + strings.ToLower(string(f))
}

// NeedsKCC reports whether the format is produced by KCC
func (f Format) NeedsKCC() bool {
	return f == MOBI
}

// ChapterPages are the page files of one chapter in reading order
type ChapterPages struct {
	Number chapters.Number
	Dir    string
	Pages  []string
}

// Options tune the image handling
type Options struct {
	// Rotate turns double pages instead of splitting them
	Rotate bool
	// FullSize keeps the original resolution
	FullSize bool
	// RemoveAlpha flattens transparent pages onto white for PDF
	RemoveAlpha bool
	// Single is set when all chapters go into one file
	Single bool
}

// Job is one output file
type Job struct {
	// Title is written into the file metadata
	Title string
	// Series is the manga title
	Series   string
	Chapters []ChapterPages
	Output   string
	Format   Format
	Profile  Profile
	Options  Options
}

// PageCount is the number of input pages
func (j Job) PageCount() int {
	n := 0
	for _, ch := range j.Chapters {
		n += len(ch.Pages)
	}
	return n
}

// Output describes a written file
type Output struct {
	Path string
	Size int64
	// Skipped is set when the file already existed
	Skipped bool
}

// Notifier receives user-facing messages during a conversion
type Notifier interface {
	Error(format string, args ...any)
	Dim(format string, args ...any)
}

// Config configure a Converter
type Config struct {
	// KCCPath is the KCC binary; empty looks it up in PATH
	KCCPath     string
	MangaStyle  bool
	HighQuality bool
	Notifier    Notifier
	Logger      *slog.Logger
}

// Converter writes jobs to disk
type Converter struct {
	cfg    Config
	logger *slog.Logger
	// run executes an external command and returns its combined output
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates a converter
func New(cfg Config) *Converter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	return &Converter{
		cfg:    cfg,
		logger: logger.With("component", "converter"),
		run:    runCommand,
	}
}

// Convert writes job.Output. An existing output is left untouched and
// reported as skipped.
func (c *Converter) Convert(ctx context.Context, job Job) (*Output, error) {
	if info, err := os.Stat(job.Output); err == nil {
		return &Output{Path: job.Output, Size: info.Size(), Skipped: true}, nil
	}
	if job.PageCount() == 0 {
		return nil, fmt.Errorf("%s: %w", job.Output, ErrNoPages)
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if job.Profile.Code == "" {
		job.Profile = DefaultProfile()
	}

	logger := c.logger.With("format", string(job.Format), "output", job.Output)
	logger.Info("converting", "chapters", len(job.Chapters), "pages", job.PageCount())

	var err error
	switch job.Format {
	case PDF:
		err = c.writePDF(ctx, job)
	case CBZ:
		err = c.writeCBZ(ctx, job)
	case EPUB:
		err = c.writeEPUB(ctx, job)
	case MOBI:
		err = c.runKCC(ctx, job)
	case PNG:
		return nil, fmt.Errorf("format %s needs no conversion", job.Format)
	default:
		return nil, fmt.Errorf("unsupported format: %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(job.Output)
	if err != nil {
		return nil, fmt.Errorf("output was not written: %w", err)
	}
	logger.Info("converted", "size", info.Size())
	return &Output{Path: job.Output, Size: info.Size()}, nil
}

// commit moves a finished temporary file into place
func commit(tmp, dest string) error {
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to finalize %s: %w", filepath.Base(dest), err)
	}
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Error(string, ...any) {}
func (nopNotifier) Dim(string, ...any)   {}
