// Package local reads manga that were already downloaded. The layout is
// <root>/<encoded title>/<chapter>/<page>.png.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/providers"
	"github.com/justchokingaround/mangadl/internal/providers/utils"
)

// Name is the registry name of this source
const Name = "local"

// PageExt is the extension of downloaded pages
const PageExt = ".png"

// suggestScore is the minimum similarity for a "did you mean" hint
const suggestScore = 0.5

// ErrNotDownloaded is returned for a manga or chapter missing on disk
var ErrNotDownloaded = errors.New("not downloaded")

type Local struct {
	root   string
	logger *slog.Logger
}

// New creates a source rooted at the download directory
func New(root string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{root: root, logger: logger.With("source", Name)}
}

func (l *Local) Name() string {
	return Name
}

// Root returns the download directory being read
func (l *Local) Root() string {
	return l.root
}

// Search matches the query against the manga folders. Folder names are
// encoded titles, compared upper-cased. An equal name is returned alone;
// otherwise every folder containing the query, or contained in it, is a
// candidate.
func (l *Local) Search(ctx context.Context, query string) ([]providers.Manga, error) {
	dirs, err := subdirs(l.root)
	if err != nil {
		return nil, err
	}

	encoded := strings.ToUpper(utils.EncodeTitle(strings.TrimSpace(query)))
	var results []providers.Manga
	for _, name := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cached := strings.ToUpper(name)
		manga := providers.Manga{
			ID:    filepath.Join(l.root, name),
			Slug:  name,
			Title: utils.DecodeTitle(name),
		}
		if cached == encoded {
			return []providers.Manga{manga}, nil
		}
		if strings.Contains(cached, encoded) || strings.Contains(encoded, cached) {
			results = append(results, manga)
		}
	}

	if len(results) == 0 && len(dirs) > 0 {
		titles := make([]string, len(dirs))
		for i, name := range dirs {
			titles[i] = utils.DecodeTitle(name)
		}
		if i := utils.BestMatch(query, titles, suggestScore); i >= 0 {
			return nil, fmt.Errorf("%q: %w, did you mean %q?", query, providers.ErrNotFound, titles[i])
		}
	}

	l.logger.Debug("search finished", "query", query, "results", len(results))
	return results, nil
}

// Chapters lists the chapter folders of a manga. Folders whose name is not
// a chapter number are ignored.
func (l *Local) Chapters(ctx context.Context, manga providers.Manga) ([]providers.Chapter, error) {
	dir := manga.ID
	if dir == "" {
		dir = filepath.Join(l.root, manga.Slug)
	}

	dirs, err := subdirs(dir)
	if err != nil {
		return nil, err
	}

	list := make([]providers.Chapter, 0, len(dirs))
	for _, name := range dirs {
		n, err := chapters.ParseNumber(name)
		if err != nil {
			l.logger.Debug("skipping folder", "path", filepath.Join(dir, name), "error", err)
			continue
		}
		list = append(list, providers.Chapter{
			ID:     filepath.Join(dir, name),
			Number: n,
		})
	}

	return providers.SortChapters(list), nil
}

// Pages lists the page images of a chapter folder in page order
func (l *Local) Pages(ctx context.Context, chapter providers.Chapter) ([]providers.Page, error) {
	if err := CheckDownloaded(chapter.ID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(chapter.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", chapter.ID, err)
	}

	var pages []providers.Page
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), PageExt) {
			continue
		}
		number := utils.ParseInt(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		if number <= 0 {
			continue
		}
		pages = append(pages, providers.Page{
			Number: number,
			URL:    filepath.Join(chapter.ID, e.Name()),
		})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// CheckDownloaded fails when dir is not an existing directory
func CheckDownloaded(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is %w, please download that chapter first. Try again this command without --cache", dir, ErrNotDownloaded)
	}
	return nil
}

// subdirs returns the names of the directories inside dir, sorted
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s does not exist: %w", dir, ErrNotDownloaded)
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
