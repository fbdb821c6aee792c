package converter

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/justchokingaround/mangadl/internal/downloader/tools"
)

// corruptPattern is how KCC reports a page it cannot read
var corruptPattern = regexp.MustCompile(`Image file (.*?) is corrupted`)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// runKCC converts through Kindle Comic Converter. A chapter is converted
// from its own folder; several chapters are first copied side by side into
// a work folder. A page KCC reports as corrupted is deleted and the
// conversion runs again.
func (c *Converter) runKCC(ctx context.Context, job Job) error {
	info, err := tools.DetectKCC(ctx, c.cfg.KCCPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrToolMissing, err)
	}

	work, err := os.MkdirTemp(filepath.Dir(job.Output), ".kcc-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(work) }()

	input := job.Chapters[0].Dir
	if job.Options.Single || len(job.Chapters) > 1 {
		input = filepath.Join(work, "input")
		if err := copyChapters(job.Chapters, input); err != nil {
			return err
		}
	}

	outDir := filepath.Join(work, "output")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	args := kccArgs(job, outDir, input, c.cfg.MangaStyle, c.cfg.HighQuality)
	c.logger.Debug("running kcc", "binary", info.Binary, "version", info.Version, "args", args)

	for attempt := 0; ; attempt++ {
		out, err := c.run(ctx, info.Binary, args...)
		if err == nil {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		m := corruptPattern.FindSubmatch(out)
		if m == nil || attempt >= job.PageCount() {
			return fmt.Errorf("kcc failed: %w: %s", err, lastLines(string(out), 5))
		}
		if err := c.removeCorrupt(string(m[1]), job); err != nil {
			return err
		}
	}

	produced, err := findProduced(outDir, filepath.Base(input), job.Format.Ext())
	if err != nil {
		return err
	}
	return commit(produced, job.Output)
}

// kccArgs builds the KCC command line
func kccArgs(job Job, outDir, input string, mangaStyle, highQuality bool) []string {
	args := []string{"--output", outDir, "-p", job.Profile.Code}
	if mangaStyle {
		args = append(args, "--manga-style")
	}
	if highQuality {
		args = append(args, "--hq")
	}

	// batchsplit 0 keeps everything in one book, 2 makes a book per folder
	batchsplit := "2"
	if job.Options.Single {
		batchsplit = "0"
	}
	// -r 1 rotates spreads, 0 splits them
	rotate := "0"
	if job.Options.Rotate {
		rotate = "1"
	}
	args = append(args, "-f", string(job.Format), "--batchsplit", batchsplit, "-u", "-r", rotate)

	if !job.Options.FullSize {
		args = append(args, "-s")
	}
	return append(args, "--title", job.Title, input)
}

// removeCorrupt deletes a page KCC rejected, both where KCC read it and in
// the chapter folder it came from
func (c *Converter) removeCorrupt(reported string, job Job) error {
	page := filepath.Base(reported)
	chapter := filepath.Base(filepath.Dir(reported))
	c.cfg.Notifier.Error("%s/%s is corrupted, removing and trying again... (Cancel with Ctrl+C)", chapter, page)

	removed := false
	for _, ch := range job.Chapters {
		if ch.Number.String() != chapter {
			continue
		}
		local := filepath.Join(ch.Dir, page)
		c.cfg.Notifier.Dim("%s", local)
		if err := os.Remove(local); err == nil {
			removed = true
		}
	}
	if err := os.Remove(reported); err == nil {
		removed = true
	}

	if !removed {
		return fmt.Errorf("kcc reported %s as corrupted but it could not be removed", reported)
	}
	return nil
}

// copyChapters copies the pages of each chapter to <dest>/<number>/
func copyChapters(list []ChapterPages, dest string) error {
	for _, ch := range list {
		dir := filepath.Join(dest, ch.Number.String())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create work directory: %w", err)
		}
		for _, page := range ch.Pages {
			if err := copyFile(page, filepath.Join(dir, filepath.Base(page))); err != nil {
				return fmt.Errorf("failed to copy %s: %w", page, err)
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		return err
	}
	return destination.Close()
}

// findProduced locates the file KCC wrote. KCC names it after the input
// folder; anything else with the right extension is accepted when it is
// the only candidate.
func findProduced(outDir, base, ext string) (string, error) {
	expected := filepath.Join(outDir, base+ext)
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	matches, err := filepath.Glob(filepath.Join(outDir, "*"+ext))
	if err != nil {
		return "", err
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	return "", fmt.Errorf("kcc produced %d %s files, expected %s", len(matches), ext, filepath.Base(expected))
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
