package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// writePDF puts every page on its own PDF page at its original size
func (c *Converter) writePDF(ctx context.Context, job Job) error {
	work, err := os.MkdirTemp(filepath.Dir(job.Output), ".pdf-")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(work) }()

	if job.Options.RemoveAlpha {
		c.cfg.Notifier.Dim("Removing alpha channel from images for %s", job.Output)
	}

	var files []string
	for _, ch := range job.Chapters {
		for _, page := range ch.Pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := pdfReady(page, work, len(files), job.Options.RemoveAlpha)
			if err != nil {
				return err
			}
			files = append(files, file)
		}
	}

	tmp := filepath.Join(work, "out.pdf")
	if err := api.ImportImagesFile(files, tmp, nil, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to build PDF: %w", err)
	}
	return commit(tmp, job.Output)
}

// pdfReady returns a file pdfcpu can import for page. Pages are saved as
// .png whatever the site served, so anything that is not really a PNG, and
// transparent pages when removeAlpha is set, are re-encoded into work.
func pdfReady(page, work string, index int, removeAlpha bool) (string, error) {
	data, err := os.ReadFile(page)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", page, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", page, err)
	}
	if format == "png" && !removeAlpha {
		return page, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", page, err)
	}
	if format == "png" && !hasAlpha(img) {
		return page, nil
	}
	if removeAlpha {
		img = flatten(img)
	}

	out, err := encodePNG(img)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", page, err)
	}
	path := filepath.Join(work, fmt.Sprintf("%05d.png", index))
	if err := os.WriteFile(path, out, 0644); err != nil {
		return "", err
	}
	return path, nil
}
