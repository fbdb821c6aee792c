package converter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"runtime"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// pageImage is a page ready to be packed
type pageImage struct {
	// chapter is the index into Job.Chapters
	chapter int
	data    []byte
	width   int
	height  int
}

// loadImage decodes an image file whatever its extension says
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// isDoublePage reports a spread: a page wider than tall
func isDoublePage(img image.Image) bool {
	b := img.Bounds()
	return b.Dx() > b.Dy()
}

// splitSpread cuts a double page in two. Manga read right to left, so the
// right half comes first.
func splitSpread(img image.Image, rightToLeft bool) []image.Image {
	b := img.Bounds()
	mid := b.Min.X + b.Dx()/2
	left := crop(img, image.Rect(b.Min.X, b.Min.Y, mid, b.Max.Y))
	right := crop(img, image.Rect(mid, b.Min.Y, b.Max.X, b.Max.Y))
	if rightToLeft {
		return []image.Image{right, left}
	}
	return []image.Image{left, right}
}

func crop(img image.Image, r image.Rectangle) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// rotate90 turns an image a quarter clockwise
func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(b.Max.Y-1-y, x-b.Min.X, img.At(x, y))
		}
	}
	return dst
}

// fitTo scales img to the largest size that fits w x h, keeping the aspect
// ratio. Smaller pages are stretched up as well.
func fitTo(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w <= 0 || h <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return img
	}

	ratio := min(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	nw := max(int(float64(b.Dx())*ratio), 1)
	nh := max(int(float64(b.Dy())*ratio), 1)
	if nw == b.Dx() && nh == b.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// hasAlpha reports whether any pixel is not fully opaque
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// flatten draws img over a white background
func flatten(img image.Image) image.Image {
	if !hasAlpha(img) {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// processPage applies the e-reader pipeline to one page file: spreads are
// split (or rotated), pages are fitted to the profile unless FullSize and
// transparency is flattened.
func processPage(path string, profile Profile, opts Options, rightToLeft bool) ([]image.Image, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}

	parts := []image.Image{img}
	if isDoublePage(img) {
		if opts.Rotate {
			parts = []image.Image{rotate90(img)}
		} else {
			parts = splitSpread(img, rightToLeft)
		}
	}

	for i, p := range parts {
		if !opts.FullSize {
			p = fitTo(p, profile.Width, profile.Height)
		}
		parts[i] = flatten(p)
	}
	return parts, nil
}

// preparePages runs processPage over every page of the job in parallel and
// returns the encoded results in reading order
func preparePages(ctx context.Context, job Job, rightToLeft bool) ([]pageImage, error) {
	type source struct {
		chapter int
		path    string
	}
	var sources []source
	for ci, ch := range job.Chapters {
		for _, p := range ch.Pages {
			sources = append(sources, source{chapter: ci, path: p})
		}
	}

	results := make([][]pageImage, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts, err := processPage(src.path, job.Profile, job.Options, rightToLeft)
			if err != nil {
				return err
			}
			for _, part := range parts {
				data, err := encodePNG(part)
				if err != nil {
					return fmt.Errorf("failed to encode %s: %w", src.path, err)
				}
				b := part.Bounds()
				results[i] = append(results[i], pageImage{
					chapter: src.chapter,
					data:    data,
					width:   b.Dx(),
					height:  b.Dy(),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pages []pageImage
	for _, r := range results {
		pages = append(pages, r...)
	}
	return pages, nil
}
