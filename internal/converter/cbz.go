package converter

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// comicInfo is the ComicInfo.xml read by comic readers
type comicInfo struct {
	XMLName   xml.Name   `xml:"ComicInfo"`
	Title     string     `xml:"Title,omitempty"`
	Series    string     `xml:"Series,omitempty"`
	Number    string     `xml:"Number,omitempty"`
	PageCount int        `xml:"PageCount,omitempty"`
	Manga     string     `xml:"Manga,omitempty"`
	Pages     *comicList `xml:"Pages,omitempty"`
}

type comicList struct {
	Page []comicPage `xml:"Page"`
}

type comicPage struct {
	Image       int    `xml:"Image,attr"`
	Type        string `xml:"Type,attr,omitempty"`
	ImageWidth  int    `xml:"ImageWidth,attr,omitempty"`
	ImageHeight int    `xml:"ImageHeight,attr,omitempty"`
}

// writeCBZ packs the processed pages into a zip with ComicInfo.xml
func (c *Converter) writeCBZ(ctx context.Context, job Job) error {
	pages, err := preparePages(ctx, job, c.cfg.MangaStyle)
	if err != nil {
		return err
	}

	tmp := job.Output + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create CBZ file: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}()

	zw := zip.NewWriter(f)

	for i, page := range pages {
		name := fmt.Sprintf("%04d.png", i+1)
		if job.Options.Single {
			name = filepath.ToSlash(filepath.Join(job.Chapters[page.chapter].Number.String(), name))
		}
		// PNG data is already compressed
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("failed to add page to CBZ: %w", err)
		}
		if _, err := w.Write(page.data); err != nil {
			return fmt.Errorf("failed to add page to CBZ: %w", err)
		}
	}

	info, err := marshalComicInfo(newComicInfo(job, pages, c.cfg.MangaStyle))
	if err != nil {
		return fmt.Errorf("failed to marshal ComicInfo.xml: %w", err)
	}
	w, err := zw.Create("ComicInfo.xml")
	if err != nil {
		return fmt.Errorf("failed to create ComicInfo.xml: %w", err)
	}
	if _, err := w.Write(info); err != nil {
		return fmt.Errorf("failed to write ComicInfo.xml: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize CBZ: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close CBZ: %w", err)
	}
	return commit(tmp, job.Output)
}

func newComicInfo(job Job, pages []pageImage, mangaStyle bool) *comicInfo {
	info := &comicInfo{
		Title:     job.Title,
		Series:    job.Series,
		PageCount: len(pages),
		Pages:     &comicList{},
	}
	if len(job.Chapters) == 1 {
		info.Number = job.Chapters[0].Number.String()
	}
	if mangaStyle {
		info.Manga = "YesAndRightToLeft"
	}

	for i, page := range pages {
		p := comicPage{Image: i, ImageWidth: page.width, ImageHeight: page.height}
		if i == 0 {
			p.Type = "FrontCover"
		}
		info.Pages.Page = append(info.Pages.Page, p)
	}
	return info
}

func marshalComicInfo(info *comicInfo) ([]byte, error) {
	output, err := xml.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}
