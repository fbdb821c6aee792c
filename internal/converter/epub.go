package converter

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const fixedLayoutCSS = `@page { margin: 0; }
body { display: block; margin: 0; padding: 0; }
`

// navEntry points a table of contents line at the first page of a chapter
type navEntry struct {
	label string
	page  int
}

// writeEPUB builds a fixed-layout EPUB3 with one XHTML document per page
func (c *Converter) writeEPUB(ctx context.Context, job Job) error {
	rtl := c.cfg.MangaStyle
	pages, err := preparePages(ctx, job, rtl)
	if err != nil {
		return err
	}

	tmp := job.Output + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create EPUB file: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}()

	zw := zip.NewWriter(f)

	// mimetype must be the first entry and uncompressed
	mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("failed to create mimetype: %w", err)
	}
	if _, err := mw.Write([]byte("application/epub+zip")); err != nil {
		return fmt.Errorf("failed to write mimetype: %w", err)
	}

	id := uuid.NewString()
	nav := navEntries(job, pages)

	files := []struct {
		name string
		data []byte
	}{
		{"META-INF/container.xml", []byte(containerXML)},
		{"OEBPS/content.opf", generateOPF(id, job, pages, rtl)},
		{"OEBPS/toc.ncx", generateNCX(id, job.Title, nav)},
		{"OEBPS/nav.xhtml", generateNav(job.Title, nav)},
		{"OEBPS/styles.css", []byte(fixedLayoutCSS)},
	}
	for _, file := range files {
		if err := writeZipFile(zw, file.name, file.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.name, err)
		}
	}

	for i, page := range pages {
		name := fmt.Sprintf("OEBPS/page%04d.xhtml", i+1)
		if err := writeZipFile(zw, name, generatePage(page, i)); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		name = fmt.Sprintf("OEBPS/images/img%04d.png", i+1)
		if err := writeZipFile(zw, name, page.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize EPUB: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close EPUB: %w", err)
	}
	return commit(tmp, job.Output)
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// navEntries returns one entry per chapter, pointing at its first page
func navEntries(job Job, pages []pageImage) []navEntry {
	var entries []navEntry
	seen := -1
	for i, p := range pages {
		if p.chapter == seen {
			continue
		}
		seen = p.chapter
		entries = append(entries, navEntry{
			label: "Chapter " + job.Chapters[p.chapter].Number.String(),
			page:  i + 1,
		})
	}
	return entries
}

func generateOPF(id string, job Job, pages []pageImage, rtl bool) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="uid">urn:uuid:`)
	buf.WriteString(id)
	buf.WriteString(`</dc:identifier>
    <dc:title>`)
	buf.WriteString(html.EscapeString(job.Title))
	buf.WriteString(`</dc:title>
    <dc:language>es</dc:language>
`)
	if job.Series != "" {
		buf.WriteString(`    <meta property="belongs-to-collection" id="series-1">`)
		buf.WriteString(html.EscapeString(job.Series))
		buf.WriteString(`</meta>
    <meta refines="#series-1" property="collection-type">series</meta>
`)
	}
	buf.WriteString(`    <meta property="dcterms:modified">`)
	buf.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	buf.WriteString(`</meta>
    <meta property="rendition:layout">pre-paginated</meta>
    <meta property="rendition:spread">landscape</meta>
    <meta property="rendition:orientation">portrait</meta>
    <meta name="cover" content="img0001"/>
    <meta name="fixed-layout" content="true"/>
    <meta name="original-resolution" content="`)
	buf.WriteString(fmt.Sprintf("%dx%d", job.Profile.Width, job.Profile.Height))
	buf.WriteString(`"/>
`)
	if rtl {
		buf.WriteString(`    <meta name="primary-writing-mode" content="horizontal-rl"/>
`)
	}
	buf.WriteString(`  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="nav" href="nav.xhtml" properties="nav" media-type="application/xhtml+xml"/>
    <item id="css" href="styles.css" media-type="text/css"/>
`)
	for i := range pages {
		buf.WriteString(fmt.Sprintf(`    <item id="page%04d" href="page%04d.xhtml" media-type="application/xhtml+xml"/>
`, i+1, i+1))
		buf.WriteString(fmt.Sprintf(`    <item id="img%04d" href="images/img%04d.png" media-type="image/png"`, i+1, i+1))
		if i == 0 {
			buf.WriteString(` properties="cover-image"`)
		}
		buf.WriteString(`/>
`)
	}

	direction := "ltr"
	if rtl {
		direction = "rtl"
	}
	buf.WriteString(`  </manifest>
  <spine page-progression-direction="`)
	buf.WriteString(direction)
	buf.WriteString(`" toc="ncx">
`)

	// Spreads alternate starting on the reading side
	first, second := "left", "right"
	if rtl {
		first, second = second, first
	}
	for i := range pages {
		spread := first
		if i%2 == 1 {
			spread = second
		}
		buf.WriteString(fmt.Sprintf(`    <itemref idref="page%04d" properties="rendition:page-spread-%s"/>
`, i+1, spread))
	}

	buf.WriteString(`  </spine>
</package>
`)
	return buf.Bytes()
}

func generateNCX(id, title string, nav []navEntry) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:uuid:`)
	buf.WriteString(id)
	buf.WriteString(`"/>
    <meta name="dtb:depth" content="1"/>
  </head>
  <docTitle>
    <text>`)
	buf.WriteString(html.EscapeString(title))
	buf.WriteString(`</text>
  </docTitle>
  <navMap>
`)
	for i, entry := range nav {
		buf.WriteString(fmt.Sprintf(`    <navPoint id="navpoint%d" playOrder="%d">
      <navLabel>
        <text>%s</text>
      </navLabel>
      <content src="page%04d.xhtml"/>
    </navPoint>
`, i+1, i+1, html.EscapeString(entry.label), entry.page))
	}
	buf.WriteString(`  </navMap>
</ncx>
`)
	return buf.Bytes()
}

func generateNav(title string, nav []navEntry) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
<title>`)
	buf.WriteString(html.EscapeString(title))
	buf.WriteString(`</title>
<meta charset="utf-8"/>
</head>
<body>
<nav epub:type="toc" id="toc">
<ol>
`)
	for _, entry := range nav {
		buf.WriteString(fmt.Sprintf(`<li><a href="page%04d.xhtml">%s</a></li>
`, entry.page, html.EscapeString(entry.label)))
	}
	buf.WriteString(`</ol>
</nav>
</body>
</html>
`)
	return buf.Bytes()
}

// generatePage wraps one image in a viewport the size of the image
func generatePage(page pageImage, index int) []byte {
	var buf bytes.Buffer

	w := strconv.Itoa(page.width)
	h := strconv.Itoa(page.height)

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
<title>Page `)
	buf.WriteString(strconv.Itoa(index + 1))
	buf.WriteString(`</title>
<link href="styles.css" type="text/css" rel="stylesheet"/>
<meta name="viewport" content="width=`)
	buf.WriteString(w)
	buf.WriteString(`, height=`)
	buf.WriteString(h)
	buf.WriteString(`"/>
</head>
<body>
<div style="text-align:center;top:0%;">
<img width="`)
	buf.WriteString(w)
	buf.WriteString(`" height="`)
	buf.WriteString(h)
	buf.WriteString(fmt.Sprintf(`" src="images/img%04d.png"/>
</div>
</body>
</html>
`, index+1))
	return buf.Bytes()
}
