// Package inmanga reads manga from inmanga.com.
package inmanga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/providers"
	mhttp "github.com/justchokingaround/mangadl/internal/providers/http"
	"github.com/justchokingaround/mangadl/internal/providers/utils"
)

// Name is the registry name of this source
const Name = "inmanga"

// DefaultBaseURL is used when the client has no base URL
const DefaultBaseURL = "https://inmanga.com"

const (
	searchPath   = "/manga/getMangasConsultResult"
	chaptersPath = "/chapter/getall"
	pagesPath    = "/chapter/chapterIndexControls"
	imagePath    = "/page/getPageImage/"

	// searchTake is how many results the site returns per query
	searchTake = "10"
)

type InManga struct {
	client  *mhttp.Client
	baseURL string
	logger  *slog.Logger
}

// New creates the source. Requests go to the client's base URL.
func New(client *mhttp.Client, logger *slog.Logger) *InManga {
	base := strings.TrimRight(client.BaseURL(), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InManga{
		client:  client,
		baseURL: base,
		logger:  logger.With("source", Name),
	}
}

func (m *InManga) Name() string {
	return Name
}

// Search posts the query to the catalogue endpoint. The response is an HTML
// fragment of top-level links shaped /ver/manga/<slug>/<id>.
func (m *InManga) Search(ctx context.Context, query string) ([]providers.Manga, error) {
	form := url.Values{}
	form.Set("hfilter[generes][]", "-1")
	form.Set("filter[queryString]", query)
	form.Set("filter[skip]", "0")
	form.Set("filter[take]", searchTake)
	form.Set("filter[sortby]", "1")
	form.Set("filter[broadcastStatus]", "0")
	form.Set("filter[onlyFavorites]", "false")

	headers := map[string]string{
		"Origin":           m.baseURL,
		"Referer":          m.baseURL + "/manga/consult?suggestion=" + url.QueryEscape(query),
		"X-Requested-With": "XMLHttpRequest",
		"Accept":           "*/*",
	}

	resp, err := m.client.PostForm(ctx, m.baseURL+searchPath, form, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []providers.Manga
	doc.Find("body > a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		parts := strings.Split(strings.TrimRight(href, "/"), "/")
		if len(parts) < 2 {
			m.logger.Debug("skipping search result without slug", "href", href)
			return
		}

		title := utils.CleanText(s.Find("h4").First().Text())
		slug := parts[len(parts)-2]
		if title == "" {
			title = utils.DecodeTitle(slug)
		}

		results = append(results, providers.Manga{
			ID:    parts[len(parts)-1],
			Slug:  slug,
			Title: title,
		})
	})

	m.logger.Debug("search finished", "query", query, "results", len(results))
	return results, nil
}

// chapterList is the chapters response. Data holds another JSON document
// encoded as a string.
type chapterList struct {
	Data    string `json:"data"`
	Success bool   `json:"success"`
}

type chapterResult struct {
	Result []struct {
		Number         float64 `json:"Number"`
		Identification string  `json:"Identification"`
	} `json:"result"`
}

// Chapters lists every published chapter, sorted by number
func (m *InManga) Chapters(ctx context.Context, manga providers.Manga) ([]providers.Chapter, error) {
	endpoint := m.baseURL + chaptersPath + "?mangaIdentification=" + url.QueryEscape(manga.ID)

	resp, err := m.client.Get(ctx, endpoint, map[string]string{"X-Requested-With": "XMLHttpRequest"})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chapters of %s: %w", manga.Title, err)
	}

	var outer chapterList
	if err := json.Unmarshal(resp.Body(), &outer); err != nil {
		return nil, fmt.Errorf("failed to decode chapter list: %w", err)
	}
	if outer.Data == "" {
		return nil, fmt.Errorf("chapter list of %s is empty", manga.Title)
	}

	var inner chapterResult
	if err := json.Unmarshal([]byte(outer.Data), &inner); err != nil {
		return nil, fmt.Errorf("failed to decode chapter data: %w", err)
	}

	list := make([]providers.Chapter, 0, len(inner.Result))
	for _, c := range inner.Result {
		if c.Identification == "" {
			continue
		}
		list = append(list, providers.Chapter{
			ID:     c.Identification,
			Number: chapters.Number(c.Number),
		})
	}

	return providers.SortChapters(list), nil
}

// Pages reads the page selector of the chapter reader. Each option carries
// the page id as value and the page number as text.
func (m *InManga) Pages(ctx context.Context, chapter providers.Chapter) ([]providers.Page, error) {
	endpoint := m.baseURL + pagesPath + "?identification=" + url.QueryEscape(chapter.ID)

	resp, err := m.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pages of chapter %s: %w", chapter.Number, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	list := doc.Find("#PageList")
	if list.Length() == 0 {
		return nil, fmt.Errorf("chapter %s has no page list", chapter.Number)
	}

	var pages []providers.Page
	list.First().Children().Each(func(i int, s *goquery.Selection) {
		id, ok := s.Attr("value")
		if !ok || id == "" {
			return
		}
		number := utils.ParseInt(s.Text())
		if number <= 0 {
			number = i + 1
		}
		pages = append(pages, providers.Page{
			Number: number,
			URL:    m.ImageURL(id),
		})
	})

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// ImageURL is where the image of a page id is served
func (m *InManga) ImageURL(pageID string) string {
	return m.baseURL + imagePath + "?identification=" + url.QueryEscape(pageID)
}
