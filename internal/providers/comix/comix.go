// Package comix reads manga from comix.to
package comix

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/justchokingaround/mangadl/internal/chapters"
	"github.com/justchokingaround/mangadl/internal/providers"
	mhttp "github.com/justchokingaround/mangadl/internal/providers/http"
)

// Name is the registry name of this source
const Name = "comix"

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "https://comix.to"

const (
	searchLimit = 20
	// chaptersLimit is the page size of the chapters API, which caps it at 100
	chaptersLimit = 100
)

// preferredGroups are picked, in order, when several scanlations exist
var preferredGroups = []string{"MangaPlus", "TCB Scans"}

type Comix struct {
	client  *mhttp.Client
	baseURL string
	logger  *slog.Logger
}

// New creates the source
func New(client *mhttp.Client, baseURL string, logger *slog.Logger) *Comix {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Comix{
		client:  client,
		baseURL: baseURL,
		logger:  logger.With("source", Name),
	}
}

func (c *Comix) Name() string {
	return Name
}

type searchResponse struct {
	Result struct {
		Items []struct {
			HashID string `json:"hash_id"`
			Slug   string `json:"slug"`
			Title  string `json:"title"`
		} `json:"items"`
	} `json:"result"`
}

// Search queries the catalogue API
func (c *Comix) Search(ctx context.Context, query string) ([]providers.Manga, error) {
	endpoint := fmt.Sprintf("%s/api/v2/manga?keyword=%s&limit=%d&page=1&order[relevance]=desc",
		c.baseURL, url.QueryEscape(query), searchLimit)

	resp, err := c.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", query, err)
	}

	var sr searchResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	results := make([]providers.Manga, 0, len(sr.Result.Items))
	for _, item := range sr.Result.Items {
		if item.HashID == "" {
			continue
		}
		results = append(results, providers.Manga{
			ID:    item.HashID,
			Slug:  item.Slug,
			Title: item.Title,
		})
	}

	c.logger.Debug("search finished", "query", query, "results", len(results))
	return results, nil
}

type chapterItem struct {
	ChapterID       int         `json:"chapter_id"`
	Number          json.Number `json:"number"`
	Name            string      `json:"name"`
	IsOfficial      int         `json:"is_official"`
	ScanlationGroup struct {
		Name string `json:"name"`
	} `json:"scanlation_group"`
}

type chaptersResponse struct {
	Result struct {
		Items      []chapterItem `json:"items"`
		Pagination struct {
			LastPage    int `json:"last_page"`
			CurrentPage int `json:"current_page"`
		} `json:"pagination"`
	} `json:"result"`
}

// Chapters walks the paginated chapters API. A number released by several
// groups resolves to one chapter, see pickRelease.
func (c *Comix) Chapters(ctx context.Context, manga providers.Manga) ([]providers.Chapter, error) {
	var items []chapterItem
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/api/v2/manga/%s/chapters?limit=%d&page=%d&order[number]=asc",
			c.baseURL, url.PathEscape(manga.ID), chaptersLimit, page)

		resp, err := c.client.Get(ctx, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chapters of %s: %w", manga.Title, err)
		}

		var cr chaptersResponse
		if err := json.Unmarshal(resp.Body(), &cr); err != nil {
			return nil, fmt.Errorf("failed to decode chapter list: %w", err)
		}
		items = append(items, cr.Result.Items...)

		p := cr.Result.Pagination
		if len(cr.Result.Items) == 0 || p.CurrentPage >= p.LastPage {
			break
		}
	}

	releases := make(map[chapters.Number][]chapterItem)
	for _, item := range items {
		n, err := chapters.ParseNumber(item.Number.String())
		if err != nil {
			c.logger.Debug("skipping chapter", "number", item.Number.String(), "error", err)
			continue
		}
		releases[n] = append(releases[n], item)
	}

	list := make([]providers.Chapter, 0, len(releases))
	for n, candidates := range releases {
		item := pickRelease(candidates)
		list = append(list, providers.Chapter{
			ID:     fmt.Sprintf("/title/%s-%s/%d-chapter-%s", manga.ID, manga.Slug, item.ChapterID, n),
			Number: n,
			Title:  item.Name,
		})
	}

	return providers.SortChapters(list), nil
}

// pickRelease prefers official releases, then the preferred groups, then
// whatever was listed first
func pickRelease(items []chapterItem) chapterItem {
	for _, item := range items {
		if item.IsOfficial == 1 {
			return item
		}
	}
	for _, group := range preferredGroups {
		for _, item := range items {
			if strings.EqualFold(item.ScanlationGroup.Name, group) {
				return item
			}
		}
	}
	return items[0]
}

// Pages extracts the image list embedded in the chapter reader page
func (c *Comix) Pages(ctx context.Context, chapter providers.Chapter) ([]providers.Page, error) {
	target := c.baseURL + chapter.ID

	resp, err := c.client.Get(ctx, target, map[string]string{"Referer": target})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pages of chapter %s: %w", chapter.Number, err)
	}

	raw, err := extractImages(string(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("chapter %s: %w", chapter.Number, err)
	}

	var images []struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		return nil, fmt.Errorf("failed to parse images of chapter %s: %w", chapter.Number, err)
	}

	pages := make([]providers.Page, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		pages = append(pages, providers.Page{Number: len(pages) + 1, URL: img.URL})
	}
	return pages, nil
}

// extractImages cuts the "images" array out of the page. It is embedded in
// the Next.js payload either escaped inside a string or as plain JSON.
func extractImages(body string) (string, error) {
	for _, marker := range []struct {
		key     string
		escaped bool
	}{
		{`\"images\":`, true},
		{`"images":`, false},
	} {
		start := strings.Index(body, marker.key)
		if start == -1 {
			continue
		}

		rest := body[start+len(marker.key):]
		end := strings.Index(rest, "}]")
		if end == -1 {
			return "", fmt.Errorf("image list is not terminated")
		}

		raw := rest[:end+2]
		if marker.escaped {
			raw = strings.ReplaceAll(raw, `\"`, `"`)
			raw = strings.ReplaceAll(raw, `\\`, `\`)
		}
		return raw, nil
	}
	return "", fmt.Errorf("no image list found")
}
