// Package searchindex adapts an article search engine that only exposes
// HTML result pages; items are extracted with goquery.
package searchindex

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
	"content_aggregator/internal/source"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Source struct {
	httpClient *http.Client
	baseURL    string
	families   domain.TagFamilies
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg config.EndpointConfig, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		families:   domain.DefaultTagFamilies(),
		logger:     logger.With("source", domain.PlatformSearchIndex),
		now:        time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformSearchIndex
}

// FetchForCreator searches for the account by name (type=1) and collects
// its recent articles; the index has no stable per-account feed.
func (s *Source) FetchForCreator(ctx context.Context, externalID string, limit int) ([]domain.CandidateItem, error) {
	return s.query(ctx, 1, externalID, limit)
}

// Search runs a full-text article query (type=2).
func (s *Source) Search(ctx context.Context, keyword string, limit int) ([]domain.CandidateItem, error) {
	return s.query(ctx, 2, keyword, limit)
}

func (s *Source) query(ctx context.Context, queryType int, term string, limit int) ([]domain.CandidateItem, error) {
	u := fmt.Sprintf("%s/weixin?type=%d&query=%s&page=1", s.baseURL, queryType, url.QueryEscape(term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.NewAdapterError(domain.PlatformSearchIndex, domain.ErrTransient,
			fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewAdapterError(domain.PlatformSearchIndex, domain.ErrTransient,
			fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, source.StatusError(domain.PlatformSearchIndex, resp.StatusCode)
	}

	// Throttled clients get redirected to a captcha page.
	if strings.Contains(resp.Request.URL.Path, "antispider") {
		return nil, domain.NewAdapterError(domain.PlatformSearchIndex, domain.ErrRateLimited,
			fmt.Errorf("captcha challenge"))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, domain.NewAdapterError(domain.PlatformSearchIndex, domain.ErrMalformed,
			fmt.Errorf("parse html: %w", err))
	}

	if doc.Find("#seccodeImage").Length() > 0 {
		return nil, domain.NewAdapterError(domain.PlatformSearchIndex, domain.ErrRateLimited,
			fmt.Errorf("captcha challenge"))
	}

	var items []domain.CandidateItem
	doc.Find(".results .result, .news-list li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}
		if item, ok := s.normalizeResult(sel); ok {
			items = append(items, item)
		}
		return true
	})

	return items, nil
}

func (s *Source) normalizeResult(sel *goquery.Selection) (domain.CandidateItem, bool) {
	title := domain.CleanText(sel.Find("h3 a, .title").First().Text())
	link, _ := sel.Find("h3 a, .title a").First().Attr("href")
	if title == "" || link == "" {
		return domain.CandidateItem{}, false
	}
	if strings.HasPrefix(link, "//") {
		link = "https:" + link
	} else if strings.HasPrefix(link, "/") {
		link = s.baseURL + link
	}

	desc := domain.CleanText(sel.Find("p.txt-info, .summary").First().Text())
	author := domain.CleanText(sel.Find(".account, .author").First().Text())
	timeText := sel.Find("span.s2, .time").First().Text()
	thumbnail, _ := sel.Find("img").First().Attr("src")

	return domain.CandidateItem{
		Platform:           domain.PlatformSearchIndex,
		SourceURL:          link,
		Title:              title,
		Description:        desc,
		ThumbnailURL:       thumbnail,
		CreatorDisplayName: author,
		ContentType:        domain.ContentTypeArticle,
		PublishedAt:        source.ParseTime(timeText, s.now()),
		DurationMinutes:    (len([]rune(desc)) + 499) / 500,
		Tags:               s.families.ExtractTags(title, desc),
		Priority:           articlePriority(title, desc),
		Summary:            domain.Summarize(title, desc),
	}, true
}

func articlePriority(title, desc string) int {
	priority := 5

	text := strings.ToLower(title + " " + desc)
	if strings.Contains(text, "ai") || strings.Contains(text, "人工智能") {
		priority += 2
	}
	if strings.Contains(text, "教程") || strings.Contains(text, "入门") {
		priority++
	}

	return domain.ClampPriority(priority)
}
