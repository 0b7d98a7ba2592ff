// Package videosite adapts the video platform's public JSON API.
package videosite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
	"content_aggregator/internal/source"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Source struct {
	httpClient *http.Client
	baseURL    string
	searchURL  string
	families   domain.TagFamilies
	logger     *slog.Logger
	now        func() time.Time
}

func New(cfg config.EndpointConfig, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		searchURL:  strings.TrimSuffix(cfg.SearchURL, "/"),
		families:   domain.DefaultTagFamilies(),
		logger:     logger.With("source", domain.PlatformVideoSite),
		now:        time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformVideoSite
}

// FetchForCreator lists an account's latest uploads, newest first.
func (s *Source) FetchForCreator(ctx context.Context, externalID string, limit int) ([]domain.CandidateItem, error) {
	u := fmt.Sprintf("%s/x/space/arc/search?mid=%s&ps=%d&pn=1&order=pubdate",
		s.baseURL, url.QueryEscape(externalID), limit)

	var resp uploadsResponse
	if err := s.get(ctx, u, &resp); err != nil {
		return nil, err
	}

	switch resp.Code {
	case 0:
	case -404:
		return nil, domain.NewAdapterError(domain.PlatformVideoSite, domain.ErrNotFound,
			fmt.Errorf("account %s: %s", externalID, resp.Message))
	case -412:
		return nil, domain.NewAdapterError(domain.PlatformVideoSite, domain.ErrRateLimited,
			fmt.Errorf("%s", resp.Message))
	default:
		// Unexpected envelope codes degrade to zero results.
		s.logger.Warn("unexpected api code, treating as empty",
			"code", resp.Code,
			"message", resp.Message,
		)
		return nil, nil
	}

	items := make([]domain.CandidateItem, 0, len(resp.Data.List.VList))
	for _, v := range resp.Data.List.VList {
		if item, ok := s.normalizeUpload(v); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Search queries the platform's video search index.
func (s *Source) Search(ctx context.Context, keyword string, limit int) ([]domain.CandidateItem, error) {
	u := fmt.Sprintf("%s/x/web-interface/search/type?search_type=video&keyword=%s&page=1",
		s.searchURL, url.QueryEscape(keyword))

	var resp searchResponse
	if err := s.get(ctx, u, &resp); err != nil {
		return nil, err
	}

	if resp.Code != 0 {
		if resp.Code == -412 {
			return nil, domain.NewAdapterError(domain.PlatformVideoSite, domain.ErrRateLimited,
				fmt.Errorf("%s", resp.Message))
		}
		s.logger.Warn("unexpected api code, treating as empty",
			"code", resp.Code,
			"message", resp.Message,
		)
		return nil, nil
	}

	items := make([]domain.CandidateItem, 0, limit)
	for _, r := range resp.Data.Result {
		if len(items) >= limit {
			break
		}
		if item, ok := s.normalizeSearchResult(r); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Source) get(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.NewAdapterError(domain.PlatformVideoSite, domain.ErrTransient,
			fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://space.bilibili.com/")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.NewAdapterError(domain.PlatformVideoSite, domain.ErrTransient,
			fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return source.StatusError(domain.PlatformVideoSite, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewAdapterError(domain.PlatformVideoSite, domain.ErrMalformed,
			fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (s *Source) normalizeUpload(v video) (domain.CandidateItem, bool) {
	if v.BVID == "" || v.Title == "" {
		return domain.CandidateItem{}, false
	}

	title := domain.CleanText(v.Title)
	desc := domain.CleanText(v.Description)
	publishedAt := s.now()
	if v.Created > 0 {
		publishedAt = time.Unix(v.Created, 0)
	}

	return domain.CandidateItem{
		Platform:           domain.PlatformVideoSite,
		SourceURL:          "https://www.bilibili.com/video/" + v.BVID,
		Title:              title,
		Description:        desc,
		ThumbnailURL:       v.Pic,
		CreatorExternalID:  strconv.FormatInt(v.Mid, 10),
		CreatorDisplayName: domain.CleanText(v.Author),
		ContentType:        domain.ContentTypeVideo,
		PublishedAt:        publishedAt,
		DurationMinutes:    source.ParseDurationMinutes(v.Length),
		ViewCount:          v.Play,
		Tags:               s.families.ExtractTags(title, desc),
		Priority:           uploadPriority(v),
		Summary:            domain.Summarize(title, desc),
	}, true
}

func (s *Source) normalizeSearchResult(r searchResult) (domain.CandidateItem, bool) {
	if r.BVID == "" || r.Title == "" {
		return domain.CandidateItem{}, false
	}

	// Search results carry <em> highlight markup around the keyword.
	title := domain.CleanText(source.StripHTML(r.Title))
	desc := domain.CleanText(r.Description)
	publishedAt := s.now()
	if r.PubDate > 0 {
		publishedAt = time.Unix(r.PubDate, 0)
	}

	pic := r.Pic
	if strings.HasPrefix(pic, "//") {
		pic = "https:" + pic
	}

	return domain.CandidateItem{
		Platform:           domain.PlatformVideoSite,
		SourceURL:          "https://www.bilibili.com/video/" + r.BVID,
		Title:              title,
		Description:        desc,
		ThumbnailURL:       pic,
		CreatorExternalID:  strconv.FormatInt(r.Mid, 10),
		CreatorDisplayName: domain.CleanText(r.Author),
		ContentType:        domain.ContentTypeVideo,
		PublishedAt:        publishedAt,
		DurationMinutes:    source.ParseDurationMinutes(r.Duration),
		ViewCount:          r.Play,
		Tags:               s.families.ExtractTags(title, desc),
		Priority:           viewPriority(r.Play, title),
		Summary:            domain.Summarize(title, desc),
	}, true
}

func uploadPriority(v video) int {
	priority := 5

	if v.Play > 100000 {
		priority += 2
	} else if v.Play > 10000 {
		priority++
	}
	if v.VideoReview > 1000 {
		priority++
	}

	title := strings.ToLower(v.Title)
	if strings.Contains(title, "ai") || strings.Contains(title, "人工智能") {
		priority += 2
	}
	if strings.Contains(title, "教程") || strings.Contains(title, "入门") {
		priority++
	}

	return domain.ClampPriority(priority)
}

func viewPriority(views int64, title string) int {
	priority := 5

	if views > 100000 {
		priority += 2
	} else if views > 10000 {
		priority++
	}
	if strings.Contains(strings.ToLower(title), "ai") {
		priority++
	}

	return domain.ClampPriority(priority)
}
