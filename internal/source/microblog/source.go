// Package microblog adapts the microblog platform's mobile JSON API.
package microblog

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
	"unicode/utf8"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
	"content_aggregator/internal/source"
)

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0 Mobile/15E148 Safari/604.1"

// Container id prefixes used by the mobile API.
const (
	postsContainerPrefix = "107603"
	searchContainer      = "100103type=1&q="
)

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
		logger:     logger.With("source", domain.PlatformMicroblog),
		now:        time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformMicroblog
}

// FetchForCreator lists a user's recent posts via the profile container.
func (s *Source) FetchForCreator(ctx context.Context, externalID string, limit int) ([]domain.CandidateItem, error) {
	u := fmt.Sprintf("%s/container/getIndex?type=uid&value=%s&containerid=%s%s",
		s.baseURL, url.QueryEscape(externalID), postsContainerPrefix, url.QueryEscape(externalID))

	resp, err := s.get(ctx, u, "https://m.weibo.cn/u/"+externalID)
	if err != nil {
		return nil, err
	}

	if resp.Ok != 1 {
		// The API answers ok=0 both for unknown users and empty timelines;
		// treat it as zero results and let the next sweep try again.
		s.logger.Warn("container api returned not-ok, treating as empty", "ok", resp.Ok)
		return nil, nil
	}

	items := make([]domain.CandidateItem, 0, limit)
	for _, c := range resp.Data.Cards {
		if len(items) >= limit {
			break
		}
		if c.Mblog == nil {
			continue
		}
		if item, ok := s.normalizePost(c.Mblog); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Search queries the mobile search container for matching posts.
func (s *Source) Search(ctx context.Context, keyword string, limit int) ([]domain.CandidateItem, error) {
	containerID := searchContainer + keyword
	u := fmt.Sprintf("%s/container/getIndex?containerid=%s&page_type=searchall",
		s.baseURL, url.QueryEscape(containerID))

	resp, err := s.get(ctx, u, "https://m.weibo.cn/")
	if err != nil {
		return nil, err
	}

	if resp.Ok != 1 {
		s.logger.Warn("search container returned not-ok, treating as empty", "ok", resp.Ok)
		return nil, nil
	}

	items := make([]domain.CandidateItem, 0, limit)
	for _, c := range resp.Data.Cards {
		group := c.CardGroup
		if c.Mblog != nil {
			group = append(group, c)
		}
		for _, g := range group {
			if len(items) >= limit {
				return items, nil
			}
			if g.Mblog == nil {
				continue
			}
			if item, ok := s.normalizePost(g.Mblog); ok {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func (s *Source) get(ctx context.Context, u, referer string) (*containerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, domain.NewAdapterError(domain.PlatformMicroblog, domain.ErrTransient,
			fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("User-Agent", mobileUserAgent)
	req.Header.Set("Referer", referer)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewAdapterError(domain.PlatformMicroblog, domain.ErrTransient,
			fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, source.StatusError(domain.PlatformMicroblog, resp.StatusCode)
	}

	var out containerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.NewAdapterError(domain.PlatformMicroblog, domain.ErrMalformed,
			fmt.Errorf("decode response: %w", err))
	}
	return &out, nil
}

func (s *Source) normalizePost(m *mblog) (domain.CandidateItem, bool) {
	if m.ID == "" {
		return domain.CandidateItem{}, false
	}

	text := domain.CleanText(source.StripHTML(m.Text))
	if text == "" {
		return domain.CandidateItem{}, false
	}

	title := text
	if runes := []rune(title); len(runes) > 100 {
		title = string(runes[:100])
	}

	var creatorID, creatorName string
	if m.User != nil {
		creatorID = strconv.FormatInt(m.User.ID, 10)
		creatorName = m.User.ScreenName
	}

	var thumbnail string
	if len(m.PicURLs) > 0 {
		thumbnail = m.PicURLs[0].ThumbnailPic
	}

	return domain.CandidateItem{
		Platform:           domain.PlatformMicroblog,
		SourceURL:          "https://m.weibo.cn/status/" + m.ID,
		Title:              title,
		Description:        text,
		ThumbnailURL:       thumbnail,
		CreatorExternalID:  creatorID,
		CreatorDisplayName: creatorName,
		ContentType:        domain.ContentTypePost,
		PublishedAt:        source.ParseTime(m.CreatedAt, s.now()),
		DurationMinutes:    readMinutes(text),
		ViewCount:          m.RepostsCount,
		Tags:               s.families.ExtractTags(text, ""),
		Priority:           postPriority(m, text),
		Summary:            domain.Summarize(text, ""),
	}, true
}

// readMinutes estimates reading time at 500 runes per minute.
func readMinutes(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 499) / 500
}

func postPriority(m *mblog, text string) int {
	priority := 5

	engagement := m.RepostsCount + m.CommentsCount + m.AttitudesCount
	if engagement > 10000 {
		priority += 2
	} else if engagement > 1000 {
		priority++
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "ai") || strings.Contains(lower, "人工智能") {
		priority += 2
	}

	return domain.ClampPriority(priority)
}
