// Package articlefeed adapts RSS/Atom feeds via gofeed.
package articlefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
	"content_aggregator/internal/source"
)

type Source struct {
	parser   *gofeed.Parser
	feeds    map[string]string
	families domain.TagFamilies
	logger   *slog.Logger
	now      func() time.Time
}

func New(cfg config.ArticleFeedConfig, timeout time.Duration, logger *slog.Logger) *Source {
	parser := gofeed.NewParser()
	parser.UserAgent = "ContentAggregator/1.0"

	return &Source{
		parser:   parser,
		feeds:    cfg.Feeds,
		families: domain.DefaultTagFamilies(),
		logger:   logger.With("source", domain.PlatformArticleFeed),
		now:      time.Now,
	}
}

func (s *Source) Platform() domain.Platform {
	return domain.PlatformArticleFeed
}

// FetchForCreator fetches the creator's feed. The external id is looked up
// in the configured feed map; unmapped ids are treated as feed URLs.
func (s *Source) FetchForCreator(ctx context.Context, externalID string, limit int) ([]domain.CandidateItem, error) {
	feedURL, ok := s.feeds[externalID]
	if !ok {
		feedURL = externalID
	}
	if !strings.HasPrefix(feedURL, "http") {
		return nil, domain.NewAdapterError(domain.PlatformArticleFeed, domain.ErrNotFound,
			fmt.Errorf("no feed configured for %q", externalID))
	}

	feed, err := s.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CandidateItem, 0, limit)
	for _, entry := range feed.Items {
		if len(items) >= limit {
			break
		}
		if item, ok := s.normalizeEntry(feed, entry); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Search scans every configured feed and keeps entries whose title or
// description mention the keyword. Feeds have no server-side search, so
// this is a client-side pass over current entries.
func (s *Source) Search(ctx context.Context, keyword string, limit int) ([]domain.CandidateItem, error) {
	needle := strings.ToLower(keyword)

	var items []domain.CandidateItem
	for id, feedURL := range s.feeds {
		if len(items) >= limit {
			break
		}

		feed, err := s.fetch(ctx, feedURL)
		if err != nil {
			// One broken feed must not sink the whole search.
			s.logger.Warn("feed fetch failed during search", "feed", id, "error", err)
			continue
		}

		for _, entry := range feed.Items {
			if len(items) >= limit {
				break
			}
			text := strings.ToLower(entry.Title + " " + entry.Description)
			if !strings.Contains(text, needle) {
				continue
			}
			if item, ok := s.normalizeEntry(feed, entry); ok {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func (s *Source) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, source.StatusError(domain.PlatformArticleFeed, httpErr.StatusCode)
		}
		if strings.Contains(err.Error(), "Failed to detect feed type") {
			return nil, domain.NewAdapterError(domain.PlatformArticleFeed, domain.ErrMalformed,
				fmt.Errorf("parse feed: %w", err))
		}
		return nil, domain.NewAdapterError(domain.PlatformArticleFeed, domain.ErrTransient,
			fmt.Errorf("fetch feed: %w", err))
	}
	return feed, nil
}

func (s *Source) normalizeEntry(feed *gofeed.Feed, entry *gofeed.Item) (domain.CandidateItem, bool) {
	if entry.Link == "" || entry.Title == "" {
		return domain.CandidateItem{}, false
	}

	title := domain.CleanText(entry.Title)
	desc := domain.CleanText(source.StripHTML(entry.Description))

	publishedAt := s.now()
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	creatorName := feed.Title
	if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
		creatorName = entry.Authors[0].Name
	}

	var thumbnail string
	if entry.Image != nil {
		thumbnail = entry.Image.URL
	}

	return domain.CandidateItem{
		Platform:           domain.PlatformArticleFeed,
		SourceURL:          entry.Link,
		Title:              title,
		Description:        desc,
		ThumbnailURL:       thumbnail,
		CreatorDisplayName: domain.CleanText(creatorName),
		ContentType:        domain.ContentTypeArticle,
		PublishedAt:        publishedAt,
		DurationMinutes:    (len([]rune(desc)) + 499) / 500,
		Tags:               s.families.ExtractTags(title, desc),
		Priority:           entryPriority(title, publishedAt, s.now()),
		Summary:            domain.Summarize(title, desc),
	}, true
}

func entryPriority(title string, publishedAt, now time.Time) int {
	priority := 5

	if now.Sub(publishedAt) < 24*time.Hour {
		priority++
	}
	lower := strings.ToLower(title)
	if strings.Contains(lower, "ai") || strings.Contains(lower, "人工智能") {
		priority += 2
	}

	return domain.ClampPriority(priority)
}
