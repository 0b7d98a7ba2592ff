// Package service contains the ingestion coordinator: one run fetches a
// single target (creator or search keyword) through the retry policy,
// filters, dedups, persists, and writes exactly one audit row.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"content_aggregator/internal/domain"
	"content_aggregator/internal/filter"
)

type IngestService struct {
	sources   Sources
	fetcher   Fetcher
	filter    *filter.Filter
	content   ContentStore
	logs      IngestLogStore
	publisher Publisher
	logger    *slog.Logger
}

func NewIngestService(
	sources Sources,
	fetcher Fetcher,
	contentFilter *filter.Filter,
	content ContentStore,
	logs IngestLogStore,
	publisher Publisher,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		sources:   sources,
		fetcher:   fetcher,
		filter:    contentFilter,
		content:   content,
		logs:      logs,
		publisher: publisher,
		logger:    logger,
	}
}

// IngestCreator runs the pipeline for one creator. The returned error is
// non-nil only when the audit row itself could not be written, which means
// storage is unavailable and the whole run must abort; every adapter
// failure is absorbed into an error-status result instead.
func (s *IngestService) IngestCreator(ctx context.Context, creator domain.Creator, limit int) (domain.TargetResult, error) {
	logger := s.logger.With("creator", creator.DisplayName, "platform", creator.Platform)

	result := domain.TargetResult{
		Target:   creator.DisplayName,
		Platform: creator.Platform,
	}

	src, ok := s.sources[creator.Platform]
	if !ok {
		result.Status = domain.StatusError
		result.Message = fmt.Sprintf("unsupported platform: %s", creator.Platform)
		return result, s.appendLog(ctx, creator.Platform, &creator.ID, result)
	}

	items, err := s.fetcher.Do(ctx, func(ctx context.Context) ([]domain.CandidateItem, error) {
		return src.FetchForCreator(ctx, creator.PlatformExternalID, limit)
	})
	if err != nil {
		logger.Error("fetch failed", "error", err)
		result.Status = domain.StatusError
		result.Message = err.Error()
		return result, s.appendLog(ctx, creator.Platform, &creator.ID, result)
	}

	creatorID := creator.ID
	saved := s.saveAll(ctx, logger, items, &creatorID)

	result.Status = domain.StatusSuccess
	result.ItemsFound = len(items)
	result.ItemsSaved = saved
	result.Message = fmt.Sprintf("saved %d of %d items", saved, len(items))

	logger.Info("creator ingested", "found", len(items), "saved", saved)
	return result, s.appendLog(ctx, creator.Platform, &creatorID, result)
}

// IngestSearch runs the pipeline in search mode for one keyword across the
// requested platforms, writing one audit row per platform. Items found by
// search carry no creator reference.
func (s *IngestService) IngestSearch(ctx context.Context, keyword string, platforms []domain.Platform, limit int) ([]domain.TargetResult, error) {
	if len(platforms) == 0 {
		platforms = domain.Platforms()
	}

	results := make([]domain.TargetResult, 0, len(platforms))
	for _, platform := range platforms {
		logger := s.logger.With("keyword", keyword, "platform", platform)

		result := domain.TargetResult{
			Target:   keyword,
			Platform: platform,
		}

		src, ok := s.sources[platform]
		if !ok {
			result.Status = domain.StatusError
			result.Message = fmt.Sprintf("unsupported platform: %s", platform)
			results = append(results, result)
			if err := s.appendLog(ctx, platform, nil, result); err != nil {
				return results, err
			}
			continue
		}

		items, err := s.fetcher.Do(ctx, func(ctx context.Context) ([]domain.CandidateItem, error) {
			return src.Search(ctx, keyword, limit)
		})
		if err != nil {
			logger.Error("search failed", "error", err)
			result.Status = domain.StatusError
			result.Message = err.Error()
			results = append(results, result)
			if err := s.appendLog(ctx, platform, nil, result); err != nil {
				return results, err
			}
			continue
		}

		saved := s.saveAll(ctx, logger, items, nil)

		result.Status = domain.StatusSuccess
		result.ItemsFound = len(items)
		result.ItemsSaved = saved
		result.Message = fmt.Sprintf("saved %d of %d items", saved, len(items))
		results = append(results, result)

		logger.Info("keyword ingested", "found", len(items), "saved", saved)
		if err := s.appendLog(ctx, platform, nil, result); err != nil {
			return results, err
		}
	}
	return results, nil
}

// saveAll filters, dedups and persists candidates, returning the number of
// rows actually inserted. Conflict-skipped duplicates are not counted.
func (s *IngestService) saveAll(ctx context.Context, logger *slog.Logger, items []domain.CandidateItem, creatorID *int64) int {
	saved := 0
	for _, item := range items {
		if !s.filter.Keep(item) {
			continue
		}

		content := domain.FromCandidate(item, creatorID)
		_, inserted, err := s.content.Insert(ctx, content)
		if err != nil {
			logger.Error("insert failed", "url", item.SourceURL, "error", err)
			continue
		}
		if !inserted {
			continue
		}
		saved++

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, content); err != nil {
				logger.Warn("publish failed", "url", item.SourceURL, "error", err)
			}
		}
	}
	return saved
}

func (s *IngestService) appendLog(ctx context.Context, platform domain.Platform, creatorID *int64, result domain.TargetResult) error {
	entry := &domain.IngestLogEntry{
		Platform:   platform,
		CreatorID:  creatorID,
		Status:     result.Status,
		Message:    result.Message,
		ItemsSaved: result.ItemsSaved,
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return fmt.Errorf("append ingest log: %w", err)
	}
	return nil
}
