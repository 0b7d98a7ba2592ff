// Package scheduler owns the recurring sweeps and the manual triggers.
// Every trigger funnels into the same coordinator and is gated by a single
// test-and-set flag: at most one sweep of any kind is in flight at a time,
// and a trigger arriving meanwhile is refused, never queued.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
)

// Coordinator runs the ingestion pipeline for one target.
type Coordinator interface {
	IngestCreator(ctx context.Context, creator domain.Creator, limit int) (domain.TargetResult, error)
	IngestSearch(ctx context.Context, keyword string, platforms []domain.Platform, limit int) ([]domain.TargetResult, error)
}

// CreatorDirectory supplies sweep target lists.
type CreatorDirectory interface {
	ListActive(ctx context.Context) ([]domain.Creator, error)
	GetByID(ctx context.Context, id int64) (*domain.Creator, error)
}

type Scheduler struct {
	cron        *cron.Cron
	coordinator Coordinator
	creators    CreatorDirectory
	cfg         config.IngestConfig
	running     atomic.Bool
	logger      *slog.Logger
}

func New(coordinator Coordinator, creators CreatorDirectory, cfg config.IngestConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		coordinator: coordinator,
		creators:    creators,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start registers the two recurring sweeps and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.HourlyCron, func() {
		if _, err := s.sweep(context.Background(), domain.SweepHourly); err != nil {
			s.logSweepError(domain.SweepHourly, err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.DailyCron, func() {
		if _, err := s.deepSweep(context.Background()); err != nil {
			s.logSweepError(domain.SweepDaily, err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"hourly_cron", s.cfg.HourlyCron,
		"daily_cron", s.cfg.DailyCron,
	)
	return nil
}

// Stop halts the cron loop; an in-flight sweep runs to completion.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether a sweep is currently in flight.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// RunSweep manually triggers a full sweep over all active creators.
func (s *Scheduler) RunSweep(ctx context.Context) (*domain.RunReport, error) {
	return s.sweep(ctx, domain.SweepManual)
}

// RunDeepSweep manually triggers the keyword deep sweep.
func (s *Scheduler) RunDeepSweep(ctx context.Context) (*domain.RunReport, error) {
	return s.deepSweep(ctx)
}

// RunCreator ingests a single creator on demand.
func (s *Scheduler) RunCreator(ctx context.Context, creatorID int64) (*domain.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSweepRunning
	}
	defer s.running.Store(false)

	creator, err := s.creators.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !creator.IsActive {
		return nil, domain.ErrCreatorInactive
	}

	report := s.newReport(domain.SweepManual)
	result, err := s.coordinator.IngestCreator(ctx, *creator, s.cfg.DefaultLimit)
	if err != nil {
		return nil, err
	}
	report.Add(result)
	s.finish(report)
	return report, nil
}

// RunSearch ingests keyword search results on demand.
func (s *Scheduler) RunSearch(ctx context.Context, keyword string, platforms []domain.Platform, limit int) (*domain.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSweepRunning
	}
	defer s.running.Store(false)

	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	report := s.newReport(domain.SweepManual)
	results, err := s.coordinator.IngestSearch(ctx, keyword, platforms, limit)
	for _, r := range results {
		report.Add(r)
	}
	if err != nil {
		return report, err
	}
	s.finish(report)
	return report, nil
}

// sweep runs the coordinator for every active creator sequentially, with a
// fixed inter-target delay to stay under platform rate limits. One
// creator's failure never aborts the sweep; only storage unavailability
// does.
func (s *Scheduler) sweep(ctx context.Context, kind string) (*domain.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSweepRunning
	}
	defer s.running.Store(false)

	creators, err := s.creators.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sweep started", "kind", kind, "targets", len(creators))
	report := s.newReport(kind)

	for i, creator := range creators {
		if i > 0 {
			if err := s.pause(ctx, s.cfg.CreatorDelay); err != nil {
				return report, err
			}
		}

		result, err := s.coordinator.IngestCreator(ctx, creator, s.cfg.DefaultLimit)
		if err != nil {
			return report, err
		}
		report.Add(result)
	}

	s.finish(report)
	s.logger.Info("sweep finished",
		"kind", kind,
		"targets", report.TargetsProcessed,
		"success", report.SuccessCount,
		"errors", report.ErrorCount,
		"items_saved", report.ItemsSaved,
		"duration", report.Duration,
	)
	return report, nil
}

// deepSweep searches the fixed topical keyword set across all platforms,
// with a longer inter-keyword delay than the creator sweep.
func (s *Scheduler) deepSweep(ctx context.Context) (*domain.RunReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrSweepRunning
	}
	defer s.running.Store(false)

	s.logger.Info("deep sweep started", "keywords", len(s.cfg.DeepSweepKeywords))
	report := s.newReport(domain.SweepDaily)

	for i, keyword := range s.cfg.DeepSweepKeywords {
		if i > 0 {
			if err := s.pause(ctx, s.cfg.SearchDelay); err != nil {
				return report, err
			}
		}

		results, err := s.coordinator.IngestSearch(ctx, keyword, nil, s.cfg.SearchLimit)
		for _, r := range results {
			report.Add(r)
		}
		if err != nil {
			return report, err
		}
	}

	s.finish(report)
	s.logger.Info("deep sweep finished",
		"targets", report.TargetsProcessed,
		"success", report.SuccessCount,
		"errors", report.ErrorCount,
		"items_saved", report.ItemsSaved,
		"duration", report.Duration,
	)
	return report, nil
}

func (s *Scheduler) newReport(kind string) *domain.RunReport {
	return &domain.RunReport{Kind: kind, StartedAt: time.Now()}
}

func (s *Scheduler) finish(report *domain.RunReport) {
	report.Duration = time.Since(report.StartedAt)
}

func (s *Scheduler) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (s *Scheduler) logSweepError(kind string, err error) {
	if errors.Is(err, domain.ErrSweepRunning) {
		s.logger.Info("sweep already running, skipping trigger", "kind", kind)
		return
	}
	s.logger.Error("sweep failed", "kind", kind, "error", err)
}
