// Package fetch wraps single network fetches with the retry policy: bounded
// exponential backoff for transient failures, a fixed-delay capped retry
// chain for rate limiting, and no retry at all for missing targets.
package fetch

import (
	"context"
	"log/slog"
	"time"

	"content_aggregator/internal/config"
	"content_aggregator/internal/domain"
)

// Func performs one network fetch attempt.
type Func func(ctx context.Context) ([]domain.CandidateItem, error)

type Policy struct {
	maxRetries        int
	baseDelay         time.Duration
	backoffFactor     int
	rateLimitDelay    time.Duration
	rateLimitRetryCap int
	logger            *slog.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPolicy(cfg config.RetryConfig, logger *slog.Logger) *Policy {
	return &Policy{
		maxRetries:        cfg.MaxRetries,
		baseDelay:         cfg.BaseDelay,
		backoffFactor:     cfg.BackoffFactor,
		rateLimitDelay:    cfg.RateLimitDelay,
		rateLimitRetryCap: cfg.RateLimitRetryCap,
		logger:            logger,
		sleep:             sleepCtx,
	}
}

// Do runs fn under the retry policy.
//
// Transient failures are retried with exponential backoff for at most
// maxRetries total attempts, then the error propagates. Each rate-limit hit
// costs one extended fixed delay and resets the transient attempt counter;
// more than rateLimitRetryCap hits degrades the fetch to an empty result
// instead of an error, so one throttled target cannot abort a sweep. A
// not-found failure propagates immediately without retry.
func (p *Policy) Do(ctx context.Context, fn Func) ([]domain.CandidateItem, error) {
	attempt := 1
	rateLimitHits := 0

	for {
		items, err := fn(ctx)
		if err == nil {
			return items, nil
		}

		switch domain.ErrorKindOf(err) {
		case domain.ErrNotFound:
			return nil, err

		case domain.ErrRateLimited:
			rateLimitHits++
			if rateLimitHits > p.rateLimitRetryCap {
				p.logger.Warn("rate limit retry cap exceeded, yielding empty result",
					"hits", rateLimitHits,
					"cap", p.rateLimitRetryCap,
				)
				return nil, nil
			}
			p.logger.Warn("rate limited, applying extended delay",
				"hit", rateLimitHits,
				"delay", p.rateLimitDelay,
			)
			if err := p.sleep(ctx, p.rateLimitDelay); err != nil {
				return nil, err
			}
			attempt = 1

		default:
			if attempt >= p.maxRetries {
				return nil, err
			}
			backoff := p.backoff(attempt)
			p.logger.Warn("fetch failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"error", err,
			)
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			attempt++
		}
	}
}

func (p *Policy) backoff(attempt int) time.Duration {
	backoff := p.baseDelay
	for i := 1; i < attempt; i++ {
		backoff *= time.Duration(p.backoffFactor)
	}
	return backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
