package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"content_aggregator/internal/domain"
	"content_aggregator/internal/fetch"
)

// Source is the uniform capability set implemented per platform. Both
// operations return an empty slice, not an error, for zero results.
type Source interface {
	Platform() domain.Platform

	// FetchForCreator returns recent items for a creator's external id.
	FetchForCreator(ctx context.Context, externalID string, limit int) ([]domain.CandidateItem, error)

	// Search returns items matching a keyword.
	Search(ctx context.Context, keyword string, limit int) ([]domain.CandidateItem, error)
}

// Sources resolves adapters by platform.
type Sources map[domain.Platform]Source

func NewSources(sources ...Source) Sources {
	m := make(Sources, len(sources))
	for _, s := range sources {
		m[s.Platform()] = s
	}
	return m
}

// Fetcher runs one network fetch under the retry policy.
type Fetcher interface {
	Do(ctx context.Context, fn fetch.Func) ([]domain.CandidateItem, error)
}

type ContentStore interface {
	Insert(ctx context.Context, content *domain.Content) (id int64, saved bool, err error)
}

type IngestLogStore interface {
	Append(ctx context.Context, entry *domain.IngestLogEntry) error
}

type Publisher interface {
	Publish(ctx context.Context, content *domain.Content) error
	Close() error
}
