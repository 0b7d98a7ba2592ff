package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"content_aggregator/internal/domain"
)

// IngestLogStore appends audit rows. The table is append-only: no update
// or delete statement exists anywhere in the codebase.
type IngestLogStore struct {
	db *sqlx.DB
}

func NewIngestLogStore(db *sqlx.DB) *IngestLogStore {
	return &IngestLogStore{db: db}
}

func (s *IngestLogStore) Append(ctx context.Context, entry *domain.IngestLogEntry) error {
	query := `
		INSERT INTO ingest_log (platform, creator_id, status, message, items_saved)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return s.db.QueryRowContext(ctx, query,
		entry.Platform,
		entry.CreatorID,
		entry.Status,
		entry.Message,
		entry.ItemsSaved,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// LogQuery carries the optional filters for List.
type LogQuery struct {
	Platform  domain.Platform
	CreatorID *int64
	Status    string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

func (s *IngestLogStore) List(ctx context.Context, q LogQuery) ([]domain.IngestLogEntry, error) {
	builder := psql.Select(
		"id", "platform", "creator_id", "status", "message", "items_saved", "created_at",
	).From("ingest_log")

	if q.Platform != "" {
		builder = builder.Where(sq.Eq{"platform": q.Platform})
	}
	if q.CreatorID != nil {
		builder = builder.Where(sq.Eq{"creator_id": *q.CreatorID})
	}
	if q.Status != "" {
		builder = builder.Where(sq.Eq{"status": q.Status})
	}
	if q.Since != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *q.Since})
	}
	if q.Until != nil {
		builder = builder.Where(sq.LtOrEq{"created_at": *q.Until})
	}

	builder = builder.OrderBy("created_at DESC")
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		builder = builder.Offset(uint64(q.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log query: %w", err)
	}

	var rows []domain.IngestLogEntry
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
