package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"content_aggregator/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type ContentStore struct {
	db *sqlx.DB
}

func NewContentStore(db *sqlx.DB) *ContentStore {
	return &ContentStore{db: db}
}

// Insert stores a content row with insert-if-absent semantics keyed on
// (platform, source_url). The conflict check happens atomically inside the
// statement, so a scheduled sweep and a manual reingestion cannot race a
// duplicate past the constraint. Saved is false for duplicates; duplicates
// never overwrite existing content fields.
func (s *ContentStore) Insert(ctx context.Context, content *domain.Content) (int64, bool, error) {
	query := `
		INSERT INTO content (
			dedup_key, platform, source_url, title, description, thumbnail_url,
			creator_id, creator_display_name, content_type, published_at,
			duration_minutes, view_count, tags, priority, summary
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (platform, source_url) DO NOTHING
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		content.DedupKey,
		content.Platform,
		content.SourceURL,
		content.Title,
		content.Description,
		content.ThumbnailURL,
		content.CreatorID,
		content.CreatorDisplayName,
		content.ContentType,
		content.PublishedAt,
		content.DurationMinutes,
		content.ViewCount,
		content.Tags,
		content.Priority,
		content.Summary,
	).Scan(&id)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	content.ID = id
	return id, true, nil
}

// ContentQuery carries the optional filters for List.
type ContentQuery struct {
	Platform      domain.Platform
	CreatorID     *int64
	ContentType   domain.ContentType
	IsRead        *bool
	IsBookmarked  *bool
	IsRecommended *bool
	Since         *time.Time
	Until         *time.Time
	TitleSearch   string
	OrderBy       string // "published_at" (default) or "priority"
	Limit         int
	Offset        int
}

func (s *ContentStore) List(ctx context.Context, q ContentQuery) ([]domain.Content, error) {
	builder := psql.Select(
		"id", "dedup_key", "platform", "source_url", "title", "description",
		"thumbnail_url", "creator_id", "creator_display_name", "content_type",
		"published_at", "duration_minutes", "view_count", "tags", "is_read",
		"is_bookmarked", "is_recommended", "priority", "summary",
		"created_at", "updated_at",
	).From("content")

	if q.Platform != "" {
		builder = builder.Where(sq.Eq{"platform": q.Platform})
	}
	if q.CreatorID != nil {
		builder = builder.Where(sq.Eq{"creator_id": *q.CreatorID})
	}
	if q.ContentType != "" {
		builder = builder.Where(sq.Eq{"content_type": q.ContentType})
	}
	if q.IsRead != nil {
		builder = builder.Where(sq.Eq{"is_read": *q.IsRead})
	}
	if q.IsBookmarked != nil {
		builder = builder.Where(sq.Eq{"is_bookmarked": *q.IsBookmarked})
	}
	if q.IsRecommended != nil {
		builder = builder.Where(sq.Eq{"is_recommended": *q.IsRecommended})
	}
	if q.Since != nil {
		builder = builder.Where(sq.GtOrEq{"published_at": *q.Since})
	}
	if q.Until != nil {
		builder = builder.Where(sq.LtOrEq{"published_at": *q.Until})
	}
	if q.TitleSearch != "" {
		builder = builder.Where(sq.ILike{"title": "%" + q.TitleSearch + "%"})
	}

	switch q.OrderBy {
	case "priority":
		builder = builder.OrderBy("priority DESC", "published_at DESC")
	default:
		builder = builder.OrderBy("published_at DESC")
	}

	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		builder = builder.Offset(uint64(q.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build content query: %w", err)
	}

	var rows []domain.Content
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ContentStore) GetByID(ctx context.Context, id int64) (*domain.Content, error) {
	var content domain.Content
	err := s.db.GetContext(ctx, &content, "SELECT * FROM content WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// CountByPlatform reports store sizes for observability.
func (s *ContentStore) CountByPlatform(ctx context.Context) (map[domain.Platform]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT platform, COUNT(*) FROM content GROUP BY platform")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Platform]int64)
	for rows.Next() {
		var platform domain.Platform
		var n int64
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, err
		}
		counts[platform] = n
	}
	return counts, rows.Err()
}

// SetReadState flips the downstream-consumer flags. The ingestion pipeline
// never calls this.
func (s *ContentStore) SetReadState(ctx context.Context, id int64, field string, value bool) error {
	switch field {
	case "is_read", "is_bookmarked", "is_recommended":
	default:
		return fmt.Errorf("unknown read-state field: %s", field)
	}

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE content SET %s = $1, updated_at = NOW() WHERE id = $2", field),
		value, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByCreator removes a creator's content rows; part of the explicit
// two-step creator delete and expected to run inside a transaction.
func (s *ContentStore) DeleteByCreator(ctx context.Context, creatorID int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM content WHERE creator_id = $1", creatorID)
	return err
}
