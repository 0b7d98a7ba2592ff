package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"content_aggregator/internal/domain"
)

type CreatorStore struct {
	db *sqlx.DB
}

func NewCreatorStore(db *sqlx.DB) *CreatorStore {
	return &CreatorStore{db: db}
}

// Create inserts or refreshes a creator, unique per (platform, external id).
func (s *CreatorStore) Create(ctx context.Context, creator *domain.Creator) (int64, error) {
	query := `
		INSERT INTO creators (
			display_name, platform, platform_external_id, avatar_url,
			description, followers, profile_url, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (platform, platform_external_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			description = EXCLUDED.description,
			followers = EXCLUDED.followers,
			profile_url = EXCLUDED.profile_url,
			updated_at = NOW()
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		creator.DisplayName,
		creator.Platform,
		creator.PlatformExternalID,
		creator.AvatarURL,
		creator.Description,
		creator.Followers,
		creator.ProfileURL,
		creator.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	creator.ID = id
	return id, nil
}

func (s *CreatorStore) GetByID(ctx context.Context, id int64) (*domain.Creator, error) {
	var creator domain.Creator
	err := s.db.GetContext(ctx, &creator, "SELECT * FROM creators WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCreatorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

func (s *CreatorStore) List(ctx context.Context) ([]domain.Creator, error) {
	var creators []domain.Creator
	err := s.db.SelectContext(ctx, &creators, "SELECT * FROM creators ORDER BY id")
	return creators, err
}

// ListActive returns the hourly sweep's target list.
func (s *CreatorStore) ListActive(ctx context.Context) ([]domain.Creator, error) {
	var creators []domain.Creator
	err := s.db.SelectContext(ctx, &creators, "SELECT * FROM creators WHERE is_active ORDER BY id")
	return creators, err
}

func (s *CreatorStore) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE creators SET is_active = $1, updated_at = NOW() WHERE id = $2",
		active, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCreatorNotFound
	}
	return nil
}

// Delete removes the creator row. Content rows must be deleted first via
// ContentStore.DeleteByCreator in the same transaction; there is no
// database-enforced cascade.
func (s *CreatorStore) Delete(ctx context.Context, id int64) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM creators WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete creator: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCreatorNotFound
	}
	return nil
}
