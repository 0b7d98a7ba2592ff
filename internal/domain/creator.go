package domain

import "time"

// Creator is a followed account on one platform. IsActive gates whether the
// scheduler includes it in sweeps.
type Creator struct {
	ID                 int64     `db:"id" json:"id"`
	DisplayName        string    `db:"display_name" json:"display_name"`
	Platform           Platform  `db:"platform" json:"platform"`
	PlatformExternalID string    `db:"platform_external_id" json:"platform_external_id"`
	AvatarURL          string    `db:"avatar_url" json:"avatar_url"`
	Description        string    `db:"description" json:"description"`
	Followers          int64     `db:"followers" json:"followers"`
	ProfileURL         string    `db:"profile_url" json:"profile_url"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
