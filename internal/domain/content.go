package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Platform identifies an external content source.
type Platform string

const (
	PlatformVideoSite   Platform = "video_site"
	PlatformMicroblog   Platform = "microblog"
	PlatformSearchIndex Platform = "search_index"
	PlatformArticleFeed Platform = "article_feed"
)

// Platforms lists every supported platform in sweep order.
func Platforms() []Platform {
	return []Platform{PlatformVideoSite, PlatformMicroblog, PlatformSearchIndex, PlatformArticleFeed}
}

// ParsePlatform returns the platform for a wire identifier.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformVideoSite, PlatformMicroblog, PlatformSearchIndex, PlatformArticleFeed:
		return Platform(s), true
	}
	return "", false
}

// ContentType classifies a piece of content.
type ContentType string

const (
	ContentTypeVideo   ContentType = "video"
	ContentTypePost    ContentType = "post"
	ContentTypeArticle ContentType = "article"
)

// CandidateItem is an adapter's normalized, not-yet-persisted
// representation of one piece of content. It is created per fetch and
// discarded after being stored or dropped by the filter.
type CandidateItem struct {
	Platform           Platform    `json:"platform"`
	SourceURL          string      `json:"source_url"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	ThumbnailURL       string      `json:"thumbnail_url"`
	CreatorExternalID  string      `json:"creator_external_id"`
	CreatorDisplayName string      `json:"creator_display_name"`
	ContentType        ContentType `json:"content_type"`
	PublishedAt        time.Time   `json:"published_at"`
	DurationMinutes    int         `json:"duration_minutes"`
	ViewCount          int64       `json:"view_count"`
	Tags               []string    `json:"tags"`
	Priority           int         `json:"priority"`
	Summary            string      `json:"summary"`
}

// DedupKey derives the content identity used as the idempotency anchor.
// It depends on the platform and canonical URL only; per-platform numeric
// ids are deliberately not part of the key.
func (c CandidateItem) DedupKey() string {
	sum := sha256.Sum256([]byte(string(c.Platform) + "-" + c.SourceURL))
	return hex.EncodeToString(sum[:])
}

// Content is the persisted, canonical form of a candidate item.
type Content struct {
	ID                 int64       `db:"id" json:"id"`
	DedupKey           string      `db:"dedup_key" json:"dedup_key"`
	Platform           Platform    `db:"platform" json:"platform"`
	SourceURL          string      `db:"source_url" json:"source_url"`
	Title              string      `db:"title" json:"title"`
	Description        string      `db:"description" json:"description"`
	ThumbnailURL       string      `db:"thumbnail_url" json:"thumbnail_url"`
	CreatorID          *int64      `db:"creator_id" json:"creator_id,omitempty"`
	CreatorDisplayName string      `db:"creator_display_name" json:"creator_display_name"`
	ContentType        ContentType `db:"content_type" json:"content_type"`
	PublishedAt        time.Time   `db:"published_at" json:"published_at"`
	DurationMinutes    int         `db:"duration_minutes" json:"duration_minutes"`
	ViewCount          int64       `db:"view_count" json:"view_count"`
	Tags               Tags        `db:"tags" json:"tags"`
	IsRead             bool        `db:"is_read" json:"is_read"`
	IsBookmarked       bool        `db:"is_bookmarked" json:"is_bookmarked"`
	IsRecommended      bool        `db:"is_recommended" json:"is_recommended"`
	Priority           int         `db:"priority" json:"priority"`
	Summary            string      `db:"summary" json:"summary"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at" json:"updated_at"`
}

// FromCandidate builds a Content row for a candidate. CreatorID stays nil
// for keyword-search items with no creator match.
func FromCandidate(item CandidateItem, creatorID *int64) *Content {
	return &Content{
		DedupKey:           item.DedupKey(),
		Platform:           item.Platform,
		SourceURL:          item.SourceURL,
		Title:              item.Title,
		Description:        item.Description,
		ThumbnailURL:       item.ThumbnailURL,
		CreatorID:          creatorID,
		CreatorDisplayName: item.CreatorDisplayName,
		ContentType:        item.ContentType,
		PublishedAt:        item.PublishedAt,
		DurationMinutes:    item.DurationMinutes,
		ViewCount:          item.ViewCount,
		Tags:               item.Tags,
		Priority:           item.Priority,
		Summary:            item.Summary,
	}
}
