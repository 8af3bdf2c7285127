package story

import (
	"time"

	"github.com/gofrs/uuid"
)

// Lifetime of a story before the cleanup worker removes it.
const Lifetime = 24 * time.Hour

type Story struct {
	ID         uuid.UUID `gorm:"primaryKey;type:char(36)"`
	UserID     uuid.UUID `gorm:"type:char(36);not null;index"`
	MediaType  string    `gorm:"type:varchar(10);not null"`
	MediaURL   string    `gorm:"type:varchar(500);not null"`
	Caption    string    `gorm:"type:varchar(500)"`
	ViewsCount int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// View records that a user opened a story. One row per pair.
type View struct {
	ID       uuid.UUID `gorm:"primaryKey;type:char(36)"`
	StoryID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_story_view_pair;index"`
	UserID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_story_view_pair"`
	ViewedAt time.Time `gorm:"autoCreateTime"`
}

func (View) TableName() string { return "story_views" }

func (s *Story) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
