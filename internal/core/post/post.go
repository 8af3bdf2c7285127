package post

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	MediaImage = "image"
	MediaVideo = "video"

	MaxCaptionLength = 2200
	MaxMediaItems    = 10
)

// Post counters are denormalized display values; Like rows stay the source of
// truth for "does X like Y".
type Post struct {
	ID               uuid.UUID `gorm:"primaryKey;type:char(36)"`
	AuthorID         uuid.UUID `gorm:"type:char(36);not null;index:idx_posts_author_created,priority:1"`
	Caption          string    `gorm:"type:text"`
	Location         string    `gorm:"type:varchar(255)"`
	IsArchived       bool      `gorm:"not null;default:false"`
	CommentsDisabled bool      `gorm:"not null;default:false"`
	LikesCount       int64     `gorm:"not null;default:0"`
	CommentsCount    int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index;index:idx_posts_author_created,priority:2"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

type Media struct {
	ID        uuid.UUID `gorm:"primaryKey;type:char(36)"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;index"`
	MediaType string    `gorm:"type:varchar(10);not null"`
	URL       string    `gorm:"type:varchar(500);not null"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Media) TableName() string { return "post_media" }

type Like struct {
	ID        uuid.UUID `gorm:"primaryKey;type:char(36)"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_like_pair"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_like_pair;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// SavedPost is a private bookmark. It has no counter and raises no event.
type SavedPost struct {
	ID        uuid.UUID `gorm:"primaryKey;type:char(36)"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_saved_pair;index:idx_saved_user_created,priority:1"`
	PostID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_saved_pair;index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_saved_user_created,priority:2"`
}
