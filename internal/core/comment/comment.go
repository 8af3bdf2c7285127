package comment

import (
	"time"

	"github.com/gofrs/uuid"
)

const MaxContentLength = 1000

type Comment struct {
	ID         uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	PostID     uuid.UUID  `gorm:"type:char(36);not null;index"`
	UserID     uuid.UUID  `gorm:"type:char(36);not null"`
	ParentID   *uuid.UUID `gorm:"type:char(36);index"`
	Content    string     `gorm:"type:text;not null"`
	LikesCount int64      `gorm:"not null;default:0"`
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
}

type Like struct {
	ID        uuid.UUID `gorm:"primaryKey;type:char(36)"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_comment_like_pair"`
	CommentID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_comment_like_pair;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Like) TableName() string { return "comment_likes" }

// IsReply reports whether the comment answers another comment.
func (c *Comment) IsReply() bool { return c.ParentID != nil && *c.ParentID != uuid.Nil }
