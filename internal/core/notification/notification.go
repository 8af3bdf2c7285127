package notification

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	TypeLike    = "like"
	TypeComment = "comment"
	TypeFollow  = "follow"
)

// Notification rows are unique per (recipient, sender, type, subject) so a
// redelivered event reconciles to the row already written.
type Notification struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	RecipientID uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_notification_key,priority:1;index:idx_notifications_recipient"`
	SenderID    uuid.UUID  `gorm:"type:char(36);not null;uniqueIndex:uniq_notification_key,priority:2"`
	Type        string     `gorm:"type:varchar(20);not null;uniqueIndex:uniq_notification_key,priority:3"`
	SubjectID   string     `gorm:"type:varchar(36);not null;uniqueIndex:uniq_notification_key,priority:4"`
	PostID      *uuid.UUID `gorm:"type:char(36)"`
	CommentID   *uuid.UUID `gorm:"type:char(36)"`
	IsRead      bool       `gorm:"not null;default:false;index:idx_notifications_read_created,priority:1"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index:idx_notifications_read_created,priority:2"`
}
