package notification

import (
	"context"
	"time"

	"instafeed/internal/core/notification"

	"github.com/gofrs/uuid"
)

type NotificationRepository interface {
	// CreateIgnoreDuplicate inserts n unless a row with the same idempotency
	// key exists. It reports whether a row was written.
	CreateIgnoreDuplicate(ctx context.Context, n *notification.Notification) (bool, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*notification.Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type NotificationDTO struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Type      string    `json:"type"`
	PostID    string    `json:"post_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
