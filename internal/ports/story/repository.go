package story

import (
	"context"
	"time"

	"instafeed/internal/core/story"

	"github.com/gofrs/uuid"
)

type StoryRepository interface {
	Create(ctx context.Context, s *story.Story) error
	FindByID(ctx context.Context, id uuid.UUID) (*story.Story, error)
	ActiveByAuthors(ctx context.Context, authorIDs []uuid.UUID, now time.Time) ([]*story.Story, error)
	// RecordView inserts the view once per viewer and bumps views_count
	// only when it did.
	RecordView(ctx context.Context, storyID, viewerID uuid.UUID) (bool, error)
	ViewerIDs(ctx context.Context, storyID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

type StoryDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MediaType  string    `json:"media_type"`
	MediaURL   string    `json:"media_url"`
	Caption    string    `json:"caption,omitempty"`
	ViewsCount int64     `json:"views_count"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
