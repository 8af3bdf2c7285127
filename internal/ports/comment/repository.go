package comment

import (
	"context"
	"time"

	"instafeed/internal/core/comment"

	"github.com/gofrs/uuid"
)

type CommentRepository interface {
	// Create inserts the comment and bumps the post's comments_count.
	Create(ctx context.Context, c *comment.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*comment.Comment, error)
	// Delete removes the comment and its replies and returns how many rows went.
	Delete(ctx context.Context, c *comment.Comment) (int64, error)
	ListByPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*CommentDTO, error)
	ListReplies(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*CommentDTO, error)
	UpdateContent(ctx context.Context, id uuid.UUID, content string) error
	// Like and Unlike keep comment_likes and likes_count in step.
	Like(ctx context.Context, userID, commentID uuid.UUID) (bool, error)
	Unlike(ctx context.Context, userID, commentID uuid.UUID) (bool, error)
}

type CommentDTO struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	UserID       string    `json:"user_id"`
	AuthorHandle string    `json:"author_handle"`
	ParentID     string    `json:"parent_id,omitempty"`
	Content      string    `json:"content"`
	LikesCount   int64     `json:"likes_count"`
	CreatedAt    time.Time `json:"created_at"`
}
