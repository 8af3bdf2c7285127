package post

import (
	"context"
	"time"

	"instafeed/internal/core/post"

	"github.com/gofrs/uuid"
)

// PostRepository is the store port for posts and the feed query shapes.
type PostRepository interface {
	Create(ctx context.Context, p *post.Post, media []*post.Media) error
	FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	FeedPostIDs(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]uuid.UUID, error)
	ExplorePostIDs(ctx context.Context, excludeAuthors []uuid.UUID, offset, limit int) ([]uuid.UUID, error)
	TrendingPostIDs(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error)
	// Summaries returns the posts found among ids, in no particular order.
	Summaries(ctx context.Context, ids []uuid.UUID) ([]*PostSummary, error)
	MediaFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]*post.Media, error)
}

// LikeRepository keeps Like rows and the likes_count counter in step.
type LikeRepository interface {
	Like(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Unlike(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	// LikerIDs lists who liked the post, most recent first.
	LikerIDs(ctx context.Context, postID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
}

// SavedPostRepository keeps a user's bookmarks. Save and Unsave report
// whether a row changed.
type SavedPostRepository interface {
	Save(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	Unsave(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	SavedPostIDs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error)
}

type CreatePostInput struct {
	AuthorID         string
	Caption          string
	Location         string
	CommentsDisabled bool
	MediaURLs        []string
	MediaTypes       []string
}

type MediaDTO struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// PostSummary is what feeds and post detail return. Liked is per viewer and
// is never cached.
type PostSummary struct {
	ID                string      `json:"id"`
	AuthorID          string      `json:"author_id"`
	AuthorHandle      string      `json:"author_handle"`
	AuthorDisplayName string      `json:"author_display_name"`
	Caption           string      `json:"caption"`
	Location          string      `json:"location,omitempty"`
	Media             []*MediaDTO `json:"media"`
	LikesCount        int64       `json:"likes_count"`
	CommentsCount     int64       `json:"comments_count"`
	CommentsDisabled  bool        `json:"comments_disabled"`
	IsArchived        bool        `json:"is_archived"`
	Liked             bool        `json:"liked"`
	CreatedAt         time.Time   `json:"created_at"`
}
