package feed

import (
	"context"

	postPort "instafeed/internal/ports/post"
)

type FeedPage struct {
	Posts      []*postPort.PostSummary `json:"posts"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// Invalidator drops materialized feeds after the follow graph or a post set
// changes.
type Invalidator interface {
	InvalidateFollowers(ctx context.Context, authorID string) error
	InvalidateUser(ctx context.Context, userID string)
}

// Warmer rebuilds a user's feed window ahead of the next read.
type Warmer interface {
	WarmFeed(ctx context.Context, userID string) error
}
