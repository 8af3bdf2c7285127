package follower

import (
	"context"

	"instafeed/internal/core/follower"

	"github.com/gofrs/uuid"
)

// FollowerRepository is the store port for the follow graph. Follow and
// Unfollow report whether a row actually changed so callers can treat
// duplicates as success.
type FollowerRepository interface {
	Follow(ctx context.Context, f *follower.Follow) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FollowerDTO, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FollowerDTO, error)
}

// FollowerDTO describes the user on the other side of an edge.
type FollowerDTO struct {
	UserID      string `json:"user_id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	FollowedAt  string `json:"followed_at"`
}
