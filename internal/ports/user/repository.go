package user

import (
	"context"

	"instafeed/internal/core/user"

	"github.com/gofrs/uuid"
)

// UserRepository is the store port for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *user.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error)
	FindByHandle(ctx context.Context, handle string) (*user.User, error)
	FindByHandleOrEmail(ctx context.Context, handle, email string) (*user.User, error)
	Stats(ctx context.Context, id uuid.UUID) (*user.Stats, error)
}

type RegisterInput struct {
	Handle      string
	Email       string
	DisplayName string
	Password    string
	IsPrivate   bool
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type UserDTO struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	IsPrivate   bool   `json:"is_private"`
}

// ProfileDTO is the cached profile blob.
type ProfileDTO struct {
	ID             string `json:"id"`
	Handle         string `json:"handle"`
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio,omitempty"`
	IsPrivate      bool   `json:"is_private"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	PostsCount     int64  `json:"posts_count"`
	CreatedAt      string `json:"created_at"`
}

// OrderedDTOs returns the users found among ids in the order of ids. Missing
// ids are skipped.
func OrderedDTOs(ids []uuid.UUID, users []*user.User) []*UserDTO {
	byID := make(map[uuid.UUID]*user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]*UserDTO, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, &UserDTO{ID: u.ID.String(), Handle: u.Handle, DisplayName: u.DisplayName, IsPrivate: u.IsPrivate})
		}
	}
	return out
}
