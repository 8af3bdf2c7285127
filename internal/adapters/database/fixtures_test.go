package database_test

import (
	"testing"
	"time"

	"instafeed/internal/core/post"
	"instafeed/internal/core/user"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *gorm.DB, handle string, private bool) *user.User {
	t.Helper()
	u := &user.User{
		ID:           uuid.Must(uuid.NewV4()),
		Handle:       handle,
		Email:        handle + "@example.com",
		DisplayName:  handle,
		PasswordHash: "x",
		IsPrivate:    private,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPost(t *testing.T, db *gorm.DB, author *user.User, createdAt time.Time, likes, comments int64) *post.Post {
	t.Helper()
	p := &post.Post{
		ID:            uuid.Must(uuid.NewV4()),
		AuthorID:      author.ID,
		Caption:       "caption",
		LikesCount:    likes,
		CommentsCount: comments,
		CreatedAt:     createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
