package userapp

import (
	"context"
	"errors"
	"testing"

	"instafeed/internal/adapters/database"
	redisadapter "instafeed/internal/adapters/redis"
	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	"instafeed/internal/core/post"
	userPort "instafeed/internal/ports/user"
	"instafeed/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/dgrijalva/jwt-go"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var secret = []byte("test-secret")

func setupTest(t *testing.T) (*UserService, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	db := testutil.NewDB(t)
	mr, client := testutil.NewRedis(t)
	logger := testutil.Logger(t)
	cache := cachemanager.New(redisadapter.NewCacheRedis(client), cachemanager.DefaultTTLs(), logger)
	return NewUserService(database.NewUserRepositoryDatabase(db), cache, secret, logger), db, mr
}

func register(t *testing.T, svc *UserService, handle string) *userPort.UserDTO {
	t.Helper()
	u, err := svc.RegisterUser(context.Background(), userPort.RegisterInput{
		Handle:   handle,
		Email:    handle + "@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	return u
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, _, _ := setupTest(t)
	ctx := context.Background()
	u := register(t, svc, "Alice")
	assert.Equal(t, "alice", u.Handle)
	assert.Equal(t, "alice", u.DisplayName)

	_, err := svc.RegisterUser(ctx, userPort.RegisterInput{Handle: "alice", Email: "other@example.com", Password: "correct horse"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	res, err := svc.LoginUser(ctx, "alice", "correct horse")
	require.NoError(t, err)

	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) { return secret, nil })
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, res.ExpiresAt, claims.ExpiresAt)

	_, err = svc.LoginUser(ctx, "alice", "wrong password")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	_, err = svc.LoginUser(ctx, "nobody", "correct horse")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestUserService_RegisterValidation(t *testing.T) {
	t.Parallel()

	svc, _, _ := setupTest(t)

	tests := []struct {
		name string
		in   userPort.RegisterInput
	}{
		{name: "short handle", in: userPort.RegisterInput{Handle: "ab", Email: "a@b.c", Password: "long enough"}},
		{name: "bad handle chars", in: userPort.RegisterInput{Handle: "a b c", Email: "a@b.c", Password: "long enough"}},
		{name: "no email", in: userPort.RegisterInput{Handle: "alice", Email: "  ", Password: "long enough"}},
		{name: "short password", in: userPort.RegisterInput{Handle: "alice", Email: "a@b.c", Password: "short"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterUser(context.Background(), tt.in)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}
}

func TestUserService_ProfileIsCached(t *testing.T) {
	t.Parallel()

	svc, db, mr := setupTest(t)
	ctx := context.Background()
	u := register(t, svc, "bob")

	p, err := svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.PostsCount)
	assert.True(t, mr.Exists(cachemanager.ProfileKey(u.ID)))

	require.NoError(t, db.Create(&post.Post{ID: uuid.Must(uuid.NewV4()), AuthorID: uuid.FromStringOrNil(u.ID)}).Error)

	p, err = svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.PostsCount, "served from cache")

	svc.Cache.InvalidateUserProfile(ctx, u.ID)
	p, err = svc.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.PostsCount)

	_, err = svc.GetProfile(ctx, uuid.Must(uuid.NewV4()).String())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
