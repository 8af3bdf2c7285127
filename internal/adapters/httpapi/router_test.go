package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"instafeed/internal/adapters/database"
	redisadapter "instafeed/internal/adapters/redis"
	"instafeed/internal/core/cachemanager"
	commentapp "instafeed/internal/core/comment/service"
	feedapp "instafeed/internal/core/feed/service"
	followerapp "instafeed/internal/core/follower/service"
	notificationapp "instafeed/internal/core/notification/service"
	postapp "instafeed/internal/core/post/service"
	storyapp "instafeed/internal/core/story/service"
	userapp "instafeed/internal/core/user/service"
	"instafeed/internal/ports/ratelimit"
	"instafeed/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtSecret = []byte("router-test-secret")

func init() { gin.SetMode(gin.TestMode) }

type api struct {
	t      *testing.T
	router *gin.Engine
	bus    *testutil.Bus
}

func setupTest(t *testing.T) *api {
	t.Helper()

	db := testutil.NewDB(t)
	_, client := testutil.NewRedis(t)
	logger := testutil.Logger(t)
	bus := &testutil.Bus{}

	cache := cachemanager.New(redisadapter.NewCacheRedis(client), cachemanager.DefaultTTLs(), logger)
	userRepo := database.NewUserRepositoryDatabase(db)
	followerRepo := database.NewFollowerRepositoryDatabase(db)
	postRepo := database.NewPostRepositoryDatabase(db)
	likeRepo := database.NewLikeRepositoryDatabase(db)

	feed := feedapp.NewFeedService(followerRepo, postRepo, likeRepo, cache, feedapp.DefaultOptions(), logger)
	limiter := redisadapter.NewFixedWindowLimiter(client,
		map[string]ratelimit.Rule{ScopePost: {Limit: 2, Window: time.Hour}},
		ratelimit.Rule{Limit: 1000, Window: time.Minute},
		logger,
	)

	router := SetupRoutes(UseCases{
		Users:         userapp.NewUserService(userRepo, cache, jwtSecret, logger),
		Posts:         postapp.NewPostService(postRepo, likeRepo, database.NewSavedPostRepositoryDatabase(db), userRepo, feed, cache, bus, logger),
		Comments:      commentapp.NewCommentService(database.NewCommentRepositoryDatabase(db), postRepo, cache, bus, logger),
		Followers:     followerapp.NewFollowerService(followerRepo, userRepo, feed, cache, bus, logger),
		Feed:          feed,
		Notifications: notificationapp.NewNotificationService(database.NewNotificationRepositoryDatabase(db), logger),
		Stories:       storyapp.NewStoryService(database.NewStoryRepositoryDatabase(db), followerRepo, userRepo, logger),
	}, jwtSecret, limiter)

	return &api{t: t, router: router, bus: bus}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// signup registers handle and returns its id and a token.
func (a *api) signup(handle string) (string, string) {
	a.t.Helper()

	w := a.do(http.MethodPost, "/register", "", gin.H{"handle": handle, "email": handle + "@example.com", "password": "correct-horse"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[struct {
		ID string `json:"id"`
	}](a.t, w).ID

	w = a.do(http.MethodPost, "/login", "", gin.H{"handle": handle, "password": "correct-horse"})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return id, decode[struct {
		Token string `json:"token"`
	}](a.t, w).Token
}

func TestRouter_FollowThenFeed(t *testing.T) {
	t.Parallel()

	a := setupTest(t)
	aliceID, alice := a.signup("alice")
	_, bob := a.signup("bob")

	w := a.do(http.MethodPost, "/posts", alice, gin.H{
		"caption":     "sunset",
		"media_urls":  []string{"https://cdn.example.com/1.jpg"},
		"media_types": []string{"image"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/users/"+aliceID+"/follow", bob, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	w = a.do(http.MethodPost, "/users/"+aliceID+"/follow", bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/feed", bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[struct {
		Posts []struct {
			Caption      string `json:"caption"`
			AuthorHandle string `json:"author_handle"`
		} `json:"posts"`
	}](t, w)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "sunset", page.Posts[0].Caption)
	assert.Equal(t, "alice", page.Posts[0].AuthorHandle)

	w = a.do(http.MethodGet, "/users/"+aliceID+"/followers", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bob"`)

	assert.Equal(t, []string{"post_created", "follow_created"}, a.bus.Topics())
}

func TestRouter_ErrorMapping(t *testing.T) {
	t.Parallel()

	a := setupTest(t)
	_, token := a.signup("carol")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/feed", "", nil, http.StatusUnauthorized},
		{"bad cursor", http.MethodGet, "/feed?cursor=not-a-cursor", token, nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/feed?limit=-1", token, nil, http.StatusBadRequest},
		{"unknown post", http.MethodGet, "/posts/" + uuid.Must(uuid.NewV4()).String(), token, nil, http.StatusNotFound},
		{"malformed post id", http.MethodGet, "/posts/42", token, nil, http.StatusBadRequest},
		{"handle taken", http.MethodPost, "/register", "", gin.H{"handle": "carol", "email": "other@example.com", "password": "correct-horse"}, http.StatusConflict},
		{"malformed email", http.MethodPost, "/register", "", gin.H{"handle": "carol2", "email": "carol.example.com", "password": "correct-horse"}, http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/login", "", gin.H{"handle": "carol", "password": "nope-nope"}, http.StatusUnauthorized},
		{"unknown notification", http.MethodPost, "/notifications/" + uuid.Must(uuid.NewV4()).String() + "/read", token, nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		w := a.do(tt.method, tt.path, tt.token, tt.body)
		assert.Equal(t, tt.want, w.Code, "%s: %s", tt.name, w.Body.String())
		assert.Contains(t, w.Body.String(), `"error"`, tt.name)
	}
}

func TestRouter_PostRateLimit(t *testing.T) {
	t.Parallel()

	a := setupTest(t)
	_, token := a.signup("dave")

	for i := 0; i < 2; i++ {
		w := a.do(http.MethodPost, "/posts", token, gin.H{"caption": "ok"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
	}

	w := a.do(http.MethodPost, "/posts", token, gin.H{"caption": "one too many"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func (a *api) createPost(token, caption string) string {
	a.t.Helper()

	w := a.do(http.MethodPost, "/posts", token, gin.H{"caption": caption})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID string `json:"id"`
	}](a.t, w).ID
}

func TestRouter_SaveTwiceKeepsOne(t *testing.T) {
	t.Parallel()

	a := setupTest(t)
	_, erin := a.signup("erin")
	_, frank := a.signup("frank")
	postID := a.createPost(erin, "harbor")

	type saveResponse struct {
		Saved   bool `json:"saved"`
		Created bool `json:"created"`
	}
	w := a.do(http.MethodPost, "/posts/"+postID+"/save", frank, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, saveResponse{Saved: true, Created: true}, decode[saveResponse](t, w))

	w = a.do(http.MethodPost, "/posts/"+postID+"/save", frank, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, saveResponse{Saved: true, Created: false}, decode[saveResponse](t, w))

	w = a.do(http.MethodGet, "/saved", frank, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[struct {
		Posts []struct {
			ID string `json:"id"`
		} `json:"posts"`
	}](t, w)
	require.Len(t, saved.Posts, 1)
	assert.Equal(t, postID, saved.Posts[0].ID)

	w = a.do(http.MethodDelete, "/posts/"+postID+"/save", frank, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, "/saved", frank, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), postID)
}

func TestRouter_ArchivedPostHidesComments(t *testing.T) {
	t.Parallel()

	a := setupTest(t)
	_, gina := a.signup("gina")
	_, hank := a.signup("hank")
	postID := a.createPost(gina, "draft")

	w := a.do(http.MethodPost, "/posts/"+postID+"/comments", hank, gin.H{"content": "nice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/posts/"+postID+"/archive", gina, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/posts/"+postID+"/comments", hank, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/posts/"+postID+"/comments", gina, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"nice"`)
}
