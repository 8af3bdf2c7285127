package httpapi

import (
	"context"

	"instafeed/internal/adapters/httpapi/middleware"
	commentPort "instafeed/internal/ports/comment"
	feedPort "instafeed/internal/ports/feed"
	followerPort "instafeed/internal/ports/follower"
	notificationPort "instafeed/internal/ports/notification"
	postPort "instafeed/internal/ports/post"
	"instafeed/internal/ports/ratelimit"
	storyPort "instafeed/internal/ports/story"
	userPort "instafeed/internal/ports/user"

	"github.com/gin-gonic/gin"
)

// Rate limit scopes of write routes.
const (
	ScopeLogin   = "login"
	ScopePost    = "post"
	ScopeComment = "comment"
	ScopeLike    = "like"
	ScopeFollow  = "follow"
	ScopeStory   = "story"
)

type UserUseCase interface {
	LoginUser(ctx context.Context, handle, password string) (*userPort.LoginResponse, error)
	RegisterUser(ctx context.Context, in userPort.RegisterInput) (*userPort.UserDTO, error)
	GetProfile(ctx context.Context, userID string) (*userPort.ProfileDTO, error)
}

type PostUseCase interface {
	CreatePost(ctx context.Context, in postPort.CreatePostInput) (*postPort.PostSummary, error)
	GetPost(ctx context.Context, viewerID, postID string) (*postPort.PostSummary, error)
	LikePost(ctx context.Context, userID, postID string) (bool, error)
	UnlikePost(ctx context.Context, userID, postID string) (bool, error)
	ListLikers(ctx context.Context, viewerID, postID string, limit, offset int) ([]*userPort.UserDTO, error)
	SavePost(ctx context.Context, userID, postID string) (bool, error)
	UnsavePost(ctx context.Context, userID, postID string) (bool, error)
	ListSaved(ctx context.Context, userID string, limit, offset int) ([]*postPort.PostSummary, error)
	ArchivePost(ctx context.Context, userID, postID string) error
	UnarchivePost(ctx context.Context, userID, postID string) error
}

type CommentUseCase interface {
	CreateComment(ctx context.Context, userID, postID, content, parentID string) (*commentPort.CommentDTO, error)
	DeleteComment(ctx context.Context, userID, commentID string) error
	ListComments(ctx context.Context, viewerID, postID string, limit, offset int) ([]*commentPort.CommentDTO, error)
	ListReplies(ctx context.Context, viewerID, commentID string, limit, offset int) ([]*commentPort.CommentDTO, error)
	EditComment(ctx context.Context, userID, commentID, content string) (*commentPort.CommentDTO, error)
	LikeComment(ctx context.Context, userID, commentID string) (bool, error)
	UnlikeComment(ctx context.Context, userID, commentID string) (bool, error)
}

type FollowerUseCase interface {
	FollowUser(ctx context.Context, followerID, followeeID string) (bool, error)
	UnfollowUser(ctx context.Context, followerID, followeeID string) error
	GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*followerPort.FollowerDTO, error)
	GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*followerPort.FollowerDTO, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
}

type FeedUseCase interface {
	GetFeed(ctx context.Context, userID string, limit int, cursor string) (*feedPort.FeedPage, error)
	Explore(ctx context.Context, viewerID string, limit int, cursor string) (*feedPort.FeedPage, error)
	GetTrending(ctx context.Context, viewerID string, limit int) ([]*postPort.PostSummary, error)
}

type NotificationUseCase interface {
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*notificationPort.NotificationDTO, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	ClearAll(ctx context.Context, userID string) (int64, error)
}

type StoryUseCase interface {
	CreateStory(ctx context.Context, userID, mediaType, mediaURL, caption string) (*storyPort.StoryDTO, error)
	StoryFeed(ctx context.Context, viewerID string) ([]*storyPort.StoryDTO, error)
	MyStories(ctx context.Context, userID string) ([]*storyPort.StoryDTO, error)
	ViewStory(ctx context.Context, viewerID, storyID string) (bool, error)
	StoryViewers(ctx context.Context, userID, storyID string, limit, offset int) ([]*userPort.UserDTO, error)
	DeleteStory(ctx context.Context, userID, storyID string) error
}

// UseCases groups the inbound ports served over HTTP.
type UseCases struct {
	Users         UserUseCase
	Posts         PostUseCase
	Comments      CommentUseCase
	Followers     FollowerUseCase
	Feed          FeedUseCase
	Notifications NotificationUseCase
	Stories       StoryUseCase
}

// SetupRoutes only wires routes; use cases are injected by the caller.
func SetupRoutes(uc UseCases, jwtSecret []byte, limiter ratelimit.Limiter) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RateLimit(limiter, middleware.GlobalScope))

	users := NewUserController(uc.Users)
	posts := NewPostController(uc.Posts)
	comments := NewCommentController(uc.Comments)
	followers := NewFollowerController(uc.Followers)
	feed := NewFeedController(uc.Feed)
	notifications := NewNotificationController(uc.Notifications)
	stories := NewStoryController(uc.Stories)
	limit := func(scope string) gin.HandlerFunc { return middleware.RateLimit(limiter, scope) }

	// Registration and login are the only anonymous routes.
	r.POST("/register", users.RegisterUser)
	r.POST("/login", limit(ScopeLogin), users.LoginUser)

	auth := r.Group("/", middleware.JWTAuthMiddleware(jwtSecret))

	auth.GET("/feed", feed.GetFeed)
	auth.GET("/explore", feed.Explore)
	auth.GET("/trending", feed.GetTrending)

	auth.POST("/posts", limit(ScopePost), posts.CreatePost)
	auth.GET("/posts/:id", posts.GetPost)
	auth.POST("/posts/:id/like", limit(ScopeLike), posts.LikePost)
	auth.DELETE("/posts/:id/like", posts.UnlikePost)
	auth.GET("/posts/:id/likes", posts.ListLikers)
	auth.POST("/posts/:id/save", posts.SavePost)
	auth.DELETE("/posts/:id/save", posts.UnsavePost)
	auth.GET("/saved", posts.ListSaved)
	auth.POST("/posts/:id/archive", posts.ArchivePost)
	auth.POST("/posts/:id/unarchive", posts.UnarchivePost)
	auth.GET("/posts/:id/comments", comments.ListComments)
	auth.POST("/posts/:id/comments", limit(ScopeComment), comments.CreateComment)
	auth.PATCH("/comments/:id", comments.EditComment)
	auth.DELETE("/comments/:id", comments.DeleteComment)
	auth.GET("/comments/:id/replies", comments.ListReplies)
	auth.POST("/comments/:id/like", limit(ScopeLike), comments.LikeComment)
	auth.DELETE("/comments/:id/like", comments.UnlikeComment)

	auth.GET("/users/:id", users.GetProfile)
	auth.GET("/users/:id/follow", followers.IsFollowing)
	auth.POST("/users/:id/follow", limit(ScopeFollow), followers.FollowUser)
	auth.DELETE("/users/:id/follow", followers.UnfollowUser)
	auth.GET("/users/:id/followers", followers.GetFollowers)
	auth.GET("/users/:id/following", followers.GetFollowing)

	auth.GET("/notifications", notifications.List)
	auth.GET("/notifications/unread_count", notifications.UnreadCount)
	auth.POST("/notifications/:id/read", notifications.MarkRead)
	auth.POST("/notifications/read_all", notifications.MarkAllRead)
	auth.DELETE("/notifications", notifications.ClearAll)

	auth.POST("/stories", limit(ScopeStory), stories.CreateStory)
	auth.GET("/stories", stories.StoryFeed)
	auth.GET("/stories/mine", stories.MyStories)
	auth.POST("/stories/:id/view", stories.ViewStory)
	auth.GET("/stories/:id/viewers", stories.StoryViewers)
	auth.DELETE("/stories/:id", stories.DeleteStory)
	return r
}

// currentUser returns the id set by the JWT middleware.
func currentUser(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
