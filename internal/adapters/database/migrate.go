package database

import (
	"instafeed/internal/core/comment"
	"instafeed/internal/core/follower"
	"instafeed/internal/core/notification"
	"instafeed/internal/core/outbox"
	"instafeed/internal/core/post"
	"instafeed/internal/core/story"
	"instafeed/internal/core/user"

	"gorm.io/gorm"
)

// Migrate creates or updates every table of the Entity Store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&follower.Follow{},
		&post.Post{},
		&post.Media{},
		&post.Like{},
		&post.SavedPost{},
		&comment.Comment{},
		&comment.Like{},
		&notification.Notification{},
		&story.Story{},
		&story.View{},
		&outbox.Entry{},
	)
}
