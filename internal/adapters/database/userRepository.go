package database

import (
	"context"

	"instafeed/internal/core/follower"
	"instafeed/internal/core/post"
	"instafeed/internal/core/user"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// UserRepositoryDatabase implements UserRepository on gorm.
type UserRepositoryDatabase struct {
	DB *gorm.DB
}

func NewUserRepositoryDatabase(db *gorm.DB) *UserRepositoryDatabase {
	return &UserRepositoryDatabase{DB: db}
}

func (repo *UserRepositoryDatabase) Create(ctx context.Context, u *user.User) error {
	return translate("create user", repo.DB.WithContext(ctx).Create(u).Error)
}

func (repo *UserRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	var u user.User
	if err := repo.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

func (repo *UserRepositoryDatabase) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	var users []*user.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := repo.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate("find users", err)
	}
	return users, nil
}

func (repo *UserRepositoryDatabase) FindByHandle(ctx context.Context, handle string) (*user.User, error) {
	var u user.User
	if err := repo.DB.WithContext(ctx).Where("handle = ?", handle).First(&u).Error; err != nil {
		return nil, translate("find user by handle", err)
	}
	return &u, nil
}

func (repo *UserRepositoryDatabase) FindByHandleOrEmail(ctx context.Context, handle, email string) (*user.User, error) {
	var u user.User
	if err := repo.DB.WithContext(ctx).Where("handle = ? OR email = ?", handle, email).First(&u).Error; err != nil {
		return nil, translate("find user by handle or email", err)
	}
	return &u, nil
}

func (repo *UserRepositoryDatabase) Stats(ctx context.Context, id uuid.UUID) (*user.Stats, error) {
	var s user.Stats
	db := repo.DB.WithContext(ctx)
	if err := db.Model(&follower.Follow{}).Where("following_id = ?", id).Count(&s.Followers).Error; err != nil {
		return nil, translate("count followers", err)
	}
	if err := db.Model(&follower.Follow{}).Where("follower_id = ?", id).Count(&s.Following).Error; err != nil {
		return nil, translate("count following", err)
	}
	if err := db.Model(&post.Post{}).Where("author_id = ? AND is_archived = ?", id, false).Count(&s.Posts).Error; err != nil {
		return nil, translate("count posts", err)
	}
	return &s, nil
}
