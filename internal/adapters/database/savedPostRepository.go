package database

import (
	"context"

	"instafeed/internal/core/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SavedPostRepositoryDatabase struct {
	DB *gorm.DB
}

func NewSavedPostRepositoryDatabase(db *gorm.DB) *SavedPostRepositoryDatabase {
	return &SavedPostRepositoryDatabase{DB: db}
}

// Save inserts the bookmark unless it exists; created is false for a repeat.
func (repo *SavedPostRepositoryDatabase) Save(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	saved := &post.SavedPost{ID: uuid.Must(uuid.NewV4()), UserID: userID, PostID: postID}
	res := repo.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(saved)
	if res.Error != nil {
		return false, translate("save post", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (repo *SavedPostRepositoryDatabase) Unsave(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	res := repo.DB.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&post.SavedPost{})
	if res.Error != nil {
		return false, translate("unsave post", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SavedPostIDs returns the user's bookmarks, most recently saved first.
func (repo *SavedPostRepositoryDatabase) SavedPostIDs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := repo.DB.WithContext(ctx).Model(&post.SavedPost{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, translate("saved post ids", err)
	}
	return ids, nil
}
