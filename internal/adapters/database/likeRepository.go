package database

import (
	"context"

	"instafeed/internal/core/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepositoryDatabase keeps likes and posts.likes_count in the same
// transaction. Counters move with atomic column expressions, never by
// read-modify-write.
type LikeRepositoryDatabase struct {
	DB *gorm.DB
}

func NewLikeRepositoryDatabase(db *gorm.DB) *LikeRepositoryDatabase {
	return &LikeRepositoryDatabase{DB: db}
}

func (repo *LikeRepositoryDatabase) Like(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	created := false
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &post.Like{ID: uuid.Must(uuid.NewV4()), UserID: userID, PostID: postID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&post.Post{}).Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	if err != nil {
		return false, translate("like post", err)
	}
	return created, nil
}

func (repo *LikeRepositoryDatabase) Unlike(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	deleted := false
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&post.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Model(&post.Post{}).Where("id = ?", postID).
			UpdateColumn("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		return false, translate("unlike post", err)
	}
	return deleted, nil
}

func (repo *LikeRepositoryDatabase) LikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(postIDs))
	if len(postIDs) == 0 || userID == uuid.Nil {
		return liked, nil
	}
	var ids []uuid.UUID
	err := repo.DB.WithContext(ctx).Model(&post.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, translate("liked post ids", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (repo *LikeRepositoryDatabase) LikerIDs(ctx context.Context, postID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := repo.DB.WithContext(ctx).Model(&post.Like{}).
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate("post likers", err)
	}
	return ids, nil
}
