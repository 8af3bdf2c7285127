package database

import (
	"context"
	"time"

	"instafeed/internal/core/follower"
	followerPort "instafeed/internal/ports/follower"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowerRepositoryDatabase implements FollowerRepository on gorm.
type FollowerRepositoryDatabase struct {
	DB *gorm.DB
}

func NewFollowerRepositoryDatabase(db *gorm.DB) *FollowerRepositoryDatabase {
	return &FollowerRepositoryDatabase{DB: db}
}

// Follow inserts the edge unless it exists.
func (repo *FollowerRepositoryDatabase) Follow(ctx context.Context, f *follower.Follow) (bool, error) {
	res := repo.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(f)
	if res.Error != nil {
		return false, translate("follow", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (repo *FollowerRepositoryDatabase) Unfollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	res := repo.DB.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&follower.Follow{})
	if res.Error != nil {
		return false, translate("unfollow", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (repo *FollowerRepositoryDatabase) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.DB.WithContext(ctx).Model(&follower.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, translate("following ids", err)
}

func (repo *FollowerRepositoryDatabase) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := repo.DB.WithContext(ctx).Model(&follower.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, translate("follower ids", err)
}

func (repo *FollowerRepositoryDatabase) IsFollowing(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	err := repo.DB.WithContext(ctx).Model(&follower.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, translate("is following", err)
	}
	return count > 0, nil
}

type edgeRow struct {
	UserID      uuid.UUID
	Handle      string
	DisplayName string
	CreatedAt   time.Time
}

func (repo *FollowerRepositoryDatabase) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*followerPort.FollowerDTO, error) {
	return repo.listEdges(ctx, "follows.follower_id", "follows.following_id", userID, limit, offset)
}

func (repo *FollowerRepositoryDatabase) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*followerPort.FollowerDTO, error) {
	return repo.listEdges(ctx, "follows.following_id", "follows.follower_id", userID, limit, offset)
}

// listEdges joins the far side of each edge to users, newest edge first.
func (repo *FollowerRepositoryDatabase) listEdges(ctx context.Context, farCol, nearCol string, userID uuid.UUID, limit, offset int) ([]*followerPort.FollowerDTO, error) {
	var rows []edgeRow
	err := repo.DB.WithContext(ctx).Table("follows").
		Select(farCol+" AS user_id, users.handle, users.display_name, follows.created_at").
		Joins("JOIN users ON users.id = "+farCol).
		Where(nearCol+" = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, translate("list follow edges", err)
	}

	out := make([]*followerPort.FollowerDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, &followerPort.FollowerDTO{
			UserID:      r.UserID.String(),
			Handle:      r.Handle,
			DisplayName: r.DisplayName,
			FollowedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
