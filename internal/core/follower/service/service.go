package followerapp

import (
	"context"
	"fmt"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	"instafeed/internal/core/event"
	followerEntity "instafeed/internal/core/follower"
	eventPort "instafeed/internal/ports/eventbus"
	feedPort "instafeed/internal/ports/feed"
	followerPort "instafeed/internal/ports/follower"
	userPort "instafeed/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

type FollowerService struct {
	FollowerRepository followerPort.FollowerRepository
	UserRepository     userPort.UserRepository
	FeedInvalidator    feedPort.Invalidator
	Cache              *cachemanager.Manager
	Publisher          eventPort.Publisher
	Logger             *zap.Logger
}

func NewFollowerService(
	repo followerPort.FollowerRepository,
	userRepo userPort.UserRepository,
	feedInvalidator feedPort.Invalidator,
	cache *cachemanager.Manager,
	publisher eventPort.Publisher,
	logger *zap.Logger,
) *FollowerService {
	return &FollowerService{
		FollowerRepository: repo,
		UserRepository:     userRepo,
		FeedInvalidator:    feedInvalidator,
		Cache:              cache,
		Publisher:          publisher,
		Logger:             logger.Named("follower"),
	}
}

// FollowUser creates the edge. Following someone twice succeeds with
// created=false and emits nothing.
func (s *FollowerService) FollowUser(ctx context.Context, followerID, followeeID string) (bool, error) {
	from, to, err := parsePair(followerID, followeeID)
	if err != nil {
		return false, err
	}
	if from == to {
		s.Logger.Warn("Cannot follow yourself", zap.String("userID", followerID))
		return false, apperr.Invalid("user_id", "cannot follow yourself")
	}
	if _, err := s.UserRepository.FindByID(ctx, to); err != nil {
		return false, fmt.Errorf("follow: %w", err)
	}

	created, err := s.FollowerRepository.Follow(ctx, &followerEntity.Follow{
		ID:          uuid.Must(uuid.NewV4()),
		FollowerID:  from,
		FollowingID: to,
	})
	if err != nil {
		return false, fmt.Errorf("follow: %w", err)
	}
	if !created {
		return false, nil
	}

	s.FeedInvalidator.InvalidateUser(ctx, followerID)
	s.Cache.InvalidateUserProfile(ctx, followerID, followeeID)

	evt := event.New(event.FollowCreated, followerID)
	evt.TargetUserID = followeeID
	if err := s.Publisher.Publish(ctx, evt.Type, evt); err != nil {
		s.Logger.Error("Event lost", zap.String("type", evt.Type), zap.String("eventID", evt.ID), zap.Error(err))
	}
	return true, nil
}

// UnfollowUser is idempotent.
func (s *FollowerService) UnfollowUser(ctx context.Context, followerID, followeeID string) error {
	from, to, err := parsePair(followerID, followeeID)
	if err != nil {
		return err
	}
	deleted, err := s.FollowerRepository.Unfollow(ctx, from, to)
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	if deleted {
		s.FeedInvalidator.InvalidateUser(ctx, followerID)
		s.Cache.InvalidateUserProfile(ctx, followerID, followeeID)
	}
	return nil
}

func (s *FollowerService) GetFollowers(ctx context.Context, userID string, limit, offset int) ([]*followerPort.FollowerDTO, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.FollowerRepository.ListFollowers(ctx, id, pageSize(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return list, nil
}

func (s *FollowerService) GetFollowing(ctx context.Context, userID string, limit, offset int) ([]*followerPort.FollowerDTO, error) {
	id, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.FollowerRepository.ListFollowing(ctx, id, pageSize(limit), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	return list, nil
}

func (s *FollowerService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	from, to, err := parsePair(followerID, followeeID)
	if err != nil {
		return false, err
	}
	return s.FollowerRepository.IsFollowing(ctx, from, to)
}

func pageSize(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Invalid("user_id", "must be a uuid")
	}
	return id, nil
}

func parsePair(followerID, followeeID string) (uuid.UUID, uuid.UUID, error) {
	from, err := parseID(followerID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	to, err := parseID(followeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return from, to, nil
}
