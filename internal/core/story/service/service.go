package storyapp

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/post"
	storyEntity "instafeed/internal/core/story"
	followerPort "instafeed/internal/ports/follower"
	storyPort "instafeed/internal/ports/story"
	userPort "instafeed/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const (
	maxCaptionLength = 500
	maxPageSize      = 100
)

type StoryService struct {
	StoryRepository    storyPort.StoryRepository
	FollowerRepository followerPort.FollowerRepository
	UserRepository     userPort.UserRepository
	Logger             *zap.Logger

	now func() time.Time
}

func NewStoryService(
	repo storyPort.StoryRepository,
	followerRepo followerPort.FollowerRepository,
	userRepo userPort.UserRepository,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		StoryRepository:    repo,
		FollowerRepository: followerRepo,
		UserRepository:     userRepo,
		Logger:             logger.Named("story"),
		now:                time.Now,
	}
}

func (s *StoryService) CreateStory(ctx context.Context, userID, mediaType, mediaURL, caption string) (*storyPort.StoryDTO, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	if mediaType != post.MediaImage && mediaType != post.MediaVideo {
		return nil, apperr.Invalid("media_type", fmt.Sprintf("unknown media type %q", mediaType))
	}
	if mediaURL == "" {
		return nil, apperr.Invalid("media_url", "must not be empty")
	}
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		return nil, apperr.Invalid("caption", fmt.Sprintf("must be at most %d characters", maxCaptionLength))
	}

	now := s.now().UTC()
	st := &storyEntity.Story{
		ID:        uuid.Must(uuid.NewV4()),
		UserID:    uid,
		MediaType: mediaType,
		MediaURL:  mediaURL,
		Caption:   caption,
		CreatedAt: now,
		ExpiresAt: now.Add(storyEntity.Lifetime),
	}
	if err := s.StoryRepository.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return toDTO(st), nil
}

// StoryFeed returns active stories of followed users and the viewer's own.
func (s *StoryService) StoryFeed(ctx context.Context, viewerID string) ([]*storyPort.StoryDTO, error) {
	uid, err := parseID("user_id", viewerID)
	if err != nil {
		return nil, err
	}
	following, err := s.FollowerRepository.FollowingIDs(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("story feed: %w", err)
	}
	stories, err := s.StoryRepository.ActiveByAuthors(ctx, append(following, uid), s.now())
	if err != nil {
		return nil, fmt.Errorf("story feed: %w", err)
	}
	out := make([]*storyPort.StoryDTO, 0, len(stories))
	for _, st := range stories {
		out = append(out, toDTO(st))
	}
	return out, nil
}

// MyStories returns the user's own active stories with their view counts.
func (s *StoryService) MyStories(ctx context.Context, userID string) ([]*storyPort.StoryDTO, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	stories, err := s.StoryRepository.ActiveByAuthors(ctx, []uuid.UUID{uid}, s.now())
	if err != nil {
		return nil, fmt.Errorf("my stories: %w", err)
	}
	out := make([]*storyPort.StoryDTO, 0, len(stories))
	for _, st := range stories {
		out = append(out, toDTO(st))
	}
	return out, nil
}

// ViewStory records one view per viewer. Viewing again succeeds and reports
// created=false. Expired stories cannot be viewed.
func (s *StoryService) ViewStory(ctx context.Context, viewerID, storyID string) (bool, error) {
	uid, err := parseID("user_id", viewerID)
	if err != nil {
		return false, err
	}
	st, err := s.load(ctx, storyID)
	if err != nil {
		return false, err
	}
	if st.Expired(s.now()) {
		return false, apperr.Invalid("story", "has expired")
	}
	created, err := s.StoryRepository.RecordView(ctx, st.ID, uid)
	if err != nil {
		return false, fmt.Errorf("view story: %w", err)
	}
	return created, nil
}

// StoryViewers lists who viewed a story, newest first. Only the owner may ask.
func (s *StoryService) StoryViewers(ctx context.Context, userID, storyID string, limit, offset int) ([]*userPort.UserDTO, error) {
	st, err := s.owned(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	ids, err := s.StoryRepository.ViewerIDs(ctx, st.ID, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("story viewers: %w", err)
	}
	users, err := s.UserRepository.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("story viewers: %w", err)
	}
	return userPort.OrderedDTOs(ids, users), nil
}

func (s *StoryService) DeleteStory(ctx context.Context, userID, storyID string) error {
	st, err := s.owned(ctx, userID, storyID)
	if err != nil {
		return err
	}
	if err := s.StoryRepository.Delete(ctx, st.ID); err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	s.Logger.Debug("Story deleted", zap.String("storyID", storyID))
	return nil
}

func (s *StoryService) load(ctx context.Context, storyID string) (*storyEntity.Story, error) {
	id, err := parseID("story_id", storyID)
	if err != nil {
		return nil, err
	}
	st, err := s.StoryRepository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load story: %w", err)
	}
	return st, nil
}

func (s *StoryService) owned(ctx context.Context, userID, storyID string) (*storyEntity.Story, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	st, err := s.load(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if st.UserID != uid {
		return nil, fmt.Errorf("story %s: %w", storyID, apperr.ErrForbidden)
	}
	return st, nil
}

// PurgeExpired deletes up to batch expired stories.
func (s *StoryService) PurgeExpired(ctx context.Context, batch int) (int64, error) {
	n, err := s.StoryRepository.DeleteExpired(ctx, s.now(), batch)
	if err != nil {
		return 0, fmt.Errorf("purge stories: %w", err)
	}
	return n, nil
}

func toDTO(st *storyEntity.Story) *storyPort.StoryDTO {
	return &storyPort.StoryDTO{
		ID:         st.ID.String(),
		UserID:     st.UserID.String(),
		MediaType:  st.MediaType,
		MediaURL:   st.MediaURL,
		Caption:    st.Caption,
		ViewsCount: st.ViewsCount,
		CreatedAt:  st.CreatedAt.UTC(),
		ExpiresAt:  st.ExpiresAt.UTC(),
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Invalid(field, "must be a uuid")
	}
	return id, nil
}
