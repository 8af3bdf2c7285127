package userapp

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	userEntity "instafeed/internal/core/user"
	userPort "instafeed/internal/ports/user"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer       = "instafeed"
	tokenTTL          = 24 * time.Hour
	minPasswordLength = 8
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// UserService manages accounts and cached profiles.
type UserService struct {
	UserRepository userPort.UserRepository
	Cache          *cachemanager.Manager
	Logger         *zap.Logger
	jwtKey         []byte
}

func NewUserService(repo userPort.UserRepository, cache *cachemanager.Manager, jwtKey []byte, logger *zap.Logger) *UserService {
	return &UserService{
		UserRepository: repo,
		Cache:          cache,
		Logger:         logger.Named("user"),
		jwtKey:         jwtKey,
	}
}

// LoginUser checks the password and issues a signed token. Every failure is
// reported as the same ErrUnauthorized.
func (s *UserService) LoginUser(ctx context.Context, handle, password string) (*userPort.LoginResponse, error) {
	user, err := s.UserRepository.FindByHandle(ctx, strings.ToLower(handle))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("login: %w", apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("login: %w", apperr.ErrUnauthorized)
	}

	expiresAt := time.Now().Add(tokenTTL)
	token, err := s.generateJWT(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &userPort.LoginResponse{Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

func (s *UserService) generateJWT(user *userEntity.User, expiresAt time.Time) (string, error) {
	claims := &jwt.StandardClaims{
		Subject:   user.ID.String(),
		Issuer:    tokenIssuer,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: expiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
}

func (s *UserService) RegisterUser(ctx context.Context, in userPort.RegisterInput) (*userPort.UserDTO, error) {
	in.Handle = strings.ToLower(strings.TrimSpace(in.Handle))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	existing, err := s.UserRepository.FindByHandleOrEmail(ctx, in.Handle, in.Email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("handle or email already taken: %w", apperr.ErrConflict)
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Handle
	}
	user := &userEntity.User{
		ID:           uuid.Must(uuid.NewV4()),
		Handle:       in.Handle,
		Email:        in.Email,
		DisplayName:  displayName,
		PasswordHash: string(hashed),
		IsPrivate:    in.IsPrivate,
	}
	if err := s.UserRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.Logger.Info("User registered", zap.String("userID", user.ID.String()), zap.String("handle", user.Handle))

	return toDTO(user), nil
}

// GetProfile serves the profile blob cache-aside.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*userPort.ProfileDTO, error) {
	id, err := uuid.FromString(userID)
	if err != nil {
		return nil, apperr.Invalid("user_id", "must be a uuid")
	}
	if p, ok := s.Cache.GetUserProfile(ctx, userID); ok {
		return p, nil
	}

	user, err := s.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	stats, err := s.UserRepository.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	p := &userPort.ProfileDTO{
		ID:             user.ID.String(),
		Handle:         user.Handle,
		DisplayName:    user.DisplayName,
		Bio:            user.Bio,
		IsPrivate:      user.IsPrivate,
		FollowersCount: stats.Followers,
		FollowingCount: stats.Following,
		PostsCount:     stats.Posts,
		CreatedAt:      user.CreatedAt.UTC().Format(time.RFC3339),
	}
	s.Cache.SetUserProfile(ctx, p)
	return p, nil
}

func validateRegistration(in userPort.RegisterInput) error {
	if !handlePattern.MatchString(in.Handle) {
		return apperr.Invalid("handle", "3 to 30 characters of a-z, 0-9, '_' or '.'")
	}
	if in.Email == "" {
		return apperr.Invalid("email", "must not be empty")
	}
	if len(in.Password) < minPasswordLength {
		return apperr.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

func toDTO(u *userEntity.User) *userPort.UserDTO {
	return &userPort.UserDTO{
		ID:          u.ID.String(),
		Handle:      u.Handle,
		DisplayName: u.DisplayName,
		IsPrivate:   u.IsPrivate,
	}
}
