package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
	"github.com/tbayconnect/api/pkg/auth"
	"github.com/tbayconnect/api/pkg/mailer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles accounts, sessions and the community profile bits
// (follows, push tokens, waitlist signups)
type AuthService struct {
	userRepo   ports.AccountStore
	jwtManager *auth.JWTManager
	mailer     *mailer.Mailer
	rdb        *redis.Client
}

func NewAuthService(
	userRepo ports.AccountStore,
	jwtManager *auth.JWTManager,
	mailer *mailer.Mailer,
	rdb *redis.Client,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		mailer:     mailer,
		rdb:        rdb,
	}
}

// Register creates a new account and returns a session token
func (s *AuthService) Register(req model.RegisterRequest) (*model.LoginResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, errors.New("email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.New("failed to create user")
	}

	return s.issueToken(user)
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(req model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	return s.issueToken(user)
}

// Logout blacklists the token until its natural expiry. Without Redis
// (in-memory mode) tokens cannot be revoked early and simply age out.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	if s.rdb == nil {
		return nil
	}
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return nil // already unusable
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, "blacklist:"+tokenString, "1", ttl).Err()
}

// GetProfile returns the safe profile for a user
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile updates name, avatar, age, interests, community
func (s *AuthService) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	if err := s.userRepo.UpdateProfile(userID, req); err != nil {
		return nil, err
	}
	return s.GetProfile(userID)
}

// SearchUsers finds community members by partial name or email match,
// excluding the searcher
func (s *AuthService) SearchUsers(query string, excludeUserID uuid.UUID, limit int) ([]model.UserResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	users, err := s.userRepo.SearchUsers(query, excludeUserID, limit)
	if err != nil {
		return nil, err
	}
	results := make([]model.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToResponse())
	}
	return results, nil
}

// Follow adds the followee to the user's follow set
func (s *AuthService) Follow(followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return model.ErrValidation("cannot follow yourself")
	}
	if _, err := s.userRepo.FindByID(followeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrUserNotFound
		}
		return err
	}
	return s.userRepo.Follow(followerID, followeeID)
}

// Unfollow removes a follow edge; unfollowing a stranger is a no-op
func (s *AuthService) Unfollow(followerID, followeeID uuid.UUID) error {
	return s.userRepo.Unfollow(followerID, followeeID)
}

// FollowerCount returns how many users follow the given user
func (s *AuthService) FollowerCount(userID uuid.UUID) (int64, error) {
	return s.userRepo.CountFollowers(userID)
}

// RegisterFCMToken stores a push token for the companion app
func (s *AuthService) RegisterFCMToken(userID uuid.UUID, req model.RegisterFCMTokenRequest) error {
	return s.userRepo.AddFCMToken(userID, req.Token, req.Platform)
}

// JoinWaitlist records a hardware waitlist signup and sends a
// best-effort confirmation email
func (s *AuthService) JoinWaitlist(req model.WaitlistRequest) (*model.WaitlistEntry, error) {
	kind := req.Kind
	if kind == "" {
		kind = string(model.DeviceKindBracelet)
	}

	entry := &model.WaitlistEntry{
		Name:      req.Name,
		Email:     req.Email,
		Kind:      kind,
		Community: req.Community,
	}
	if err := s.userRepo.CreateWaitlistEntry(entry); err != nil {
		return nil, errors.New("email already on waitlist")
	}

	if s.mailer != nil {
		go func() {
			if err := s.mailer.SendWaitlistConfirmation(entry.Email, entry.Name, entry.Kind); err != nil {
				log.Printf("⚠️ Waitlist confirmation email failed for %s: %v", entry.Email, err)
			}
		}()
	}

	return entry, nil
}

func (s *AuthService) issueToken(user *model.User) (*model.LoginResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name, user.IsAdmin)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}
