package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for User
type UserRepository struct {
	db *gorm.DB
}

var (
	_ ports.UserStore    = (*UserRepository)(nil)
	_ ports.AccountStore = (*UserRepository)(nil)
)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by UUID
func (r *UserRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser implements ports.UserStore
func (r *UserRepository) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates name, avatar, age, interests and community
func (r *UserRepository) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) error {
	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if req.Age != nil {
		updates["age"] = *req.Age
	}
	if req.Interests != nil {
		u := model.User{Interests: req.Interests}
		if err := r.db.Model(&model.User{}).Where("id = ?", userID).
			Select("interests").Updates(&u).Error; err != nil {
			return err
		}
	}
	if req.Community != "" {
		updates["community"] = req.Community
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

// SearchUsers searches users by name or email (partial match)
func (r *UserRepository) SearchUsers(query string, excludeUserID uuid.UUID, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.
		Where("(name ILIKE ? OR email ILIKE ?) AND id != ?", "%"+query+"%", "%"+query+"%", excludeUserID).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ========== Social graph ==========

// Follow inserts a follow edge; re-following is a no-op
func (r *UserRepository) Follow(followerID, followeeID uuid.UUID) error {
	follow := model.UserFollow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error
}

// Unfollow removes a follow edge
func (r *UserRepository) Unfollow(followerID, followeeID uuid.UUID) error {
	return r.db.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&model.UserFollow{}).Error
}

// ListFollowedIDs implements ports.UserStore
func (r *UserRepository) ListFollowedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.UserFollow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}

// CountFollowers returns how many users follow the given user
func (r *UserRepository) CountFollowers(userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserFollow{}).
		Where("followee_id = ?", userID).
		Count(&count).Error
	return count, err
}

// ========== FCM tokens ==========

// AddFCMToken adds or refreshes a push token
func (r *UserRepository) AddFCMToken(userID uuid.UUID, token, platform string) error {
	rec := model.FCMToken{
		UserID:       userID,
		Token:        token,
		Platform:     platform,
		LastActiveAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_active_at": time.Now(),
			"platform":       platform,
		}),
	}).Create(&rec).Error
}

// GetFCMTokens returns all push tokens for a user
func (r *UserRepository) GetFCMTokens(userID uuid.UUID) ([]model.FCMToken, error) {
	var tokens []model.FCMToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

// ========== Waitlist ==========

// CreateWaitlistEntry records a hardware waitlist signup
func (r *UserRepository) CreateWaitlistEntry(entry *model.WaitlistEntry) error {
	return r.db.Create(entry).Error
}
