package ports

import (
	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
)

// AccountStore is the backend of accounts, the social graph, push tokens
// and the hardware waitlist. Implementations exist for PostgreSQL and
// in-memory (tests and store-less startup).
type AccountStore interface {
	Create(user *model.User) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) error
	SearchUsers(query string, excludeUserID uuid.UUID, limit int) ([]model.User, error)

	Follow(followerID, followeeID uuid.UUID) error
	Unfollow(followerID, followeeID uuid.UUID) error
	CountFollowers(userID uuid.UUID) (int64, error)

	AddFCMToken(userID uuid.UUID, token, platform string) error
	GetFCMTokens(userID uuid.UUID) ([]model.FCMToken, error)

	CreateWaitlistEntry(entry *model.WaitlistEntry) error
}
