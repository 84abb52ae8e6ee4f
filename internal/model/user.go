package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered community member
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `json:"name" gorm:"size:100;not null"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password string    `json:"-" gorm:"size:255"`
	Avatar   string    `json:"avatar" gorm:"size:500;default:''"`
	IsAdmin  bool      `json:"is_admin" gorm:"default:false"`

	// Profile used by the feed ranking and age gating
	Age       *int     `json:"age,omitempty"`
	Interests []string `json:"interests" gorm:"serializer:json"`
	Community string   `json:"community" gorm:"size:100;default:''"`

	// A user attends at most one active event at a time
	ActiveEventID *uuid.UUID `json:"active_event_id,omitempty" gorm:"type:uuid"`

	// Exclusive pairing with a wearable; must agree with Device.OwnerID
	DeviceID *string `json:"device_id,omitempty" gorm:"size:64"`

	// Event creation quota: rolling window, not calendar months
	EventWindowStart *time.Time `json:"-"`
	EventsInWindow   int        `json:"-" gorm:"default:0"`
	EventLimit       *int       `json:"-"` // per-user override, default limit applies when nil

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserFollow is a directed edge in the social graph
type UserFollow struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FollowerID uuid.UUID `json:"follower_id" gorm:"type:uuid;uniqueIndex:idx_follower_followee;not null"`
	FolloweeID uuid.UUID `json:"followee_id" gorm:"type:uuid;uniqueIndex:idx_follower_followee;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// WaitlistEntry is a public signup for the wearable hardware waitlist
type WaitlistEntry struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Kind      string    `json:"kind" gorm:"size:20;default:'bracelet'"` // bracelet, necklace, ring
	Community string    `json:"community" gorm:"size:100;default:''"`
	CreatedAt time.Time `json:"created_at"`
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Avatar        string     `json:"avatar"`
	IsAdmin       bool       `json:"is_admin"`
	Age           *int       `json:"age,omitempty"`
	Interests     []string   `json:"interests"`
	Community     string     `json:"community"`
	ActiveEventID *uuid.UUID `json:"active_event_id,omitempty"`
	DeviceID      *string    `json:"device_id,omitempty"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Avatar:        u.Avatar,
		IsAdmin:       u.IsAdmin,
		Age:           u.Age,
		Interests:     interests,
		Community:     u.Community,
		ActiveEventID: u.ActiveEventID,
		DeviceID:      u.DeviceID,
	}
}
