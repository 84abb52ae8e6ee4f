package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventStatusActive EventStatus = "active"
	EventStatusEnded  EventStatus = "ended" // terminal, no transitions out
)

// Event represents a community gathering
type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"size:50;not null"`

	Latitude  float64 `json:"latitude" gorm:"not null"`
	Longitude float64 `json:"longitude" gorm:"not null"`
	Address   string  `json:"address" gorm:"size:500;default:''"`

	CreatorID   uuid.UUID `json:"creator_id" gorm:"type:uuid;not null;index"`
	CreatorName string    `json:"creator_name" gorm:"size:100"`

	Status  EventStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	StartAt *time.Time  `json:"start_at,omitempty"`
	EndAt   *time.Time  `json:"end_at,omitempty"`
	EndedAt *time.Time  `json:"ended_at,omitempty"`

	// Participants always equals the number of attendee rows
	Participants    int  `json:"participants" gorm:"default:0"`
	MaxParticipants *int `json:"max_participants,omitempty"`
	AgeMin          *int `json:"age_min,omitempty"`

	MediaURLs []string `json:"media_urls" gorm:"serializer:json"`

	// Optional live creator-location broadcast. Update throttling
	// (distance/interval) is the caller's job.
	ShareCreatorLocation bool       `json:"share_creator_location" gorm:"default:false"`
	CreatorLatitude      *float64   `json:"creator_latitude,omitempty"`
	CreatorLongitude     *float64   `json:"creator_longitude,omitempty"`
	CreatorLocationAt    *time.Time `json:"creator_location_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Attendees []EventAttendee `json:"attendees,omitempty" gorm:"foreignKey:EventID"`
}

// IsEnded reports whether the event has reached its terminal state
func (e *Event) IsEnded() bool {
	return e.Status == EventStatusEnded
}

// EventAttendee records a user's membership in an event
type EventAttendee struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID     uuid.UUID `json:"event_id" gorm:"type:uuid;uniqueIndex:idx_event_user;not null"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_event_user;not null"`
	DisplayName string    `json:"display_name" gorm:"size:100"`
	JoinedAt    time.Time `json:"joined_at"`
}
