package model

import (
	"time"

	"github.com/google/uuid"
)

// DeviceKind is the physical form factor of a wearable
type DeviceKind string

const (
	DeviceKindBracelet DeviceKind = "bracelet"
	DeviceKindNecklace DeviceKind = "necklace"
	DeviceKindRing     DeviceKind = "ring"
)

// Device is an entry in the hardware registry. A device becomes linkable
// only after its one-time encoding step during manufacturing, and ownership
// is exclusive: OwnerID and User.DeviceID must always agree.
type Device struct {
	ID       string     `json:"id" gorm:"primaryKey;size:64"` // serial, assigned at manufacturing
	Kind     DeviceKind `json:"kind" gorm:"type:varchar(20);not null"`
	BatchID  *uuid.UUID `json:"batch_id,omitempty" gorm:"type:uuid;index"`
	Firmware string     `json:"firmware" gorm:"size:32;default:''"`

	Encoded   bool       `json:"encoded" gorm:"default:false"`
	EncodedAt *time.Time `json:"encoded_at,omitempty"`

	OwnerID  *uuid.UUID `json:"owner_id,omitempty" gorm:"type:uuid;uniqueIndex"`
	LinkedAt *time.Time `json:"linked_at,omitempty"`

	// Simulated alert state; there is no real hardware protocol
	Vibrating   bool       `json:"vibrating" gorm:"default:false"`
	Blinking    bool       `json:"blinking" gorm:"default:false"`
	LastAlertAt *time.Time `json:"last_alert_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FCMToken registers a push target for a user's companion app
type FCMToken struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_fcm"`
	Token        string    `json:"token" gorm:"not null;uniqueIndex:idx_user_fcm"`
	Platform     string    `json:"platform" gorm:"size:20;default:'unknown'"` // android, ios, web
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}
