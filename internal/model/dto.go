package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UpdateProfileRequest struct {
	Name      string   `json:"name" binding:"max=100"`
	Avatar    string   `json:"avatar" binding:"max=500"`
	Age       *int     `json:"age" binding:"omitempty,min=0,max=130"`
	Interests []string `json:"interests"`
	Community string   `json:"community" binding:"max=100"`
}

type RegisterFCMTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

// ========== Event DTOs ==========

type CreateEventRequest struct {
	Title                string     `json:"title" binding:"required,min=3,max=200"`
	Description          string     `json:"description" binding:"max=4000"`
	Category             string     `json:"category" binding:"required,max=50"`
	Latitude             float64    `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude            float64    `json:"longitude" binding:"required,min=-180,max=180"`
	Address              string     `json:"address" binding:"max=500"`
	StartAt              *time.Time `json:"start_at"`
	EndAt                *time.Time `json:"end_at"`
	MaxParticipants      *int       `json:"max_participants" binding:"omitempty,min=2"`
	AgeMin               *int       `json:"age_min" binding:"omitempty,min=0,max=130"`
	MediaURLs            []string   `json:"media_urls" binding:"max=3"`
	ShareCreatorLocation bool       `json:"share_creator_location"`
}

type UpdateCreatorLocationRequest struct {
	Enabled   bool     `json:"enabled"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

type FeedRequest struct {
	Latitude  *float64 `form:"lat"`
	Longitude *float64 `form:"lng"`
}

// RankedEvent is an event enriched with the ranking signals computed for
// the requesting user
type RankedEvent struct {
	Event
	DistanceKm     float64 `json:"distance_km"`
	FriendInvolved bool    `json:"friend_involved"`
	InterestMatch  bool    `json:"interest_match"`
}

// ========== Device DTOs ==========

type LinkDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required,max=64"`
}

type DeviceAlertRequest struct {
	Message string `json:"message" binding:"max=200"`
	Speak   bool   `json:"speak"`
}

type DeviceAlertResponse struct {
	Device        Device `json:"device"`
	Message       string `json:"message"`
	SpeechText    string `json:"speech_text,omitempty"`
	DeliveredLive bool   `json:"delivered_live"`
}

// ========== Waitlist DTOs ==========

type WaitlistRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Kind      string `json:"kind" binding:"omitempty,oneof=bracelet necklace ring"`
	Community string `json:"community" binding:"max=100"`
}

// ========== Insight DTOs ==========

type SpeechRequest struct {
	Text string `json:"text" binding:"required,max=500"`
}

type InsightResponse struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// ========== Admin DTOs ==========

type CreateDevicesRequest struct {
	BatchID  uuid.UUID  `json:"batch_id" binding:"required"`
	Kind     DeviceKind `json:"kind" binding:"required,oneof=bracelet necklace ring"`
	Count    int        `json:"count" binding:"required,min=1,max=1000"`
	Firmware string     `json:"firmware" binding:"max=32"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types. The feed contract is replace-with-latest: each
// feed_snapshot carries the full current list of active events.
const (
	WSEventFeedSnapshot    = "feed_snapshot"
	WSEventDeviceAlert     = "device_alert"
	WSEventCreatorLocation = "creator_location"
)

type FeedSnapshotEvent struct {
	Events []Event `json:"events"`
}

type DeviceAlertEvent struct {
	DeviceID   string `json:"device_id"`
	Message    string `json:"message"`
	Vibrate    bool   `json:"vibrate"`
	Blink      bool   `json:"blink"`
	SpeechText string `json:"speech_text,omitempty"`
}

type CreatorLocationEvent struct {
	EventID   uuid.UUID  `json:"event_id"`
	Enabled   bool       `json:"enabled"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type UploadResponse struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}
