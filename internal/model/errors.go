package model

import "errors"

// Operation errors. The messages double as the machine-readable codes the
// frontend maps to user-facing copy, so they must stay stable.
var (
	ErrEventNotFound    = errors.New("event-not-found")
	ErrEventEnded       = errors.New("event-ended")
	ErrEventFull        = errors.New("event-full")
	ErrEventLimit       = errors.New("event-limit")
	ErrAlreadyAttending = errors.New("already-attending")
	ErrAgeRestricted    = errors.New("age-restricted")
	ErrNotEventCreator  = errors.New("not-event-creator")

	ErrUserNotFound = errors.New("user-not-found")
	ErrAuthRequired = errors.New("auth-required")

	ErrDeviceNotFound      = errors.New("device-not-found")
	ErrDeviceNotEncoded    = errors.New("device-not-encoded")
	ErrDeviceAlreadyLinked = errors.New("device-already-linked")
	ErrUserAlreadyLinked   = errors.New("user-already-linked")
	ErrDeviceNotOwned      = errors.New("device-not-owned")
	ErrUserDeviceMismatch  = errors.New("user-device-mismatch")
)

// ValidationError carries a human-readable message for bad input that
// passed binding but failed a semantic check
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// ErrValidation wraps a message as a ValidationError
func ErrValidation(msg string) error { return ValidationError(msg) }
