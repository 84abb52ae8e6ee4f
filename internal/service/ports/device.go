package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
)

// DeviceStore backs the device link manager. Link and Unlink update the
// device's owner pointer and the user's device pointer in one transaction
// so the two can never disagree.
type DeviceStore interface {
	// Link pairs a user with an encoded, unowned device. Linking a
	// device the user already owns is an idempotent success.
	Link(ctx context.Context, userID uuid.UUID, deviceID string) (*model.Device, error)

	// Unlink clears both pointers; only the recorded owner may unlink,
	// and the user's device pointer must name this device.
	Unlink(ctx context.Context, userID uuid.UUID, deviceID string) error

	GetDevice(ctx context.Context, deviceID string) (*model.Device, error)
	GetDeviceByOwner(ctx context.Context, userID uuid.UUID) (*model.Device, error)

	// SetAlertState flips the simulated vibration/blink flags.
	SetAlertState(ctx context.Context, deviceID string, vibrating, blinking bool) (*model.Device, error)
}
