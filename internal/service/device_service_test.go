package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/internal/memstore"
	"github.com/tbayconnect/api/internal/model"
)

func newDeviceFixture(t *testing.T) (*DeviceService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return NewDeviceService(store, nil), store
}

func seedDevice(store *memstore.Store, id string, encoded bool) *model.Device {
	d := &model.Device{
		ID:      id,
		Kind:    model.DeviceKindBracelet,
		Encoded: encoded,
	}
	if encoded {
		now := time.Now()
		d.EncodedAt = &now
	}
	store.PutDevice(d)
	return d
}

func TestLinkHappyPath(t *testing.T) {
	svc, store := newDeviceFixture(t)
	user := seedTestUser(store, "owner", nil, false)
	seedDevice(store, "TB-2026A-0001", true)
	ctx := context.Background()

	dev, err := svc.Link(ctx, user.ID, "TB-2026A-0001")
	require.NoError(t, err)
	require.NotNil(t, dev.OwnerID)
	assert.Equal(t, user.ID, *dev.OwnerID)
	require.NotNil(t, dev.LinkedAt)

	// Both sides of the pairing agree
	u, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, u.DeviceID)
	assert.Equal(t, "TB-2026A-0001", *u.DeviceID)
}

func TestLinkErrorKinds(t *testing.T) {
	svc, store := newDeviceFixture(t)
	owner := seedTestUser(store, "owner", nil, false)
	intruder := seedTestUser(store, "intruder", nil, false)
	seedDevice(store, "TB-2026A-0001", true)
	seedDevice(store, "TB-2026A-0002", false)
	seedDevice(store, "TB-2026A-0003", true)
	ctx := context.Background()

	_, err := svc.Link(ctx, owner.ID, "NO-SUCH-DEVICE")
	require.ErrorIs(t, err, model.ErrDeviceNotFound)

	_, err = svc.Link(ctx, owner.ID, "TB-2026A-0002")
	require.ErrorIs(t, err, model.ErrDeviceNotEncoded)

	_, err = svc.Link(ctx, owner.ID, "TB-2026A-0001")
	require.NoError(t, err)

	// Someone else's device
	_, err = svc.Link(ctx, intruder.ID, "TB-2026A-0001")
	require.ErrorIs(t, err, model.ErrDeviceAlreadyLinked)

	// Second device for the same account
	_, err = svc.Link(ctx, owner.ID, "TB-2026A-0003")
	require.ErrorIs(t, err, model.ErrUserAlreadyLinked)

	// Re-linking your own device is a no-op
	dev, err := svc.Link(ctx, owner.ID, "TB-2026A-0001")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *dev.OwnerID)
}

func TestUnlink(t *testing.T) {
	svc, store := newDeviceFixture(t)
	owner := seedTestUser(store, "owner", nil, false)
	stranger := seedTestUser(store, "stranger", nil, false)
	seedDevice(store, "TB-2026A-0001", true)
	ctx := context.Background()

	_, err := svc.Link(ctx, owner.ID, "TB-2026A-0001")
	require.NoError(t, err)

	err = svc.Unlink(ctx, stranger.ID, "TB-2026A-0001")
	require.ErrorIs(t, err, model.ErrDeviceNotOwned)

	err = svc.Unlink(ctx, owner.ID, "TB-2026A-0001")
	require.NoError(t, err)

	// Both pointers cleared; the device is linkable again
	u, err := store.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, u.DeviceID)

	_, err = svc.Link(ctx, stranger.ID, "TB-2026A-0001")
	require.NoError(t, err)
}

func TestUnlinkDetectsMismatchedPointers(t *testing.T) {
	svc, store := newDeviceFixture(t)
	ctx := context.Background()

	// Corrupted state: the device points at the user but the user points
	// elsewhere. Unlink refuses rather than papering over it.
	userID := uuid.New()
	otherDevice := "TB-2026A-0099"
	store.PutUser(&model.User{ID: userID, Name: "broken", DeviceID: &otherDevice})
	now := time.Now()
	store.PutDevice(&model.Device{
		ID:       "TB-2026A-0001",
		Kind:     model.DeviceKindBracelet,
		Encoded:  true,
		OwnerID:  &userID,
		LinkedAt: &now,
	})

	err := svc.Unlink(ctx, userID, "TB-2026A-0001")
	require.ErrorIs(t, err, model.ErrUserDeviceMismatch)
}

func TestTriggerAndClearAlert(t *testing.T) {
	svc, store := newDeviceFixture(t)
	owner := seedTestUser(store, "owner", nil, false)
	seedDevice(store, "TB-2026A-0001", true)
	ctx := context.Background()

	_, err := svc.Link(ctx, owner.ID, "TB-2026A-0001")
	require.NoError(t, err)

	resp, err := svc.TriggerAlert(ctx, owner.ID, model.DeviceAlertRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Device.Vibrating)
	assert.True(t, resp.Device.Blinking)
	require.NotNil(t, resp.Device.LastAlertAt)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.SpeechText)

	// speak=true echoes the message for synthesis
	resp, err = svc.TriggerAlert(ctx, owner.ID, model.DeviceAlertRequest{
		Message: "Feast starts soon",
		Speak:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Feast starts soon", resp.Message)
	assert.Equal(t, "Feast starts soon", resp.SpeechText)

	dev, err := svc.ClearAlert(ctx, owner.ID)
	require.NoError(t, err)
	assert.False(t, dev.Vibrating)
	assert.False(t, dev.Blinking)
}

func TestTriggerAlertWithoutDevice(t *testing.T) {
	svc, store := newDeviceFixture(t)
	user := seedTestUser(store, "nodevice", nil, false)

	_, err := svc.TriggerAlert(context.Background(), user.ID, model.DeviceAlertRequest{})
	require.ErrorIs(t, err, model.ErrDeviceNotFound)
}
