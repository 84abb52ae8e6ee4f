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

// DeviceRepository is the PostgreSQL implementation of ports.DeviceStore
type DeviceRepository struct {
	db *gorm.DB
}

var _ ports.DeviceStore = (*DeviceRepository)(nil)

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Link pairs a user with a device. Both ownership pointers are written in
// the same transaction so device→owner and user→device always agree.
func (r *DeviceRepository) Link(ctx context.Context, userID uuid.UUID, deviceID string) (*model.Device, error) {
	var result model.Device
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dev model.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&dev, "id = ?", deviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrDeviceNotFound
			}
			return err
		}
		if !dev.Encoded {
			return model.ErrDeviceNotEncoded
		}
		if dev.OwnerID != nil {
			if *dev.OwnerID == userID {
				result = dev // already linked to this user
				return nil
			}
			return model.ErrDeviceAlreadyLinked
		}

		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUserNotFound
			}
			return err
		}
		if user.DeviceID != nil && *user.DeviceID != deviceID {
			return model.ErrUserAlreadyLinked
		}

		now := time.Now()
		if err := tx.Model(&model.Device{}).Where("id = ?", deviceID).Updates(map[string]interface{}{
			"owner_id":  userID,
			"linked_at": now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", userID).
			Update("device_id", deviceID).Error; err != nil {
			return err
		}

		dev.OwnerID = &userID
		dev.LinkedAt = &now
		result = dev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Unlink clears both ownership pointers atomically
func (r *DeviceRepository) Unlink(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dev model.Device
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&dev, "id = ?", deviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrDeviceNotFound
			}
			return err
		}
		if dev.OwnerID == nil || *dev.OwnerID != userID {
			return model.ErrDeviceNotOwned
		}

		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUserNotFound
			}
			return err
		}
		if user.DeviceID == nil || *user.DeviceID != deviceID {
			return model.ErrUserDeviceMismatch
		}

		if err := tx.Model(&model.Device{}).Where("id = ?", deviceID).Updates(map[string]interface{}{
			"owner_id":  nil,
			"linked_at": nil,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", userID).
			Update("device_id", nil).Error
	})
}

// GetDevice finds a device by serial
func (r *DeviceRepository) GetDevice(ctx context.Context, deviceID string) (*model.Device, error) {
	var dev model.Device
	err := r.db.WithContext(ctx).First(&dev, "id = ?", deviceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDeviceNotFound
		}
		return nil, err
	}
	return &dev, nil
}

// GetDeviceByOwner finds the device linked to a user
func (r *DeviceRepository) GetDeviceByOwner(ctx context.Context, userID uuid.UUID) (*model.Device, error) {
	var dev model.Device
	err := r.db.WithContext(ctx).First(&dev, "owner_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDeviceNotFound
		}
		return nil, err
	}
	return &dev, nil
}

// SetAlertState flips the simulated vibration/blink flags
func (r *DeviceRepository) SetAlertState(ctx context.Context, deviceID string, vibrating, blinking bool) (*model.Device, error) {
	updates := map[string]interface{}{
		"vibrating": vibrating,
		"blinking":  blinking,
	}
	if vibrating || blinking {
		updates["last_alert_at"] = time.Now()
	}
	res := r.db.WithContext(ctx).Model(&model.Device{}).Where("id = ?", deviceID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, model.ErrDeviceNotFound
	}
	return r.GetDevice(ctx, deviceID)
}
