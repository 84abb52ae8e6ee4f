package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
)

// DeviceService is the device link manager plus the simulated alert path
type DeviceService struct {
	devices ports.DeviceStore
	alerts  ports.AlertSender
}

func NewDeviceService(devices ports.DeviceStore, alerts ports.AlertSender) *DeviceService {
	return &DeviceService{
		devices: devices,
		alerts:  alerts,
	}
}

// Link pairs the user with a device; ownership is exclusive both ways
func (s *DeviceService) Link(ctx context.Context, userID uuid.UUID, deviceID string) (*model.Device, error) {
	return s.devices.Link(ctx, userID, deviceID)
}

// Unlink releases the pairing
func (s *DeviceService) Unlink(ctx context.Context, userID uuid.UUID, deviceID string) error {
	return s.devices.Unlink(ctx, userID, deviceID)
}

// MyDevice returns the device linked to the user, if any
func (s *DeviceService) MyDevice(ctx context.Context, userID uuid.UUID) (*model.Device, error) {
	return s.devices.GetDeviceByOwner(ctx, userID)
}

// TriggerAlert flips the simulated vibration/blink state on the user's
// device and pushes a best-effort companion-app notification. The speech
// text is returned so callers can synthesize or display it.
func (s *DeviceService) TriggerAlert(ctx context.Context, userID uuid.UUID, req model.DeviceAlertRequest) (*model.DeviceAlertResponse, error) {
	dev, err := s.devices.GetDeviceByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	dev, err = s.devices.SetAlertState(ctx, dev.ID, true, true)
	if err != nil {
		return nil, err
	}

	message := req.Message
	if message == "" {
		message = "Your community is gathering nearby."
	}

	if s.alerts != nil {
		go func() {
			if err := s.alerts.SendDeviceAlert(context.WithoutCancel(ctx), userID, "Tbay Connect", message); err != nil {
				log.Printf("⚠️ Device alert push failed for %s: %v", userID, err)
			}
		}()
	}

	resp := &model.DeviceAlertResponse{Device: *dev, Message: message}
	if req.Speak {
		resp.SpeechText = message
	}
	return resp, nil
}

// ClearAlert resets the simulated alert state
func (s *DeviceService) ClearAlert(ctx context.Context, userID uuid.UUID) (*model.Device, error) {
	dev, err := s.devices.GetDeviceByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.devices.SetAlertState(ctx, dev.ID, false, false)
}
