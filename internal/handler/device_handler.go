package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service"
	"github.com/tbayconnect/api/internal/ws"
)

// DeviceHandler handles device pairing and the simulated alert endpoints
type DeviceHandler struct {
	deviceService *service.DeviceService
	hub           *ws.Hub
}

func NewDeviceHandler(deviceService *service.DeviceService, hub *ws.Hub) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
		hub:           hub,
	}
}

// Link godoc
// @Summary Link a wearable device to the current account
// @Description Pairing is exclusive both ways: one device per account, one account per device. Linking an already-owned device again is a no-op.
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.LinkDeviceRequest true "Device serial"
// @Success 200 {object} model.Device
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /devices/link [post]
func (h *DeviceHandler) Link(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	var req model.LinkDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	dev, err := h.deviceService.Link(c.Request.Context(), userID, req.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dev)
}

// Unlink godoc
// @Summary Unlink a device from the current account
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.LinkDeviceRequest true "Device serial"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /devices/unlink [post]
func (h *DeviceHandler) Unlink(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	var req model.LinkDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	if err := h.deviceService.Unlink(c.Request.Context(), userID, req.DeviceID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Device unlinked"})
}

// MyDevice godoc
// @Summary Get the device linked to the current account
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Device
// @Failure 404 {object} model.ErrorResponse
// @Router /devices/me [get]
func (h *DeviceHandler) MyDevice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	dev, err := h.deviceService.MyDevice(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dev)
}

// TriggerAlert godoc
// @Summary Trigger a simulated alert on the linked device
// @Description Flips the vibration and blink state, pushes a companion-app notification and notifies WebSocket subscribers. Hardware is simulated; no real device traffic happens.
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.DeviceAlertRequest true "Alert options"
// @Success 200 {object} model.DeviceAlertResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /devices/me/alert [post]
func (h *DeviceHandler) TriggerAlert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	var req model.DeviceAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	resp, err := h.deviceService.TriggerAlert(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	resp.DeliveredLive = h.hub.IsUserOnline(userID)
	h.hub.SendToUser(userID, &model.WSEvent{
		Type: model.WSEventDeviceAlert,
		Payload: model.DeviceAlertEvent{
			DeviceID:   resp.Device.ID,
			Message:    resp.Message,
			Vibrate:    resp.Device.Vibrating,
			Blink:      resp.Device.Blinking,
			SpeechText: resp.SpeechText,
		},
	})

	c.JSON(http.StatusOK, resp)
}

// ClearAlert godoc
// @Summary Clear the simulated alert state on the linked device
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Device
// @Failure 404 {object} model.ErrorResponse
// @Router /devices/me/alert [delete]
func (h *DeviceHandler) ClearAlert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	dev, err := h.deviceService.ClearAlert(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.SendToUser(userID, &model.WSEvent{
		Type: model.WSEventDeviceAlert,
		Payload: model.DeviceAlertEvent{
			DeviceID: dev.ID,
			Vibrate:  false,
			Blink:    false,
		},
	})

	c.JSON(http.StatusOK, dev)
}
