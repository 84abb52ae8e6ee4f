package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/geo"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service"
	"github.com/tbayconnect/api/internal/ws"
)

// EventHandler handles event lifecycle and feed endpoints. After every
// successful mutation it pushes the full active-event snapshot to all
// WebSocket subscribers.
type EventHandler struct {
	eventService *service.EventService
	hub          *ws.Hub
}

func NewEventHandler(eventService *service.EventService, hub *ws.Hub) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		hub:          hub,
	}
}

// Create godoc
// @Summary Create an event
// @Description Creates an active event with the caller as its first attendee. Subject to the monthly creation quota.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CreateEventRequest true "Event details"
// @Success 201 {object} model.Event
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	ev, err := h.eventService.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.pushFeedSnapshot(c)
	c.JSON(http.StatusCreated, ev)
}

// Get godoc
// @Summary Get an event with its attendees
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} model.Event
// @Failure 404 {object} model.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	ev, err := h.eventService.Get(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ev)
}

// Feed godoc
// @Summary Get the ranked active-event feed
// @Description Active events sorted by distance, then friend involvement, then interest match. Location is optional; without it the feed falls back to the social keys.
// @Tags Events
// @Produce json
// @Param lat query number false "Viewer latitude"
// @Param lng query number false "Viewer longitude"
// @Success 200 {array} model.RankedEvent
// @Router /events [get]
func (h *EventHandler) Feed(c *gin.Context) {
	var req model.FeedRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	var loc *geo.Point
	if req.Latitude != nil && req.Longitude != nil {
		loc = &geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	// The feed works for anonymous visitors too; ranking just loses the
	// friend and interest signals
	var viewerID *uuid.UUID
	if id, ok := currentUserID(c); ok {
		viewerID = &id
	}

	events, err := h.eventService.Feed(c.Request.Context(), viewerID, loc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// Join godoc
// @Summary Join an event
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} model.Event
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /events/{id}/join [post]
func (h *EventHandler) Join(c *gin.Context) {
	h.mutate(c, h.eventService.Join)
}

// Leave godoc
// @Summary Leave an event
// @Description Leaving an event never joined is a no-op.
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} model.Event
// @Failure 404 {object} model.ErrorResponse
// @Router /events/{id}/leave [post]
func (h *EventHandler) Leave(c *gin.Context) {
	h.mutate(c, h.eventService.Leave)
}

// End godoc
// @Summary End an event
// @Description Moves the event to its terminal state. Creator or administrator only. Ending twice is idempotent.
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} model.Event
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /events/{id}/end [post]
func (h *EventHandler) End(c *gin.Context) {
	h.mutate(c, h.eventService.End)
}

// UpdateCreatorLocation godoc
// @Summary Update or clear the creator's live location broadcast
// @Description Creator only. Enabled with coordinates refreshes the broadcast; disabled clears it for all viewers.
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param body body model.UpdateCreatorLocationRequest true "Location update"
// @Success 200 {object} model.Event
// @Failure 403 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /events/{id}/location [put]
func (h *EventHandler) UpdateCreatorLocation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	var req model.UpdateCreatorLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}
	if req.Enabled && (req.Latitude == nil || req.Longitude == nil) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "latitude and longitude are required when enabled"})
		return
	}

	ev, err := h.eventService.UpdateCreatorLocation(c.Request.Context(), eventID, userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastCreatorLocation(model.CreatorLocationEvent{
		EventID:   ev.ID,
		Enabled:   ev.ShareCreatorLocation,
		Latitude:  ev.CreatorLatitude,
		Longitude: ev.CreatorLongitude,
		UpdatedAt: ev.CreatorLocationAt,
	})

	c.JSON(http.StatusOK, ev)
}

// mutate runs a join/leave/end style operation and pushes a fresh feed
// snapshot on success
func (h *EventHandler) mutate(c *gin.Context, op func(ctx context.Context, eventID, userID uuid.UUID) (*model.Event, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, model.ErrAuthRequired)
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid event ID"})
		return
	}

	ev, err := op(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.pushFeedSnapshot(c)
	c.JSON(http.StatusOK, ev)
}

// pushFeedSnapshot broadcasts the full current active-event list
func (h *EventHandler) pushFeedSnapshot(c *gin.Context) {
	events, err := h.eventService.ListActive(c.Request.Context())
	if err != nil {
		log.Printf("⚠️ Feed snapshot load failed: %v", err)
		return
	}
	h.hub.BroadcastFeed(events)
}
