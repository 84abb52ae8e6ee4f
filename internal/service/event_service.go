package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/config"
	"github.com/tbayconnect/api/internal/geo"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
)

// Slack applied when validating "start must not be in the past" so a
// form submitted a moment after being filled in still passes
const startTimeGrace = 2 * time.Minute

// EventService is the event lifecycle manager. Invariants (quota, single
// active event, age gate, participant count) are enforced by the store
// inside one transaction per operation; this layer does input validation,
// permission checks, ranking and best-effort alerts.
type EventService struct {
	events ports.EventStore
	users  ports.UserStore
	alerts ports.AlertSender
	quota  config.EventsConfig
}

func NewEventService(
	events ports.EventStore,
	users ports.UserStore,
	alerts ports.AlertSender,
	quota config.EventsConfig,
) *EventService {
	return &EventService{
		events: events,
		users:  users,
		alerts: alerts,
		quota:  quota,
	}
}

// Create validates the payload and persists a new active event with the
// creator as its first attendee. The creator's quota only moves when the
// event is actually created.
func (s *EventService) Create(ctx context.Context, creatorID uuid.UUID, req model.CreateEventRequest) (*model.Event, error) {
	now := time.Now()
	if req.StartAt != nil && req.StartAt.Before(now.Add(-startTimeGrace)) {
		return nil, model.ErrValidation("start time is in the past")
	}
	if req.EndAt != nil {
		if req.EndAt.Before(now) {
			return nil, model.ErrValidation("end time is in the past")
		}
		if req.StartAt != nil && !req.EndAt.After(*req.StartAt) {
			return nil, model.ErrValidation("end time must be after start time")
		}
	}
	if len(req.MediaURLs) > 3 {
		return nil, model.ErrValidation("at most 3 media urls allowed")
	}

	ev := &model.Event{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		Address:              req.Address,
		CreatorID:            creatorID,
		StartAt:              req.StartAt,
		EndAt:                req.EndAt,
		MaxParticipants:      req.MaxParticipants,
		AgeMin:               req.AgeMin,
		MediaURLs:            req.MediaURLs,
		ShareCreatorLocation: req.ShareCreatorLocation,
	}

	err := s.events.CreateEvent(ctx, ev, ports.CreateEventParams{
		DefaultLimit: s.quota.CreateLimit,
		QuotaWindow:  s.quota.QuotaWindow,
		Now:          now,
	})
	if err != nil {
		return nil, err
	}

	// Simulated wearable alert for the creator, best-effort
	if s.alerts != nil {
		go func() {
			if err := s.alerts.SendDeviceAlert(context.WithoutCancel(ctx), creatorID, "Event created", ev.Title); err != nil {
				log.Printf("⚠️ Device alert failed for %s: %v", creatorID, err)
			}
		}()
	}

	return s.events.GetEvent(ctx, ev.ID)
}

// Join adds the user to the event's attendee set
func (s *EventService) Join(ctx context.Context, eventID, userID uuid.UUID) (*model.Event, error) {
	return s.events.Join(ctx, eventID, userID, "")
}

// Leave removes the user; leaving an event never joined is a no-op
func (s *EventService) Leave(ctx context.Context, eventID, userID uuid.UUID) (*model.Event, error) {
	return s.events.Leave(ctx, eventID, userID)
}

// End moves the event to its terminal state. Only the creator or an
// administrator may end an event; attendees stay for historical display.
func (s *EventService) End(ctx context.Context, eventID, actorID uuid.UUID) (*model.Event, error) {
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCreatorOrAdmin(ctx, ev, actorID); err != nil {
		return nil, err
	}
	return s.events.End(ctx, eventID, time.Now())
}

// UpdateCreatorLocation writes or clears the live location broadcast.
// Update throttling (~50m / 30s) is the caller's responsibility.
func (s *EventService) UpdateCreatorLocation(ctx context.Context, eventID, actorID uuid.UUID, req model.UpdateCreatorLocationRequest) (*model.Event, error) {
	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.CreatorID != actorID {
		return nil, model.ErrNotEventCreator
	}
	return s.events.UpdateCreatorLocation(ctx, eventID, req.Latitude, req.Longitude, req.Enabled)
}

// Get loads a single event with attendees
func (s *EventService) Get(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.events.GetEvent(ctx, eventID)
}

// ListActive returns the raw (unranked) active event list
func (s *EventService) ListActive(ctx context.Context) ([]model.Event, error) {
	return s.events.ListActiveEvents(ctx)
}

// Feed returns active events ranked for the viewer: distance first, then
// friend involvement, then interest match. An anonymous viewer or missing
// location falls back to the later keys.
func (s *EventService) Feed(ctx context.Context, viewerID *uuid.UUID, loc *geo.Point) ([]model.RankedEvent, error) {
	events, err := s.events.ListActiveEvents(ctx)
	if err != nil {
		return nil, err
	}

	var interests []string
	var follows []uuid.UUID
	if viewerID != nil {
		if viewer, err := s.users.GetUser(ctx, *viewerID); err == nil {
			interests = viewer.Interests
		}
		if ids, err := s.users.ListFollowedIDs(ctx, *viewerID); err == nil {
			follows = ids
		}
	}

	return geo.Rank(events, loc, interests, follows), nil
}

func (s *EventService) requireCreatorOrAdmin(ctx context.Context, ev *model.Event, actorID uuid.UUID) error {
	if ev.CreatorID == actorID {
		return nil
	}
	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return model.ErrNotEventCreator
	}
	return nil
}
