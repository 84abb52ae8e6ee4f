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

// EventRepository is the PostgreSQL implementation of ports.EventStore.
// Every lifecycle mutation runs in one transaction with the affected user
// and event rows locked, so the participant count, the attendee set and
// the active-attendance pointer can never drift apart.
type EventRepository struct {
	db *gorm.DB
}

var _ ports.EventStore = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateEvent persists a new event with the creator as sole attendee.
// The quota counter only moves when the creation itself is permitted.
func (r *EventRepository) CreateEvent(ctx context.Context, ev *model.Event, p ports.CreateEventParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var creator model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&creator, "id = ?", ev.CreatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUserNotFound
			}
			return err
		}

		if err := checkNotAttending(tx, &creator, uuid.Nil); err != nil {
			return err
		}

		if !creator.IsAdmin {
			limit := p.DefaultLimit
			if creator.EventLimit != nil {
				limit = *creator.EventLimit
			}
			if creator.EventWindowStart == nil || p.Now.Sub(*creator.EventWindowStart) >= p.QuotaWindow {
				start := p.Now
				creator.EventWindowStart = &start
				creator.EventsInWindow = 0
			}
			if creator.EventsInWindow >= limit {
				return model.ErrEventLimit
			}
			creator.EventsInWindow++
		}

		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
		ev.Status = model.EventStatusActive
		ev.CreatorName = creator.Name
		ev.Participants = 1
		if err := tx.Create(ev).Error; err != nil {
			return err
		}

		if err := tx.Create(&model.EventAttendee{
			EventID:     ev.ID,
			UserID:      creator.ID,
			DisplayName: creator.Name,
			JoinedAt:    p.Now,
		}).Error; err != nil {
			return err
		}

		id := ev.ID
		creator.ActiveEventID = &id
		return tx.Model(&model.User{}).Where("id = ?", creator.ID).Updates(map[string]interface{}{
			"active_event_id":    creator.ActiveEventID,
			"event_window_start": creator.EventWindowStart,
			"events_in_window":   creator.EventsInWindow,
		}).Error
	})
}

// Join adds the user to the attendee set. Re-joining is a no-op.
func (r *EventRepository) Join(ctx context.Context, eventID, userID uuid.UUID, displayName string) (*model.Event, error) {
	var result *model.Event
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if ev.IsEnded() {
			return model.ErrEventEnded
		}

		var existing int64
		if err := tx.Model(&model.EventAttendee{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			result = ev
			return nil
		}

		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrUserNotFound
			}
			return err
		}
		if err := checkNotAttending(tx, &user, eventID); err != nil {
			return err
		}
		if ev.AgeMin != nil && (user.Age == nil || *user.Age < *ev.AgeMin) {
			return model.ErrAgeRestricted
		}
		if ev.MaxParticipants != nil && ev.Participants >= *ev.MaxParticipants {
			return model.ErrEventFull
		}

		if displayName == "" {
			displayName = user.Name
		}
		if err := tx.Create(&model.EventAttendee{
			EventID:     eventID,
			UserID:      userID,
			DisplayName: displayName,
			JoinedAt:    time.Now(),
		}).Error; err != nil {
			return err
		}

		if err := recountParticipants(tx, ev); err != nil {
			return err
		}

		if err := tx.Model(&model.User{}).Where("id = ?", userID).
			Updates(map[string]interface{}{"active_event_id": eventID}).Error; err != nil {
			return err
		}

		result = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetEvent(ctx, result.ID)
}

// Leave removes the user if present; never an error for non-attendees.
func (r *EventRepository) Leave(ctx context.Context, eventID, userID uuid.UUID) (*model.Event, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}

		if err := tx.Where("event_id = ? AND user_id = ?", eventID, userID).
			Delete(&model.EventAttendee{}).Error; err != nil {
			return err
		}
		if err := recountParticipants(tx, ev); err != nil {
			return err
		}

		// Clear the pointer only when it targets this event
		return tx.Model(&model.User{}).
			Where("id = ? AND active_event_id = ?", userID, eventID).
			Update("active_event_id", nil).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetEvent(ctx, eventID)
}

// End is terminal; a second call leaves the first end time in place.
func (r *EventRepository) End(ctx context.Context, eventID uuid.UUID, at time.Time) (*model.Event, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev, err := lockEvent(tx, eventID)
		if err != nil {
			return err
		}
		if ev.IsEnded() {
			return nil
		}
		return tx.Model(&model.Event{}).Where("id = ?", eventID).Updates(map[string]interface{}{
			"status":   model.EventStatusEnded,
			"ended_at": at,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetEvent(ctx, eventID)
}

// UpdateCreatorLocation writes or clears the live broadcast fields
func (r *EventRepository) UpdateCreatorLocation(ctx context.Context, eventID uuid.UUID, lat, lng *float64, enabled bool) (*model.Event, error) {
	updates := map[string]interface{}{
		"share_creator_location": false,
		"creator_latitude":       nil,
		"creator_longitude":      nil,
		"creator_location_at":    nil,
	}
	if enabled && lat != nil && lng != nil {
		updates = map[string]interface{}{
			"share_creator_location": true,
			"creator_latitude":       *lat,
			"creator_longitude":      *lng,
			"creator_location_at":    time.Now(),
		}
	}

	res := r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", eventID).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, model.ErrEventNotFound
	}
	return r.GetEvent(ctx, eventID)
}

// GetEvent loads an event with its attendees
func (r *EventRepository) GetEvent(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	var ev model.Event
	err := r.db.WithContext(ctx).Preload("Attendees").First(&ev, "id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// ListActiveEvents returns the current feed source, newest first
func (r *EventRepository) ListActiveEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Preload("Attendees").
		Where("status = ?", model.EventStatusActive).
		Order("created_at DESC, id").
		Find(&events).Error
	return events, err
}

// checkNotAttending enforces the single-active-event invariant inside the
// caller's transaction. A stale pointer (missing or ended event) is
// cleared rather than treated as blocking.
func checkNotAttending(tx *gorm.DB, user *model.User, targetID uuid.UUID) error {
	if user.ActiveEventID == nil || *user.ActiveEventID == targetID {
		return nil
	}
	var current model.Event
	err := tx.Select("id", "status").First(&current, "id = ?", *user.ActiveEventID).Error
	if err == nil && !current.IsEnded() {
		return model.ErrAlreadyAttending
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	user.ActiveEventID = nil
	return tx.Model(&model.User{}).Where("id = ?", user.ID).
		Update("active_event_id", nil).Error
}

func lockEvent(tx *gorm.DB, eventID uuid.UUID) (*model.Event, error) {
	var ev model.Event
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ev, "id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// recountParticipants derives the participant count from the attendee
// rows, the invariant source of truth
func recountParticipants(tx *gorm.DB, ev *model.Event) error {
	var count int64
	if err := tx.Model(&model.EventAttendee{}).
		Where("event_id = ?", ev.ID).
		Count(&count).Error; err != nil {
		return err
	}
	ev.Participants = int(count)
	return tx.Model(&model.Event{}).Where("id = ?", ev.ID).
		Update("participants", count).Error
}
