package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
)

// CreateEventParams carries the quota rules the store enforces inside the
// creation transaction. Quota state only changes when creation succeeds.
type CreateEventParams struct {
	DefaultLimit int
	QuotaWindow  time.Duration
	Now          time.Time
}

// EventStore is the transactional backend of the event lifecycle. Every
// method is a single atomic read-modify-write: all preconditions are
// checked and all affected records updated inside one transaction, so no
// partial state mutation is possible. Implementations exist for PostgreSQL
// and in-memory (tests and store-less startup).
type EventStore interface {
	// CreateEvent checks the creator's quota and single-active-event
	// invariant, then persists the event with the creator as sole
	// attendee and points the creator's active-attendance at it.
	CreateEvent(ctx context.Context, ev *model.Event, p CreateEventParams) error

	// Join adds a user to an event's attendee set, recomputes the
	// participant count and sets the user's active-attendance pointer.
	// Re-joining is an idempotent no-op.
	Join(ctx context.Context, eventID, userID uuid.UUID, displayName string) (*model.Event, error)

	// Leave removes the user if present and clears the pointer only if
	// it targets this event. Never errors for non-attendees.
	Leave(ctx context.Context, eventID, userID uuid.UUID) (*model.Event, error)

	// End moves the event to its terminal state and stamps the end time.
	End(ctx context.Context, eventID uuid.UUID, at time.Time) (*model.Event, error)

	// UpdateCreatorLocation writes or clears the broadcast location.
	UpdateCreatorLocation(ctx context.Context, eventID uuid.UUID, lat, lng *float64, enabled bool) (*model.Event, error)

	GetEvent(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	ListActiveEvents(ctx context.Context) ([]model.Event, error)
}

// UserStore is the slice of user state the event and device services need
type UserStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
	ListFollowedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
