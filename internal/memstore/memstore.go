// Package memstore is the in-memory implementation of the event, device
// and account stores. A single mutex serializes every operation, which
// gives the same all-or-nothing semantics as the SQL transactions in the
// repository package. It backs the test suite and store-less startup
// (DB_DRIVER=memory); nothing is persisted across restarts.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
)

// Store holds all records behind one lock
type Store struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*model.User
	events    map[uuid.UUID]*model.Event
	devices   map[string]*model.Device
	follows   map[uuid.UUID]map[uuid.UUID]bool
	fcmTokens map[uuid.UUID][]model.FCMToken
	waitlist  map[string]*model.WaitlistEntry
}

var (
	_ ports.EventStore   = (*Store)(nil)
	_ ports.UserStore    = (*Store)(nil)
	_ ports.DeviceStore  = (*Store)(nil)
	_ ports.AccountStore = (*Store)(nil)
)

// New creates an empty Store
func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]*model.User),
		events:    make(map[uuid.UUID]*model.Event),
		devices:   make(map[string]*model.Device),
		follows:   make(map[uuid.UUID]map[uuid.UUID]bool),
		fcmTokens: make(map[uuid.UUID][]model.FCMToken),
		waitlist:  make(map[string]*model.WaitlistEntry),
	}
}

// PutUser inserts or replaces a user record
func (s *Store) PutUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// PutDevice inserts or replaces a device record
func (s *Store) PutDevice(d *model.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.devices[d.ID] = &cp
}

// Follow adds a directed follow edge; re-following is a no-op
func (s *Store) Follow(followerID, followeeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.follows[followerID] == nil {
		s.follows[followerID] = make(map[uuid.UUID]bool)
	}
	s.follows[followerID][followeeID] = true
	return nil
}

// ========== ports.AccountStore ==========

func (s *Store) Create(u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *Store) FindByID(id uuid.UUID) (*model.User, error) {
	return s.GetUser(context.Background(), id)
}

func (s *Store) FindByEmail(email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *Store) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.Avatar != "" {
		u.Avatar = req.Avatar
	}
	if req.Age != nil {
		u.Age = req.Age
	}
	if req.Interests != nil {
		u.Interests = append([]string(nil), req.Interests...)
	}
	if req.Community != "" {
		u.Community = req.Community
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SearchUsers(query string, excludeUserID uuid.UUID, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)
	matches := make([]model.User, 0)
	for _, u := range s.users {
		if u.ID == excludeUserID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			matches = append(matches, *u)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) Unfollow(followerID, followeeID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows[followerID], followeeID)
	return nil
}

func (s *Store) CountFollowers(userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, followees := range s.follows {
		if followees[userID] {
			count++
		}
	}
	return count, nil
}

func (s *Store) AddFCMToken(userID uuid.UUID, token, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.fcmTokens[userID] {
		if t.Token == token {
			s.fcmTokens[userID][i].Platform = platform
			s.fcmTokens[userID][i].LastActiveAt = time.Now()
			return nil
		}
	}
	s.fcmTokens[userID] = append(s.fcmTokens[userID], model.FCMToken{
		ID:           uuid.New(),
		UserID:       userID,
		Token:        token,
		Platform:     platform,
		LastActiveAt: time.Now(),
		CreatedAt:    time.Now(),
	})
	return nil
}

func (s *Store) GetFCMTokens(userID uuid.UUID) ([]model.FCMToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.FCMToken(nil), s.fcmTokens[userID]...), nil
}

func (s *Store) CreateWaitlistEntry(entry *model.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.waitlist[entry.Email]; ok {
		return model.ErrValidation("email already on waitlist")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	cp := *entry
	s.waitlist[entry.Email] = &cp
	return nil
}

// ========== ports.UserStore ==========

func (s *Store) GetUser(_ context.Context, userID uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListFollowedIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.follows[userID]))
	for id := range s.follows[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// ========== ports.EventStore ==========

func (s *Store) CreateEvent(_ context.Context, ev *model.Event, p ports.CreateEventParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creator, ok := s.users[ev.CreatorID]
	if !ok {
		return model.ErrUserNotFound
	}

	if err := s.checkNotAttendingLocked(creator, uuid.Nil); err != nil {
		return err
	}

	// Quota is checked and incremented in the same critical section, so
	// a rejected creation never consumes quota.
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
	ev.CreatedAt = p.Now
	ev.UpdatedAt = p.Now
	ev.Attendees = []model.EventAttendee{{
		ID:          uuid.New(),
		EventID:     ev.ID,
		UserID:      creator.ID,
		DisplayName: creator.Name,
		JoinedAt:    p.Now,
	}}
	ev.Participants = len(ev.Attendees)

	cp := *ev
	cp.Attendees = append([]model.EventAttendee(nil), ev.Attendees...)
	s.events[ev.ID] = &cp

	id := ev.ID
	creator.ActiveEventID = &id
	return nil
}

func (s *Store) Join(_ context.Context, eventID, userID uuid.UUID, displayName string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	if ev.IsEnded() {
		return nil, model.ErrEventEnded
	}

	for _, a := range ev.Attendees {
		if a.UserID == userID {
			return s.copyEventLocked(ev), nil // idempotent re-join
		}
	}

	user, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if err := s.checkNotAttendingLocked(user, eventID); err != nil {
		return nil, err
	}
	if ev.AgeMin != nil && (user.Age == nil || *user.Age < *ev.AgeMin) {
		return nil, model.ErrAgeRestricted
	}
	if ev.MaxParticipants != nil && len(ev.Attendees) >= *ev.MaxParticipants {
		return nil, model.ErrEventFull
	}

	if displayName == "" {
		displayName = user.Name
	}
	ev.Attendees = append(ev.Attendees, model.EventAttendee{
		ID:          uuid.New(),
		EventID:     eventID,
		UserID:      userID,
		DisplayName: displayName,
		JoinedAt:    time.Now(),
	})
	ev.Participants = len(ev.Attendees)

	id := eventID
	user.ActiveEventID = &id
	return s.copyEventLocked(ev), nil
}

func (s *Store) Leave(_ context.Context, eventID, userID uuid.UUID) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}

	for i, a := range ev.Attendees {
		if a.UserID == userID {
			ev.Attendees = append(ev.Attendees[:i], ev.Attendees[i+1:]...)
			break
		}
	}
	ev.Participants = len(ev.Attendees)

	if user, ok := s.users[userID]; ok {
		if user.ActiveEventID != nil && *user.ActiveEventID == eventID {
			user.ActiveEventID = nil
		}
	}
	return s.copyEventLocked(ev), nil
}

func (s *Store) End(_ context.Context, eventID uuid.UUID, at time.Time) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	if !ev.IsEnded() {
		ev.Status = model.EventStatusEnded
		ev.EndedAt = &at
		ev.UpdatedAt = at
	}
	return s.copyEventLocked(ev), nil
}

func (s *Store) UpdateCreatorLocation(_ context.Context, eventID uuid.UUID, lat, lng *float64, enabled bool) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}

	if !enabled || lat == nil || lng == nil {
		ev.ShareCreatorLocation = false
		ev.CreatorLatitude = nil
		ev.CreatorLongitude = nil
		ev.CreatorLocationAt = nil
	} else {
		now := time.Now()
		ev.ShareCreatorLocation = true
		ev.CreatorLatitude = lat
		ev.CreatorLongitude = lng
		ev.CreatorLocationAt = &now
	}
	return s.copyEventLocked(ev), nil
}

func (s *Store) GetEvent(_ context.Context, eventID uuid.UUID) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return s.copyEventLocked(ev), nil
}

func (s *Store) ListActiveEvents(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]model.Event, 0)
	for _, ev := range s.events {
		if !ev.IsEnded() {
			events = append(events, *s.copyEventLocked(ev))
		}
	}
	// Newest first, ID as tiebreak so same-instant events keep a stable
	// order across calls (map iteration is randomized).
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID.String() < events[j].ID.String()
	})
	return events, nil
}

// checkNotAttendingLocked enforces the single-active-event invariant. A
// pointer at targetID or at an event that no longer exists or has ended
// does not block.
func (s *Store) checkNotAttendingLocked(user *model.User, targetID uuid.UUID) error {
	if user.ActiveEventID == nil || *user.ActiveEventID == targetID {
		return nil
	}
	if current, ok := s.events[*user.ActiveEventID]; ok && !current.IsEnded() {
		return model.ErrAlreadyAttending
	}
	user.ActiveEventID = nil
	return nil
}

func (s *Store) copyEventLocked(ev *model.Event) *model.Event {
	cp := *ev
	cp.Attendees = append([]model.EventAttendee(nil), ev.Attendees...)
	return &cp
}

// ========== ports.DeviceStore ==========

func (s *Store) Link(_ context.Context, userID uuid.UUID, deviceID string) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[deviceID]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	if !dev.Encoded {
		return nil, model.ErrDeviceNotEncoded
	}
	if dev.OwnerID != nil {
		if *dev.OwnerID == userID {
			cp := *dev
			return &cp, nil
		}
		return nil, model.ErrDeviceAlreadyLinked
	}

	user, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if user.DeviceID != nil && *user.DeviceID != deviceID {
		return nil, model.ErrUserAlreadyLinked
	}

	now := time.Now()
	uid := userID
	dev.OwnerID = &uid
	dev.LinkedAt = &now
	did := deviceID
	user.DeviceID = &did

	cp := *dev
	return &cp, nil
}

func (s *Store) Unlink(_ context.Context, userID uuid.UUID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dev, ok := s.devices[deviceID]
	if !ok {
		return model.ErrDeviceNotFound
	}
	if dev.OwnerID == nil || *dev.OwnerID != userID {
		return model.ErrDeviceNotOwned
	}

	user, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	if user.DeviceID == nil || *user.DeviceID != deviceID {
		return model.ErrUserDeviceMismatch
	}

	dev.OwnerID = nil
	dev.LinkedAt = nil
	user.DeviceID = nil
	return nil
}

func (s *Store) GetDevice(_ context.Context, deviceID string) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.devices[deviceID]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	cp := *dev
	return &cp, nil
}

func (s *Store) GetDeviceByOwner(_ context.Context, userID uuid.UUID) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dev := range s.devices {
		if dev.OwnerID != nil && *dev.OwnerID == userID {
			cp := *dev
			return &cp, nil
		}
	}
	return nil, model.ErrDeviceNotFound
}

func (s *Store) SetAlertState(_ context.Context, deviceID string, vibrating, blinking bool) (*model.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.devices[deviceID]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}
	dev.Vibrating = vibrating
	dev.Blinking = blinking
	if vibrating || blinking {
		now := time.Now()
		dev.LastAlertAt = &now
	}
	cp := *dev
	return &cp, nil
}
