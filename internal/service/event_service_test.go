package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/internal/config"
	"github.com/tbayconnect/api/internal/geo"
	"github.com/tbayconnect/api/internal/memstore"
	"github.com/tbayconnect/api/internal/model"
)

func newEventFixture(t *testing.T) (*EventService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := NewEventService(store, store, nil, config.EventsConfig{
		CreateLimit: 3,
		QuotaWindow: 744 * time.Hour,
	})
	return svc, store
}

func seedTestUser(store *memstore.Store, name string, age *int, isAdmin bool) *model.User {
	u := &model.User{
		ID:      uuid.New(),
		Name:    name,
		Email:   name + "@test.local",
		Age:     age,
		IsAdmin: isAdmin,
	}
	store.PutUser(u)
	return u
}

func intPtr(n int) *int { return &n }

func basicCreateRequest(title string) model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:     title,
		Category:  "drumming",
		Latitude:  48.40,
		Longitude: -89.23,
	}
}

func TestCreateAddsCreatorAsFirstAttendee(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", intPtr(30), false)

	ev, err := svc.Create(context.Background(), creator.ID, basicCreateRequest("Drum Circle"))
	require.NoError(t, err)

	assert.Equal(t, model.EventStatusActive, ev.Status)
	assert.Equal(t, creator.Name, ev.CreatorName)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, creator.ID, ev.Attendees[0].UserID)
	assert.Equal(t, 1, ev.Participants)

	u, err := store.GetUser(context.Background(), creator.ID)
	require.NoError(t, err)
	require.NotNil(t, u.ActiveEventID)
	assert.Equal(t, ev.ID, *u.ActiveEventID)
}

func TestCreateRejectsPastStartTime(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)

	req := basicCreateRequest("Yesterday")
	past := time.Now().Add(-time.Hour)
	req.StartAt = &past

	_, err := svc.Create(context.Background(), creator.ID, req)
	var verr model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreateQuotaRollsOverTheWindow(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	ctx := context.Background()

	// Three creations succeed; ending each frees the single-active-event
	// slot without refunding quota
	for i := 0; i < 3; i++ {
		ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Gathering"))
		require.NoError(t, err)
		_, err = svc.End(ctx, ev.ID, creator.ID)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, creator.ID, basicCreateRequest("One too many"))
	require.ErrorIs(t, err, model.ErrEventLimit)

	// A rejected creation leaves nothing behind
	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// Retrying over the limit keeps failing without consuming anything
	_, err = svc.Create(ctx, creator.ID, basicCreateRequest("Still too many"))
	require.ErrorIs(t, err, model.ErrEventLimit)
}

func TestCreateQuotaExemptsAdmins(t *testing.T) {
	svc, store := newEventFixture(t)
	admin := seedTestUser(store, "admin", nil, true)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev, err := svc.Create(ctx, admin.ID, basicCreateRequest("Admin event"))
		require.NoError(t, err)
		_, err = svc.End(ctx, ev.ID, admin.ID)
		require.NoError(t, err)
	}
}

func TestCreateQuotaHonorsPerUserOverride(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "limited", nil, false)
	creator.EventLimit = intPtr(1)
	store.PutUser(creator)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("First"))
	require.NoError(t, err)
	_, err = svc.End(ctx, ev.ID, creator.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, creator.ID, basicCreateRequest("Second"))
	require.ErrorIs(t, err, model.ErrEventLimit)
}

func TestCreateBlockedWhileAttendingAnotherEvent(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, creator.ID, basicCreateRequest("First"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, creator.ID, basicCreateRequest("Second"))
	require.ErrorIs(t, err, model.ErrAlreadyAttending)
}

func TestJoinEnforcesSingleActiveEvent(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	other := seedTestUser(store, "other", nil, false)
	member := seedTestUser(store, "member", nil, false)
	ctx := context.Background()

	first, err := svc.Create(ctx, creator.ID, basicCreateRequest("First"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, other.ID, basicCreateRequest("Second"))
	require.NoError(t, err)

	_, err = svc.Join(ctx, first.ID, member.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, second.ID, member.ID)
	require.ErrorIs(t, err, model.ErrAlreadyAttending)

	// Leaving the first frees the slot
	_, err = svc.Leave(ctx, first.ID, member.ID)
	require.NoError(t, err)
	_, err = svc.Join(ctx, second.ID, member.ID)
	require.NoError(t, err)
}

func TestJoinAfterEventEndedFreesTheSlot(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	other := seedTestUser(store, "other", nil, false)
	member := seedTestUser(store, "member", nil, false)
	ctx := context.Background()

	first, err := svc.Create(ctx, creator.ID, basicCreateRequest("First"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, other.ID, basicCreateRequest("Second"))
	require.NoError(t, err)

	_, err = svc.Join(ctx, first.ID, member.ID)
	require.NoError(t, err)

	// The member never explicitly leaves; the stale pointer is cleared on
	// the next join because the first event has ended
	_, err = svc.End(ctx, first.ID, creator.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, second.ID, member.ID)
	require.NoError(t, err)
}

func TestJoinEndedEventRejectedWithoutMutation(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	member := seedTestUser(store, "member", nil, false)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Short lived"))
	require.NoError(t, err)
	_, err = svc.End(ctx, ev.ID, creator.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, ev.ID, member.ID)
	require.ErrorIs(t, err, model.ErrEventEnded)

	got, err := svc.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, got.Attendees, 1)
	assert.Equal(t, 1, got.Participants)

	u, err := store.GetUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Nil(t, u.ActiveEventID)
}

func TestJoinAgeGate(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	noAge := seedTestUser(store, "noage", nil, false)
	minor := seedTestUser(store, "minor", intPtr(17), false)
	adult := seedTestUser(store, "adult", intPtr(18), false)
	ctx := context.Background()

	req := basicCreateRequest("Adults only")
	req.AgeMin = intPtr(18)
	ev, err := svc.Create(ctx, creator.ID, req)
	require.NoError(t, err)

	// Unset age counts as not meeting the minimum
	_, err = svc.Join(ctx, ev.ID, noAge.ID)
	require.ErrorIs(t, err, model.ErrAgeRestricted)

	_, err = svc.Join(ctx, ev.ID, minor.ID)
	require.ErrorIs(t, err, model.ErrAgeRestricted)

	got, err := svc.Join(ctx, ev.ID, adult.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Participants)
}

func TestJoinRespectsCapacity(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	second := seedTestUser(store, "second", nil, false)
	third := seedTestUser(store, "third", nil, false)
	ctx := context.Background()

	req := basicCreateRequest("Tiny event")
	req.MaxParticipants = intPtr(2)
	ev, err := svc.Create(ctx, creator.ID, req)
	require.NoError(t, err)

	_, err = svc.Join(ctx, ev.ID, second.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, ev.ID, third.ID)
	require.ErrorIs(t, err, model.ErrEventFull)
}

func TestJoinIsIdempotent(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	member := seedTestUser(store, "member", nil, false)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Gathering"))
	require.NoError(t, err)

	_, err = svc.Join(ctx, ev.ID, member.ID)
	require.NoError(t, err)
	got, err := svc.Join(ctx, ev.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Participants)
	assert.Len(t, got.Attendees, 2)
}

func TestLeaveNeverJoinedIsNoOp(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	stranger := seedTestUser(store, "stranger", nil, false)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Gathering"))
	require.NoError(t, err)

	got, err := svc.Leave(ctx, ev.ID, stranger.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Participants)
}

func TestEndRequiresCreatorOrAdmin(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	member := seedTestUser(store, "member", nil, false)
	admin := seedTestUser(store, "admin", nil, true)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Gathering"))
	require.NoError(t, err)

	_, err = svc.Join(ctx, ev.ID, member.ID)
	require.NoError(t, err)

	_, err = svc.End(ctx, ev.ID, member.ID)
	require.ErrorIs(t, err, model.ErrNotEventCreator)

	got, err := svc.End(ctx, ev.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusEnded, got.Status)
	require.NotNil(t, got.EndedAt)

	// Ended is terminal and idempotent; attendees stay for history
	again, err := svc.End(ctx, ev.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, got.EndedAt.Unix(), again.EndedAt.Unix())
	assert.Len(t, again.Attendees, 2)
}

func TestUpdateCreatorLocation(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	member := seedTestUser(store, "member", nil, false)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Gathering"))
	require.NoError(t, err)

	lat, lng := 48.41, -89.25
	_, err = svc.UpdateCreatorLocation(ctx, ev.ID, member.ID, model.UpdateCreatorLocationRequest{
		Enabled: true, Latitude: &lat, Longitude: &lng,
	})
	require.ErrorIs(t, err, model.ErrNotEventCreator)

	got, err := svc.UpdateCreatorLocation(ctx, ev.ID, creator.ID, model.UpdateCreatorLocationRequest{
		Enabled: true, Latitude: &lat, Longitude: &lng,
	})
	require.NoError(t, err)
	assert.True(t, got.ShareCreatorLocation)
	require.NotNil(t, got.CreatorLatitude)
	assert.Equal(t, lat, *got.CreatorLatitude)
	require.NotNil(t, got.CreatorLocationAt)

	// Disabling clears every broadcast field
	got, err = svc.UpdateCreatorLocation(ctx, ev.ID, creator.ID, model.UpdateCreatorLocationRequest{Enabled: false})
	require.NoError(t, err)
	assert.False(t, got.ShareCreatorLocation)
	assert.Nil(t, got.CreatorLatitude)
	assert.Nil(t, got.CreatorLongitude)
	assert.Nil(t, got.CreatorLocationAt)
}

func TestFeedRanksForTheViewer(t *testing.T) {
	svc, store := newEventFixture(t)
	nearCreator := seedTestUser(store, "near", nil, false)
	farCreator := seedTestUser(store, "far", nil, false)
	viewer := seedTestUser(store, "viewer", nil, false)
	ctx := context.Background()

	nearReq := basicCreateRequest("Near event")
	nearReq.Latitude, nearReq.Longitude = 48.40, -89.23
	near, err := svc.Create(ctx, nearCreator.ID, nearReq)
	require.NoError(t, err)

	farReq := basicCreateRequest("Far event")
	farReq.Latitude, farReq.Longitude = 49.77, -92.84
	far, err := svc.Create(ctx, farCreator.ID, farReq)
	require.NoError(t, err)

	loc := &geo.Point{Latitude: 48.40, Longitude: -89.23}
	feed, err := svc.Feed(ctx, &viewer.ID, loc)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, near.ID, feed[0].ID)
	assert.Equal(t, far.ID, feed[1].ID)

	// Following the far creator matters only without location
	store.Follow(viewer.ID, farCreator.ID)
	feed, err = svc.Feed(ctx, &viewer.ID, nil)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, far.ID, feed[0].ID)
	assert.True(t, feed[0].FriendInvolved)
}

func TestFeedExcludesEndedEvents(t *testing.T) {
	svc, store := newEventFixture(t)
	creator := seedTestUser(store, "creator", nil, false)
	ctx := context.Background()

	ev, err := svc.Create(ctx, creator.ID, basicCreateRequest("Gathering"))
	require.NoError(t, err)
	_, err = svc.End(ctx, ev.ID, creator.ID)
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, feed)
}
