package geo

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/internal/model"
)

func TestHaversineKm(t *testing.T) {
	// Thunder Bay waterfront to the outskirts, roughly 15km
	a := Point{Latitude: 48.40, Longitude: -89.23}
	b := Point{Latitude: 48.30, Longitude: -89.10}

	d := HaversineKm(a, b)
	assert.InDelta(t, 14.7, d, 0.3)

	assert.Zero(t, HaversineKm(a, a))

	// Symmetric
	assert.InDelta(t, d, HaversineKm(b, a), 1e-9)
}

func TestRankOrdersByDistanceFirst(t *testing.T) {
	near := model.Event{ID: uuid.New(), Category: "feast", Latitude: 48.41, Longitude: -89.24}
	far := model.Event{ID: uuid.New(), Category: "drumming", Latitude: 49.77, Longitude: -92.84} // Dryden-ish

	viewer := &Point{Latitude: 48.40, Longitude: -89.23}

	// The far event matches interests and has a friend attending; distance
	// still wins
	friend := uuid.New()
	far.Attendees = []model.EventAttendee{{UserID: friend}}

	ranked := Rank([]model.Event{far, near}, viewer, []string{"drumming"}, []uuid.UUID{friend})
	require.Len(t, ranked, 2)
	assert.Equal(t, near.ID, ranked[0].ID)
	assert.Equal(t, far.ID, ranked[1].ID)
	assert.True(t, ranked[1].FriendInvolved)
	assert.True(t, ranked[1].InterestMatch)
	assert.Less(t, ranked[0].DistanceKm, ranked[1].DistanceKm)
}

func TestRankFallsBackToSocialKeysWithoutLocation(t *testing.T) {
	plain := model.Event{ID: uuid.New(), Category: "craft", CreatorID: uuid.New()}
	friendEvent := model.Event{ID: uuid.New(), Category: "craft", CreatorID: uuid.New()}
	interestEvent := model.Event{ID: uuid.New(), Category: "drumming", CreatorID: uuid.New()}

	ranked := Rank(
		[]model.Event{plain, interestEvent, friendEvent},
		nil,
		[]string{"Drumming"},
		[]uuid.UUID{friendEvent.CreatorID},
	)
	require.Len(t, ranked, 3)

	// No location: every distance is +Inf, friend beats interest beats plain
	for _, r := range ranked {
		assert.True(t, math.IsInf(r.DistanceKm, 1))
	}
	assert.Equal(t, friendEvent.ID, ranked[0].ID)
	assert.Equal(t, interestEvent.ID, ranked[1].ID)
	assert.Equal(t, plain.ID, ranked[2].ID)
}

func TestRankInterestMatchIsCaseInsensitive(t *testing.T) {
	ev := model.Event{ID: uuid.New(), Category: "Beading"}

	ranked := Rank([]model.Event{ev}, nil, []string{"beading"}, nil)
	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].InterestMatch)
}
