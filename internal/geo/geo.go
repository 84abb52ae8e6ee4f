// Package geo holds the pure feed-ranking helpers: haversine distance and
// the distance → friends → interests sort. No state, no side effects.
package geo

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
)

const earthRadiusKm = 6371

// Point is a WGS84 coordinate
type Point struct {
	Latitude  float64
	Longitude float64
}

// HaversineKm returns the great-circle distance between two points
func HaversineKm(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Rank computes per-event signals for the viewer and sorts the feed.
// Order: distance ascending, then friend-involved first, then interest
// match first. With no viewer location every event is infinitely far, so
// only the social and interest keys order the feed. The sort is stable.
func Rank(events []model.Event, viewer *Point, interests []string, follows []uuid.UUID) []model.RankedEvent {
	followSet := make(map[uuid.UUID]bool, len(follows))
	for _, id := range follows {
		followSet[id] = true
	}
	interestSet := make(map[string]bool, len(interests))
	for _, in := range interests {
		interestSet[strings.ToLower(in)] = true
	}

	ranked := make([]model.RankedEvent, 0, len(events))
	for _, ev := range events {
		r := model.RankedEvent{Event: ev, DistanceKm: math.Inf(1)}
		if viewer != nil {
			r.DistanceKm = HaversineKm(*viewer, Point{Latitude: ev.Latitude, Longitude: ev.Longitude})
		}
		r.InterestMatch = interestSet[strings.ToLower(ev.Category)]
		if followSet[ev.CreatorID] {
			r.FriendInvolved = true
		} else {
			for _, a := range ev.Attendees {
				if followSet[a.UserID] {
					r.FriendInvolved = true
					break
				}
			}
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		if ranked[i].FriendInvolved != ranked[j].FriendInvolved {
			return ranked[i].FriendInvolved
		}
		if ranked[i].InterestMatch != ranked[j].InterestMatch {
			return ranked[i].InterestMatch
		}
		return false
	})

	return ranked
}
