package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
)

func TestListActiveEventsOrderIsDeterministic(t *testing.T) {
	store := New()
	ctx := context.Background()
	now := time.Now()
	p := ports.CreateEventParams{DefaultLimit: 3, QuotaWindow: time.Hour, Now: now}

	// Same-instant creations: created_at alone cannot order these
	for i := 0; i < 6; i++ {
		creator := &model.User{ID: uuid.New(), Name: fmt.Sprintf("creator-%d", i)}
		store.PutUser(creator)
		ev := &model.Event{
			Title:     fmt.Sprintf("Gathering %d", i),
			Category:  "community",
			CreatorID: creator.ID,
		}
		require.NoError(t, store.CreateEvent(ctx, ev, p))
	}

	first, err := store.ListActiveEvents(ctx)
	require.NoError(t, err)
	require.Len(t, first, 6)

	for i := 1; i < len(first); i++ {
		require.Equal(t, first[i-1].CreatedAt, first[i].CreatedAt)
		require.Less(t, first[i-1].ID.String(), first[i].ID.String())
	}

	// Map iteration order varies per call; the listing must not
	for run := 0; run < 20; run++ {
		again, err := store.ListActiveEvents(ctx)
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for i := range first {
			require.Equal(t, first[i].ID, again[i].ID)
		}
	}
}

func TestListActiveEventsNewestFirst(t *testing.T) {
	store := New()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		creator := &model.User{ID: uuid.New(), Name: fmt.Sprintf("creator-%d", i)}
		store.PutUser(creator)
		ev := &model.Event{Title: fmt.Sprintf("Gathering %d", i), Category: "community", CreatorID: creator.ID}
		p := ports.CreateEventParams{DefaultLimit: 3, QuotaWindow: time.Hour, Now: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, store.CreateEvent(ctx, ev, p))
	}

	events, err := store.ListActiveEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "Gathering 2", events[0].Title)
	require.Equal(t, "Gathering 0", events[2].Title)
}
