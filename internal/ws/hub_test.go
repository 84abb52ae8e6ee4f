package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tbayconnect/api/internal/model"
)

// A hub without Redis delivers to local clients directly, which is what
// in-memory mode runs on.
func startTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func registerTestClient(t *testing.T, hub *Hub, buffer int) *Client {
	t.Helper()
	client := &Client{
		hub:    hub,
		send:   make(chan []byte, buffer),
		UserID: uuid.New(),
		Name:   "subscriber",
	}
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.IsUserOnline(client.UserID)
	}, time.Second, 5*time.Millisecond)
	return client
}

func TestSendToUserDeliversLocallyWithoutRedis(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub, 4)

	hub.SendToUser(client.UserID, &model.WSEvent{Type: model.WSEventDeviceAlert})

	select {
	case msg := <-client.send:
		require.Contains(t, string(msg), model.WSEventDeviceAlert)
	case <-time.After(time.Second):
		t.Fatal("no message delivered to local client")
	}
}

func TestBroadcastSkipsOtherUsersQueues(t *testing.T) {
	hub := startTestHub(t)
	a := registerTestClient(t, hub, 4)
	b := registerTestClient(t, hub, 4)

	hub.SendToUser(a.UserID, &model.WSEvent{Type: model.WSEventDeviceAlert})

	select {
	case <-a.send:
	case <-time.After(time.Second):
		t.Fatal("target did not receive the event")
	}
	require.Empty(t, b.send)
}

func TestUnregisterAfterFullBufferDropDoesNotPanic(t *testing.T) {
	hub := startTestHub(t)
	client := registerTestClient(t, hub, 1)

	// Nothing drains the send queue: the second snapshot overflows the
	// buffer and the hub drops the client, closing its channel.
	hub.BroadcastFeed(nil)
	hub.BroadcastFeed(nil)

	// The read pump reports the dead connection afterwards. The channel
	// is already closed; unregistering again must not close it twice.
	hub.unregister <- client

	require.Eventually(t, func() bool {
		return !hub.IsUserOnline(client.UserID)
	}, time.Second, 5*time.Millisecond)

	// The hub loop must still be serving registrations
	registerTestClient(t, hub, 1)
}
