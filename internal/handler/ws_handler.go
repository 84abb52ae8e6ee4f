package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service"
	"github.com/tbayconnect/api/internal/ws"
	"github.com/tbayconnect/api/pkg/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// WSHandler handles WebSocket connections for the live event feed
type WSHandler struct {
	hub          *ws.Hub
	eventService *service.EventService
	jwtManager   *auth.JWTManager
}

func NewWSHandler(hub *ws.Hub, eventService *service.EventService, jwtManager *auth.JWTManager) *WSHandler {
	return &WSHandler{
		hub:          hub,
		eventService: eventService,
		jwtManager:   jwtManager,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection.
// Client connects with: ws://host/ws?token=<jwt_token>. Each new
// subscriber immediately receives the full active-event snapshot.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Authenticate via query parameter (WebSocket can't use Authorization header)
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID, claims.Name)
	h.hub.Register(client)

	log.Printf("✅ WS Connected: UserID=%s Name=%s", claims.UserID, claims.Name)

	go client.WritePump()
	go client.ReadPump(h.handleWSMessage)

	// Initial snapshot so the subscriber doesn't wait for the next change
	h.sendSnapshotToUser(client)
}

// handleWSMessage processes incoming WebSocket messages from clients
func (h *WSHandler) handleWSMessage(client *ws.Client, event model.WSEvent) {
	switch event.Type {
	case model.WSEventFeedSnapshot:
		// Client asked for a refresh
		h.sendSnapshotToUser(client)

	default:
		log.Printf("Unknown WebSocket event type: %s", event.Type)
	}
}

// sendSnapshotToUser pushes the current active-event list to one user
func (h *WSHandler) sendSnapshotToUser(client *ws.Client) {
	events, err := h.eventService.ListActive(context.Background())
	if err != nil {
		log.Printf("⚠️ Feed snapshot load failed for %s: %v", client.UserID, err)
		return
	}

	h.hub.SendToUser(client.UserID, &model.WSEvent{
		Type:    model.WSEventFeedSnapshot,
		Payload: model.FeedSnapshotEvent{Events: events},
	})
}
