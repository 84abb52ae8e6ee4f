package ports

import (
	"context"

	"github.com/google/uuid"
)

// AlertSender delivers simulated wearable alerts to a user's companion
// app. Best-effort: callers ignore errors and never block on delivery.
type AlertSender interface {
	SendDeviceAlert(ctx context.Context, userID uuid.UUID, title, body string) error
}

// InsightProvider wraps the generative text/speech API. Implementations
// must degrade to static fallback text instead of failing.
type InsightProvider interface {
	CulturalContext(ctx context.Context, category string) (text string, fallback bool)
	LunarCycle(ctx context.Context) (text string, fallback bool)
	Speak(ctx context.Context, text string) (audio []byte, err error)
}
