package alert

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/tbayconnect/api/internal/model"
	"google.golang.org/api/option"
)

// TokenSource looks up the push tokens registered for a user
type TokenSource interface {
	GetFCMTokens(userID uuid.UUID) ([]model.FCMToken, error)
}

// AlertService delivers simulated wearable alerts via FCM to the user's
// companion app. The wearable itself has no real protocol; the app flips
// the vibration/blink UI state when it receives the push.
type AlertService struct {
	client *messaging.Client
	tokens TokenSource
}

// NewAlertService creates a new FCM alert service. Returns nil (alerts
// disabled) when Firebase is not configured; a nil receiver is safe.
func NewAlertService(credentialsFile string, tokens TokenSource) (*AlertService, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, device alerts disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		// Log warning instead of error to not block server startup
		log.Printf("⚠️ Failed to initialize Firebase app: %v (device alerts disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &AlertService{
		client: client,
		tokens: tokens,
	}, nil
}

// SendDeviceAlert pushes an alert to all of a user's registered companion
// apps. Best-effort: callers run it in a goroutine and drop the error.
func (s *AlertService) SendDeviceAlert(ctx context.Context, userID uuid.UUID, title, body string) error {
	if s == nil || s.client == nil {
		return nil
	}

	tokens, err := s.tokens.GetFCMTokens(userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	targets := make([]string, 0, len(tokens))
	for _, t := range tokens {
		targets = append(targets, t.Token)
	}

	message := &messaging.MulticastMessage{
		Tokens: targets,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":    "device_alert",
			"vibrate": "true",
			"blink":   "true",
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	br, err := s.client.SendMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️ FCM failure for token %s: %v", targets[idx], resp.Error)
			}
		}
	}

	return nil
}
