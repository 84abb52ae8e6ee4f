// Package insight wraps the Gemini REST API for the small best-effort
// enrichment features: cultural context blurbs, lunar cycle notes and
// short speech clips. Every call degrades to a static fallback so the
// core flows never depend on the API being reachable.
package insight

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"
)

const baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Config holds Gemini API configuration
type Config struct {
	APIKey      string
	TextModel   string
	SpeechModel string
}

// Client calls the Gemini generateContent endpoints
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Gemini client. An empty API key is allowed; the client
// then serves fallbacks only.
func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// CulturalContext returns a short Anishinaabe cultural note for an event
// category. fallback reports whether the static text was used.
func (c *Client) CulturalContext(ctx context.Context, category string) (string, bool) {
	prompt := fmt.Sprintf(
		"In two sentences, share respectful Anishinaabe cultural context for a community gathering about %q in the Thunder Bay area. Plain text only.",
		category,
	)
	text, err := c.generateText(ctx, prompt)
	if err != nil {
		log.Printf("⚠️ Cultural context call failed: %v (using fallback)", err)
		return culturalFallback(category), true
	}
	return text, false
}

// LunarCycle returns a note about the current moon phase
func (c *Client) LunarCycle(ctx context.Context) (string, bool) {
	phase := moonPhaseName(time.Now())
	prompt := fmt.Sprintf(
		"In two sentences, describe the significance of the %s moon in Anishinaabe tradition. Plain text only.",
		phase,
	)
	text, err := c.generateText(ctx, prompt)
	if err != nil {
		log.Printf("⚠️ Lunar cycle call failed: %v (using fallback)", err)
		return fmt.Sprintf("Tonight's moon is in its %s phase. Many Anishinaabe communities follow the lunar cycle to mark seasonal gatherings.", phase), true
	}
	return text, false
}

// Speak synthesizes a short speech clip for the given text
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("speech synthesis not configured")
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": text}}},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"AUDIO"},
		},
	}
	resp, err := c.post(ctx, c.cfg.SpeechModel, body)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return base64.StdEncoding.DecodeString(part.InlineData.Data)
			}
		}
	}
	return nil, errors.New("no audio in response")
}

// ========== Gemini REST plumbing ==========

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("api key not configured")
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}
	resp, err := c.post(ctx, c.cfg.TextModel, body)
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if t := strings.TrimSpace(part.Text); t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("empty response")
}

func (c *Client) post(ctx context.Context, model string, body interface{}) (*generateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", baseURL, model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", res.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// ========== Fallbacks ==========

func culturalFallback(category string) string {
	switch strings.ToLower(category) {
	case "drumming", "music":
		return "Drum circles carry the heartbeat of the community. All are welcome to listen and learn."
	case "food", "feast":
		return "Sharing food is a long-standing tradition of welcome. Community feasts honour both guests and ancestors."
	case "craft", "beading":
		return "Beadwork and crafts pass teachings between generations. Bring curiosity and patience."
	default:
		return "Community gatherings are an invitation to connect, share and learn together in a good way."
	}
}

// moonPhaseName approximates the current phase from a known new moon
// epoch and the mean synodic month
func moonPhaseName(t time.Time) string {
	epoch := time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)
	const synodicDays = 29.53058867

	days := t.Sub(epoch).Hours() / 24
	frac := math.Mod(days, synodicDays) / synodicDays
	if frac < 0 {
		frac++
	}

	switch {
	case frac < 0.0625 || frac >= 0.9375:
		return "new"
	case frac < 0.1875:
		return "waxing crescent"
	case frac < 0.3125:
		return "first quarter"
	case frac < 0.4375:
		return "waxing gibbous"
	case frac < 0.5625:
		return "full"
	case frac < 0.6875:
		return "waning gibbous"
	case frac < 0.8125:
		return "last quarter"
	default:
		return "waning crescent"
	}
}
