package insight

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCulturalContextFallsBackWithoutAPIKey(t *testing.T) {
	c := New(Config{})

	text, fallback := c.CulturalContext(context.Background(), "drumming")
	assert.True(t, fallback)
	assert.NotEmpty(t, text)

	// Unknown categories still get the generic note
	text, fallback = c.CulturalContext(context.Background(), "snowshoeing")
	assert.True(t, fallback)
	assert.NotEmpty(t, text)
}

func TestLunarCycleFallsBackWithoutAPIKey(t *testing.T) {
	c := New(Config{})

	text, fallback := c.LunarCycle(context.Background())
	assert.True(t, fallback)
	assert.Contains(t, text, "moon")
}

func TestSpeakRequiresAPIKey(t *testing.T) {
	c := New(Config{})

	_, err := c.Speak(context.Background(), "Aaniin")
	require.Error(t, err)
}

func TestMoonPhaseName(t *testing.T) {
	// Known new moon epoch
	epoch := time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)
	assert.Equal(t, "new", moonPhaseName(epoch))

	// Half a synodic month later is a full moon
	full := epoch.Add(time.Duration(29.53058867 / 2 * 24 * float64(time.Hour)))
	assert.Equal(t, "full", moonPhaseName(full))

	// A quarter in
	quarter := epoch.Add(time.Duration(29.53058867 / 4 * 24 * float64(time.Hour)))
	assert.Equal(t, "first quarter", moonPhaseName(quarter))
}
