package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/internal/service/ports"
)

// InsightHandler serves the best-effort enrichment endpoints backed by
// Gemini. Every endpoint degrades to a static fallback, flagged in the
// response, so the UI never blocks on the API.
type InsightHandler struct {
	insight ports.InsightProvider
}

func NewInsightHandler(insight ports.InsightProvider) *InsightHandler {
	return &InsightHandler{insight: insight}
}

// CulturalContext godoc
// @Summary Get a cultural context note for an event category
// @Tags Insights
// @Produce json
// @Param category query string true "Event category"
// @Success 200 {object} model.InsightResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /insights/cultural-context [get]
func (h *InsightHandler) CulturalContext(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid-request", Message: "category is required"})
		return
	}

	text, fallback := h.insight.CulturalContext(c.Request.Context(), category)
	c.JSON(http.StatusOK, model.InsightResponse{Text: text, Fallback: fallback})
}

// LunarCycle godoc
// @Summary Get a note about the current lunar cycle
// @Tags Insights
// @Produce json
// @Success 200 {object} model.InsightResponse
// @Router /insights/lunar-cycle [get]
func (h *InsightHandler) LunarCycle(c *gin.Context) {
	text, fallback := h.insight.LunarCycle(c.Request.Context())
	c.JSON(http.StatusOK, model.InsightResponse{Text: text, Fallback: fallback})
}

// Speak godoc
// @Summary Synthesize a short speech clip
// @Description Returns raw audio bytes. Fails with 503 when speech synthesis is not configured.
// @Tags Insights
// @Accept json
// @Produce audio/wav
// @Security BearerAuth
// @Param body body model.SpeechRequest true "Text to speak"
// @Success 200 {file} binary
// @Failure 400 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /insights/speech [post]
func (h *InsightHandler) Speak(c *gin.Context) {
	var req model.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	audio, err := h.insight.Speak(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "speech-unavailable", Message: "Speech synthesis is not available right now."})
		return
	}

	c.Data(http.StatusOK, "audio/wav", audio)
}
