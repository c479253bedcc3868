package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
)

// GuideHandler serves the government-services guide: curated Q&A plus the AI
// fallback for free-form questions
type GuideHandler struct {
	guide *services.GuideService
}

// NewGuideHandler creates a new guide handler
func NewGuideHandler(guide *services.GuideService) *GuideHandler {
	return &GuideHandler{guide: guide}
}

// AskRequest represents a free-form AI question
type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	ServiceID int64  `json:"service_id"`
	Language  string `json:"language"` // "english" (default) or "hindi"
}

// Services handles GET /api/guide/services
func (h *GuideHandler) Services(c *gin.Context) {
	services, err := h.guide.Services()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"services": services})
}

// Questions handles GET /api/guide/services/:id/questions
func (h *GuideHandler) Questions(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid service id", nil)
		return
	}

	questions, err := h.guide.Questions(serviceID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", gin.H{"questions": questions})
}

// Answer handles GET /api/guide/questions/:id/answer?language=hindi
func (h *GuideHandler) Answer(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid question id", nil)
		return
	}

	language := c.DefaultQuery("language", "english")

	answer, text, err := h.guide.Answer(questionID, language)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"question": answer.QuestionText,
		"service":  answer.ServiceName,
		"language": language,
		"answer":   text,
	})
}

// Ask handles POST /api/guide/ask
func (h *GuideHandler) Ask(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	answer, err := h.guide.Ask(c.Request.Context(), userCtx.UserID.String(), utils.GetRealIP(c),
		req.Question, req.ServiceID, req.Language)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"question": req.Question,
		"language": req.Language,
		"answer":   answer,
	})
}
