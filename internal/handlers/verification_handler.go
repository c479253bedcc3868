package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
)

// VerificationHandler exposes the captain-facing application review queue
type VerificationHandler struct {
	applications *services.ApplicationService
	audit        *services.AuditService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(applications *services.ApplicationService, audit *services.AuditService) *VerificationHandler {
	return &VerificationHandler{
		applications: applications,
		audit:        audit,
	}
}

// RejectRequest represents the rejection request body
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Pending handles GET /api/verification/applications
func (h *VerificationHandler) Pending(c *gin.Context) {
	applications, err := h.applications.ListPending()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"applications": applications,
		"count":        len(applications),
	})
}

// Verify handles POST /api/verification/applications/:id/verify
func (h *VerificationHandler) Verify(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid application id", nil)
		return
	}

	application, err := h.applications.Verify(id, userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = h.audit.LogVerificationDecision(userCtx.UserID, "application", application.ApplicationID,
		"verified", "", c.ClientIP(), c.Request.UserAgent())

	respondOK(c, http.StatusOK, "Application verified", gin.H{"application": application})
}

// Reject handles POST /api/verification/applications/:id/reject
func (h *VerificationHandler) Reject(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid application id", nil)
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Rejection reason is required", nil)
		return
	}

	application, err := h.applications.Reject(id, userCtx.UserID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	_ = h.audit.LogVerificationDecision(userCtx.UserID, "application", application.ApplicationID,
		"rejected", req.Reason, c.ClientIP(), c.Request.UserAgent())

	respondOK(c, http.StatusOK, "Application rejected", gin.H{"application": application})
}
