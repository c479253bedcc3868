package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
)

// CaptainHandler handles captain document submission (public, keyed by
// captain code since unverified captains cannot log in) and the admin review
// queue
type CaptainHandler struct {
	captains *services.CaptainService
	uploads  *config.UploadConfig
}

// NewCaptainHandler creates a new captain handler
func NewCaptainHandler(captains *services.CaptainService, uploads *config.UploadConfig) *CaptainHandler {
	return &CaptainHandler{
		captains: captains,
		uploads:  uploads,
	}
}

// CaptainRejectRequest represents the admin rejection request body
type CaptainRejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SubmitDocuments handles POST /api/captains/documents (multipart)
func (h *CaptainHandler) SubmitDocuments(c *gin.Context) {
	captainCode := c.PostForm("captain_code")
	phone := c.PostForm("phone")
	if captainCode == "" || phone == "" {
		respondError(c, http.StatusBadRequest, "captain_code and phone are required", nil)
		return
	}

	aadhaarFront, err := saveUpload(c, h.uploads, "aadhaar_front", true)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	aadhaarBack, err := saveUpload(c, h.uploads, "aadhaar_back", true)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	profile, err := h.captains.SubmitDocuments(captainCode, phone, aadhaarFront, aadhaarBack)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Documents submitted for verification", gin.H{"profile": profile})
}

// Status handles GET /api/captains/status/:code
func (h *CaptainHandler) Status(c *gin.Context) {
	profile, err := h.captains.Status(c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"profile": profile})
}

// Pending handles GET /api/admin/captains (admin)
func (h *CaptainHandler) Pending(c *gin.Context) {
	profiles, err := h.captains.ListPending()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// Verify handles POST /api/admin/captains/:user_id/verify (admin)
func (h *CaptainHandler) Verify(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	captainUserID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", nil)
		return
	}

	profile, err := h.captains.Verify(captainUserID, userCtx.UserID, utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Captain verified", gin.H{"profile": profile})
}

// Reject handles POST /api/admin/captains/:user_id/reject (admin)
func (h *CaptainHandler) Reject(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	captainUserID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", nil)
		return
	}

	var req CaptainRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Rejection reason is required", nil)
		return
	}

	profile, err := h.captains.Reject(captainUserID, userCtx.UserID, req.Reason, utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Captain rejected", gin.H{"profile": profile})
}
