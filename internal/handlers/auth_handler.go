package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Name      string `json:"name" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	IsCaptain bool   `json:"is_captain"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// registeredUser is the registration response payload. The captain code is
// included only on registration; afterwards it is never sent again.
type registeredUser struct {
	User        *models.User `json:"user"`
	CaptainCode string       `json:"captain_code,omitempty"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	user, err := h.authService.Register(&services.RegisterInput{
		Phone:     req.Phone,
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		IsCaptain: req.IsCaptain,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Registration successful. Complete the registration payment to activate your account.", registeredUser{
		User:        user,
		CaptainCode: user.CaptainCode.String,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	user, tokens, err := h.authService.Login(req.Identifier, req.Password, clientIP, userAgent)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Login successful", gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	tokens, err := h.authService.Refresh(req.RefreshToken, utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Token refreshed", gin.H{"tokens": tokens})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.authService.Logout(userCtx.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Logged out", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.authService.GetUser(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"user": user})
}
