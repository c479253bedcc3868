package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
)

// SubscriptionHandler handles listing subscription billing for verified
// providers
type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// SubscribeRequest represents the subscription request body
type SubscribeRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// SubscriptionCallbackRequest represents the gateway checkout callback body
type SubscriptionCallbackRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// Create handles POST /api/subscriptions
func (h *SubscriptionHandler) Create(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	subscription, err := h.subscriptions.Request(userCtx.UserID, models.SubscriptionPlan(req.Plan))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Subscription order created", gin.H{"subscription": subscription})
}

// Callback handles POST /api/subscriptions/callback. The endpoint is public:
// the payment signature, not a session, is what authenticates it.
func (h *SubscriptionHandler) Callback(c *gin.Context) {
	var req SubscriptionCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	subscription, err := h.subscriptions.Confirm(req.OrderID, req.PaymentID, req.Signature,
		utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Subscription activated", gin.H{"subscription": subscription})
}

// Status handles GET /api/subscriptions/status
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	active, pending, err := h.subscriptions.Status(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{
		"is_active": active != nil,
		"active":    active,
		"pending":   pending,
	})
}

// History handles GET /api/subscriptions/history
func (h *SubscriptionHandler) History(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	subscriptions, err := h.subscriptions.History(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"subscriptions": subscriptions})
}
