package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
)

// PaymentHandler handles the one-time registration payment flow. These
// endpoints are unauthenticated: accounts cannot log in before the fee is
// paid, so the flow is keyed by user id and protected by the gateway's
// payment signature.
type PaymentHandler struct {
	payments *services.RegistrationPaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *services.RegistrationPaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrderRequest represents the order-create request body
type CreateOrderRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// PaymentCallbackRequest represents the gateway checkout callback body
type PaymentCallbackRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// CreateOrder handles POST /api/payments/registration/order
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", nil)
		return
	}

	payment, err := h.payments.CreateOrder(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Payment order created", gin.H{"payment": payment})
}

// Callback handles POST /api/payments/registration/callback
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", gin.H{"detail": err.Error()})
		return
	}

	payment, err := h.payments.Confirm(req.OrderID, req.PaymentID, req.Signature,
		utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Payment confirmed, account activated", gin.H{"payment": payment})
}

// Status handles GET /api/payments/registration/status/:user_id
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user id", nil)
		return
	}

	payment, err := h.payments.Status(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"payment": payment})
}
