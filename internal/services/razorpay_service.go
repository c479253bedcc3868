package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/bharatabhiyan/marketplace-backend/internal/config"
)

// RazorpayService handles payment gateway integration with Razorpay Orders
type RazorpayService struct {
	config *config.RazorpayConfig
	logger *logrus.Logger
	client *http.Client
}

// RazorpayOrderRequest represents the order-create request sent to Razorpay.
// Amount is in the smallest currency unit (paise for INR).
type RazorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RazorpayOrder represents an order created on the gateway
type RazorpayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// ErrGatewayUnavailable is returned when Razorpay rejects or fails an
// order-create call. Handlers map it to 502.
var ErrGatewayUnavailable = fmt.Errorf("payment gateway unavailable")

// NewRazorpayService creates a new Razorpay payment service
func NewRazorpayService(cfg *config.RazorpayConfig, logger *logrus.Logger) *RazorpayService {
	return &RazorpayService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ToPaise converts a rupee amount to paise, rounding to the nearest unit
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder creates a gateway order for the given rupee amount and returns
// the gateway's order id for the client-side checkout
func (s *RazorpayService) CreateOrder(amount float64, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if s.config.KeyID == "" || s.config.KeySecret == "" {
		return nil, fmt.Errorf("payment gateway not configured: missing key credentials")
	}

	reqBody := RazorpayOrderRequest{
		Amount:   ToPaise(amount),
		Currency: s.config.Currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.config.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Razorpay order create failed")
		return nil, ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var gwErr razorpayErrorResponse
		_ = json.Unmarshal(body, &gwErr)
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"error_code":  gwErr.Error.Code,
			"description": gwErr.Error.Description,
			"receipt":     receipt,
		}).Error("Razorpay order create rejected")
		return nil, ErrGatewayUnavailable
	}

	var order RazorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"amount":   order.Amount,
		"receipt":  receipt,
	}).Info("Razorpay order created")

	return &order, nil
}

// VerifySignature checks the HMAC-SHA256 payment signature Razorpay sends
// back after checkout: hex(HMAC-SHA256("order_id|payment_id", key_secret)).
func (s *RazorpayService) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
