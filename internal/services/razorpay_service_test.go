package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
)

func newTestRazorpayService(baseURL string) *RazorpayService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRazorpayService(&config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "test_secret",
		BaseURL:   baseURL,
		Currency:  "INR",
	}, logger)
}

func signPayload(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(10000), ToPaise(100.00))
	assert.Equal(t, int64(23482), ToPaise(234.82))
	assert.Equal(t, int64(176882), ToPaise(1768.82))
	assert.Equal(t, int64(1), ToPaise(0.005))
}

func TestVerifySignature(t *testing.T) {
	svc := newTestRazorpayService("")

	t.Run("Valid Signature", func(t *testing.T) {
		sig := signPayload("test_secret", "order_abc", "pay_xyz")
		assert.True(t, svc.VerifySignature("order_abc", "pay_xyz", sig))
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		sig := signPayload("other_secret", "order_abc", "pay_xyz")
		assert.False(t, svc.VerifySignature("order_abc", "pay_xyz", sig))
	})

	t.Run("Tampered Payment ID", func(t *testing.T) {
		sig := signPayload("test_secret", "order_abc", "pay_xyz")
		assert.False(t, svc.VerifySignature("order_abc", "pay_other", sig))
	})

	t.Run("Empty Signature", func(t *testing.T) {
		assert.False(t, svc.VerifySignature("order_abc", "pay_xyz", ""))
	})
}

func TestCreateOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/orders", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "test_secret", pass)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"order_abc","entity":"order","amount":10000,"currency":"INR","receipt":"reg_1","status":"created"}`))
		}))
		defer server.Close()

		svc := newTestRazorpayService(server.URL)
		order, err := svc.CreateOrder(100.00, "reg_1", map[string]string{"purpose": "registration"})
		require.NoError(t, err)
		assert.Equal(t, "order_abc", order.ID)
		assert.Equal(t, int64(10000), order.Amount)
	})

	t.Run("Gateway Rejects", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
		}))
		defer server.Close()

		svc := newTestRazorpayService(server.URL)
		order, err := svc.CreateOrder(0.001, "reg_1", nil)
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
		assert.Nil(t, order)
	})

	t.Run("Missing Credentials", func(t *testing.T) {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		svc := NewRazorpayService(&config.RazorpayConfig{Currency: "INR"}, logger)

		order, err := svc.CreateOrder(100.00, "reg_1", nil)
		assert.Error(t, err)
		assert.Nil(t, order)
	})
}
