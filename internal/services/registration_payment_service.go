package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// ErrAlreadyActive indicates the account was already activated
var ErrAlreadyActive = fmt.Errorf("account is already active")

// RegistrationPaymentService manages the one-time account activation fee:
// order creation, the signature-verified success callback, and the exactly-once
// activation of the user account.
type RegistrationPaymentService struct {
	payments *database.PaymentRepository
	users    *database.UserRepository
	gateway  *RazorpayService
	audit    *AuditService
	logger   *logrus.Logger
}

// NewRegistrationPaymentService creates a new registration payment service
func NewRegistrationPaymentService(
	payments *database.PaymentRepository,
	users *database.UserRepository,
	gateway *RazorpayService,
	audit *AuditService,
	logger *logrus.Logger,
) *RegistrationPaymentService {
	return &RegistrationPaymentService{
		payments: payments,
		users:    users,
		gateway:  gateway,
		audit:    audit,
		logger:   logger,
	}
}

// CreateOrder creates (or refreshes) the user's PENDING registration payment
// and a gateway order for the fixed fee. The gateway order is created before
// any row is written.
func (s *RegistrationPaymentService) CreateOrder(userID uuid.UUID) (*models.RegistrationPayment, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsActive {
		return nil, ErrAlreadyActive
	}

	receipt := fmt.Sprintf("reg-%s-%d", userID.String()[:8], time.Now().Unix())
	order, err := s.gateway.CreateOrder(models.RegistrationFee, receipt, map[string]string{
		"user_id": userID.String(),
		"purpose": "registration",
	})
	if err != nil {
		return nil, err
	}

	payment := &models.RegistrationPayment{
		UserID:     userID,
		Amount:     models.RegistrationFee,
		Status:     models.PaymentPending,
		GatewayRef: models.NewNullString(order.ID),
	}

	pending, err := s.payments.GetPendingByUser(userID)
	switch {
	case err == nil:
		payment.ID = pending.ID
		if err := s.payments.UpdateOrder(pending.ID, order.ID); err != nil {
			return nil, fmt.Errorf("failed to refresh pending payment: %w", err)
		}
	case err == database.ErrNotFound:
		if err := s.payments.Create(payment); err != nil {
			if err == database.ErrDuplicate {
				return s.payments.GetPendingByUser(userID)
			}
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check pending payment: %w", err)
	}

	return payment, nil
}

// Confirm applies a signature-verified payment callback: the payment flips to
// SUCCESS and the account is activated exactly once. A replayed callback for
// an already-SUCCESS payment is a no-op returning the payment unchanged.
func (s *RegistrationPaymentService) Confirm(orderID, paymentID, signature, ipAddress, userAgent string) (*models.RegistrationPayment, error) {
	payment, err := s.payments.GetByOrderRef(orderID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		if s.audit != nil {
			_ = s.audit.LogSignatureMismatch(&payment.UserID, "registration", orderID, ipAddress, userAgent)
		}
		return nil, ErrSignatureMismatch
	}

	if payment.Status == models.PaymentSuccess {
		return payment, nil
	}

	if err := s.payments.MarkSuccess(payment.ID, paymentID); err != nil {
		if err == database.ErrStateChanged {
			// Lost a race with a concurrent callback; re-read to confirm
			current, getErr := s.payments.GetByOrderRef(orderID)
			if getErr == nil && current.Status == models.PaymentSuccess {
				return current, nil
			}
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to mark payment success: %w", err)
	}

	activated, err := s.users.Activate(payment.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	if activated == 0 {
		// Account was already active; the payment record still flips so the
		// money trail stays accurate
		s.logger.WithField("user_id", payment.UserID).Warn("Payment confirmed for already-active account")
	}

	payment.Status = models.PaymentSuccess
	payment.GatewayPaymentID = models.NewNullString(paymentID)

	s.logger.WithFields(logrus.Fields{
		"user_id":  payment.UserID,
		"order_id": orderID,
	}).Info("Registration payment confirmed, account activated")

	return payment, nil
}

// Status returns the user's latest registration payment, if any
func (s *RegistrationPaymentService) Status(userID uuid.UUID) (*models.RegistrationPayment, error) {
	payment, err := s.payments.GetLatestByUser(userID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return payment, nil
}
