package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var (
	// ErrInvalidPlan indicates an unknown subscription plan
	ErrInvalidPlan = fmt.Errorf("invalid subscription plan")

	// ErrProviderNotVerified indicates the provider has not passed verification
	ErrProviderNotVerified = fmt.Errorf("provider application is not verified")

	// ErrSignatureMismatch indicates the gateway callback signature failed verification
	ErrSignatureMismatch = fmt.Errorf("payment signature verification failed")

	// ErrOrderNotFound indicates no payment row matches the gateway order
	ErrOrderNotFound = fmt.Errorf("payment order not found")

	// ErrAlreadyProcessed indicates the callback was already applied
	ErrAlreadyProcessed = fmt.Errorf("payment already processed")
)

// SubscriptionService manages listing subscriptions: order creation, payment
// confirmation, and the derived active state.
type SubscriptionService struct {
	subscriptions *database.SubscriptionRepository
	providers     *database.ProviderRepository
	gateway       *RazorpayService
	audit         *AuditService
	logger        *logrus.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptions *database.SubscriptionRepository,
	providers *database.ProviderRepository,
	gateway *RazorpayService,
	audit *AuditService,
	logger *logrus.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		providers:     providers,
		gateway:       gateway,
		audit:         audit,
		logger:        logger,
	}
}

// PlanAmount returns the GST-inclusive charge for a plan, rounded to paise
func PlanAmount(plan models.SubscriptionPlan) float64 {
	base := models.PlanBasePrice(plan)
	return math.Round(base*(1+models.GSTRate)*100) / 100
}

// addMonths adds calendar months with day-of-month clamping: Jan 31 + 1 month
// is Feb 28 (or 29), never Mar 2.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if m <= 0 {
		m += 12
		year--
	}
	last := lastDayOfMonth(year, time.Month(m))
	if day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// periodEnd computes the subscription end for a plan starting at start
func periodEnd(plan models.SubscriptionPlan, start time.Time) time.Time {
	if plan == models.PlanYearly {
		return addMonths(start, 12)
	}
	return addMonths(start, 1)
}

// Request creates (or refreshes) the provider's PENDING subscription and a
// gateway order for it. The gateway order is created before any row is
// written so a gateway failure leaves no dangling PENDING subscription.
func (s *SubscriptionService) Request(userID uuid.UUID, plan models.SubscriptionPlan) (*models.ProviderSubscription, error) {
	if !models.ValidPlan(plan) {
		return nil, ErrInvalidPlan
	}

	provider, err := s.providers.GetByUserID(userID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	if provider.VerificationStatus != models.ApplicationVerified {
		return nil, ErrProviderNotVerified
	}

	amount := PlanAmount(plan)
	receipt := fmt.Sprintf("sub-%d-%d", provider.ID, time.Now().Unix())
	order, err := s.gateway.CreateOrder(amount, receipt, map[string]string{
		"provider_id": fmt.Sprintf("%d", provider.ID),
		"plan":        string(plan),
	})
	if err != nil {
		return nil, err
	}

	sub := &models.ProviderSubscription{
		ProviderID:     provider.ID,
		PlanType:       plan,
		Amount:         amount,
		ListingSlots:   models.PlanListingSlots(plan),
		Status:         models.SubscriptionPending,
		GatewayOrderID: models.NewNullString(order.ID),
	}

	pending, err := s.subscriptions.GetPendingByProvider(provider.ID)
	switch {
	case err == nil:
		// Reuse the open PENDING row so a provider never holds two
		sub.ID = pending.ID
		if err := s.subscriptions.UpdateOrder(sub); err != nil {
			return nil, fmt.Errorf("failed to refresh pending subscription: %w", err)
		}
	case err == database.ErrNotFound:
		if err := s.subscriptions.Create(sub); err != nil {
			if err == database.ErrDuplicate {
				// Lost a concurrent race; the other request's order wins
				return s.subscriptions.GetPendingByProvider(provider.ID)
			}
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to check pending subscription: %w", err)
	}

	return sub, nil
}

// Confirm applies a signature-verified payment callback: the PENDING
// subscription becomes ACTIVE for one clamped calendar month or year.
// Replayed callbacks return ErrAlreadyProcessed without side effects.
func (s *SubscriptionService) Confirm(orderID, paymentID, signature, ipAddress, userAgent string) (*models.ProviderSubscription, error) {
	sub, err := s.subscriptions.GetByOrderRef(orderID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		if s.audit != nil {
			_ = s.audit.LogSignatureMismatch(nil, "subscription", orderID, ipAddress, userAgent)
		}
		return nil, ErrSignatureMismatch
	}

	start := time.Now()
	end := periodEnd(sub.PlanType, start)

	if err := s.subscriptions.Activate(sub.ID, paymentID, start, end); err != nil {
		if err == database.ErrStateChanged {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}

	sub.Status = models.SubscriptionActive
	sub.GatewayPaymentID = models.NewNullString(paymentID)
	sub.StartDate = models.NewNullTime(start)
	sub.EndDate = models.NewNullTime(end)

	s.logger.WithFields(logrus.Fields{
		"provider_id": sub.ProviderID,
		"plan":        sub.PlanType,
		"end_date":    end.Format(time.RFC3339),
	}).Info("Subscription activated")

	return sub, nil
}

// Status reports the provider's current subscription state: the active
// subscription if one is running, plus any open PENDING order
func (s *SubscriptionService) Status(userID uuid.UUID) (active, pending *models.ProviderSubscription, err error) {
	provider, err := s.providers.GetByUserID(userID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, fmt.Errorf("failed to load provider: %w", err)
	}

	active, err = s.subscriptions.GetActive(provider.ID, time.Now())
	if err != nil && err != database.ErrNotFound {
		return nil, nil, fmt.Errorf("failed to load active subscription: %w", err)
	}

	pending, err = s.subscriptions.GetPendingByProvider(provider.ID)
	if err != nil && err != database.ErrNotFound {
		return nil, nil, fmt.Errorf("failed to load pending subscription: %w", err)
	}

	return active, pending, nil
}

// History returns the provider's full subscription history, newest first
func (s *SubscriptionService) History(userID uuid.UUID) ([]models.ProviderSubscription, error) {
	provider, err := s.providers.GetByUserID(userID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	return s.subscriptions.ListByProvider(provider.ID)
}
