package database

import (
	"database/sql"
	"time"

	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// SubscriptionRepository handles provider_subscriptions.
// A partial unique index guarantees at most one PENDING row per provider.
type SubscriptionRepository struct {
	db DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, provider_id, plan_type, amount, listing_slots, status,
	gateway_order_id, gateway_payment_id, start_date, end_date, created_at, updated_at`

func scanSubscription(row *sql.Row) (*models.ProviderSubscription, error) {
	s := &models.ProviderSubscription{}
	err := row.Scan(
		&s.ID, &s.ProviderID, &s.PlanType, &s.Amount, &s.ListingSlots, &s.Status,
		&s.GatewayOrderID, &s.GatewayPaymentID, &s.StartDate, &s.EndDate,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// Create inserts a PENDING subscription. The partial unique index maps a
// concurrent duplicate to ErrDuplicate.
func (r *SubscriptionRepository) Create(s *models.ProviderSubscription) error {
	query := `
		INSERT INTO provider_subscriptions
			(provider_id, plan_type, amount, listing_slots, status, gateway_order_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query,
		s.ProviderID, s.PlanType, s.Amount, s.ListingSlots, s.Status, s.GatewayOrderID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetPendingByProvider returns the provider's open PENDING subscription, if any
func (r *SubscriptionRepository) GetPendingByProvider(providerID int64) (*models.ProviderSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM provider_subscriptions
		WHERE provider_id = $1 AND status = 'PENDING'`
	return scanSubscription(r.db.QueryRow(query, providerID))
}

// GetByOrderRef looks a subscription up by the gateway order id
func (r *SubscriptionRepository) GetByOrderRef(orderID string) (*models.ProviderSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM provider_subscriptions
		WHERE gateway_order_id = $1`
	return scanSubscription(r.db.QueryRow(query, orderID))
}

// UpdateOrder refreshes the plan and gateway order on an existing PENDING row,
// used when a provider re-requests a subscription before paying
func (r *SubscriptionRepository) UpdateOrder(s *models.ProviderSubscription) error {
	query := `
		UPDATE provider_subscriptions
		SET plan_type = $1, amount = $2, listing_slots = $3, gateway_order_id = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $5 AND status = 'PENDING'
	`
	result, err := r.db.Exec(query, s.PlanType, s.Amount, s.ListingSlots, s.GatewayOrderID, s.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStateChanged
	}
	return nil
}

// Activate flips a PENDING subscription to ACTIVE with the paid period.
// The status guard makes a replayed callback a no-op (ErrStateChanged).
func (r *SubscriptionRepository) Activate(id int64, paymentID string, start, end time.Time) error {
	query := `
		UPDATE provider_subscriptions
		SET status = 'ACTIVE', gateway_payment_id = $1, start_date = $2, end_date = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = 'PENDING'
	`
	result, err := r.db.Exec(query, paymentID, start, end, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStateChanged
	}
	return nil
}

// GetActive returns the provider's currently running subscription. "Active"
// is derived at read time, there is no background expiry job.
func (r *SubscriptionRepository) GetActive(providerID int64, now time.Time) (*models.ProviderSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM provider_subscriptions
		WHERE provider_id = $1 AND status = 'ACTIVE' AND end_date >= $2
		ORDER BY end_date DESC
		LIMIT 1`
	return scanSubscription(r.db.QueryRow(query, providerID, now))
}

// ListByProvider returns the provider's full subscription history
func (r *SubscriptionRepository) ListByProvider(providerID int64) ([]models.ProviderSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM provider_subscriptions
		WHERE provider_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(query, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.ProviderSubscription
	for rows.Next() {
		var s models.ProviderSubscription
		err := rows.Scan(
			&s.ID, &s.ProviderID, &s.PlanType, &s.Amount, &s.ListingSlots, &s.Status,
			&s.GatewayOrderID, &s.GatewayPaymentID, &s.StartDate, &s.EndDate,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}
