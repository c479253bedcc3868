package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// PaymentRepository handles registration_payments. A partial unique index
// guarantees at most one PENDING row per user.
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, amount, status, gateway_ref, gateway_payment_id, created_at, updated_at`

func scanPayment(row *sql.Row) (*models.RegistrationPayment, error) {
	p := &models.RegistrationPayment{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Status,
		&p.GatewayRef, &p.GatewayPaymentID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a PENDING registration payment
func (r *PaymentRepository) Create(p *models.RegistrationPayment) error {
	query := `
		INSERT INTO registration_payments (user_id, amount, status, gateway_ref)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(query, p.UserID, p.Amount, p.Status, p.GatewayRef).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetPendingByUser returns the user's open PENDING payment, if any
func (r *PaymentRepository) GetPendingByUser(userID uuid.UUID) (*models.RegistrationPayment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM registration_payments
		WHERE user_id = $1 AND status = 'PENDING'`
	return scanPayment(r.db.QueryRow(query, userID))
}

// GetByOrderRef looks a payment up by the gateway order id
func (r *PaymentRepository) GetByOrderRef(orderID string) (*models.RegistrationPayment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM registration_payments
		WHERE gateway_ref = $1`
	return scanPayment(r.db.QueryRow(query, orderID))
}

// GetLatestByUser returns the user's most recent payment in any status
func (r *PaymentRepository) GetLatestByUser(userID uuid.UUID) (*models.RegistrationPayment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM registration_payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return scanPayment(r.db.QueryRow(query, userID))
}

// UpdateOrder refreshes the gateway order on an existing PENDING row, used
// when the user re-requests an order before paying
func (r *PaymentRepository) UpdateOrder(id int64, orderID string) error {
	query := `
		UPDATE registration_payments
		SET gateway_ref = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = 'PENDING'
	`
	result, err := r.db.Exec(query, orderID, id)
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

// MarkSuccess flips a PENDING payment to SUCCESS. The status guard makes a
// replayed callback return ErrStateChanged instead of double-applying.
func (r *PaymentRepository) MarkSuccess(id int64, paymentID string) error {
	return r.setStatus(id, models.PaymentSuccess, paymentID)
}

// MarkFailed records a failed attempt
func (r *PaymentRepository) MarkFailed(id int64, paymentID string) error {
	return r.setStatus(id, models.PaymentFailed, paymentID)
}

func (r *PaymentRepository) setStatus(id int64, status models.PaymentStatus, paymentID string) error {
	query := `
		UPDATE registration_payments
		SET status = $1, gateway_payment_id = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = 'PENDING'
	`
	result, err := r.db.Exec(query, status, paymentID, id)
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
