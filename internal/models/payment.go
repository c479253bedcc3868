package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus captures the registration payment lifecycle
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// RegistrationFee is the fixed one-time account activation fee in rupees
const RegistrationFee = 100.00

// RegistrationPayment is the one-time fee that activates an account.
// SUCCESS is only ever set by a signature-verified gateway callback.
type RegistrationPayment struct {
	ID               int64         `json:"id" db:"id"`
	UserID           uuid.UUID     `json:"user_id" db:"user_id"`
	Amount           float64       `json:"amount" db:"amount"`
	Status           PaymentStatus `json:"status" db:"status"`
	GatewayRef       NullString    `json:"gateway_ref" db:"gateway_ref"`
	GatewayPaymentID NullString    `json:"gateway_payment_id" db:"gateway_payment_id"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}
