package models

import "time"

// SubscriptionPlan represents the billing plan a provider picked
type SubscriptionPlan string

const (
	PlanMonthly SubscriptionPlan = "MONTHLY"
	PlanYearly  SubscriptionPlan = "YEARLY"
)

// SubscriptionStatus captures the subscription lifecycle
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "PENDING"
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionExpired   SubscriptionStatus = "EXPIRED"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
)

// Plan pricing. Amounts are in rupees; the charged total adds 18% GST.
const (
	MonthlyBasePrice = 199.00
	YearlyBasePrice  = 1499.00
	GSTRate          = 0.18

	MonthlyListingSlots = 1
	YearlyListingSlots  = 3
)

// ValidPlan reports whether p is a known plan
func ValidPlan(p SubscriptionPlan) bool {
	return p == PlanMonthly || p == PlanYearly
}

// PlanBasePrice returns the pre-tax price for a plan
func PlanBasePrice(p SubscriptionPlan) float64 {
	if p == PlanYearly {
		return YearlyBasePrice
	}
	return MonthlyBasePrice
}

// PlanListingSlots returns the listing-slot grant for a plan
func PlanListingSlots(p SubscriptionPlan) int {
	if p == PlanYearly {
		return YearlyListingSlots
	}
	return MonthlyListingSlots
}

// ProviderSubscription tracks a paid listing period for a provider.
// There is no expiry job: "currently active" is always derived at read time
// as status=ACTIVE AND end_date >= now.
type ProviderSubscription struct {
	ID               int64              `json:"id" db:"id"`
	ProviderID       int64              `json:"provider_id" db:"provider_id"`
	PlanType         SubscriptionPlan   `json:"plan_type" db:"plan_type"`
	Amount           float64            `json:"amount" db:"amount"`
	ListingSlots     int                `json:"listing_slots" db:"listing_slots"`
	Status           SubscriptionStatus `json:"status" db:"status"`
	GatewayOrderID   NullString         `json:"gateway_order_id" db:"gateway_order_id"`
	GatewayPaymentID NullString         `json:"gateway_payment_id" db:"gateway_payment_id"`
	StartDate        NullTime           `json:"start_date" db:"start_date"`
	EndDate          NullTime           `json:"end_date" db:"end_date"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}
