package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

func TestPlanAmount(t *testing.T) {
	// 18% GST on top of the base price, rounded to paise
	assert.Equal(t, 234.82, PlanAmount(models.PlanMonthly))
	assert.Equal(t, 1768.82, PlanAmount(models.PlanYearly))
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"Plain Month", day(2026, time.March, 15), 1, day(2026, time.April, 15)},
		{"Jan 31 Clamps To Feb 28", day(2026, time.January, 31), 1, day(2026, time.February, 28)},
		{"Jan 31 Leap Year", day(2024, time.January, 31), 1, day(2024, time.February, 29)},
		{"May 31 Clamps To June 30", day(2026, time.May, 31), 1, day(2026, time.June, 30)},
		{"Year Rollover", day(2026, time.November, 20), 3, day(2027, time.February, 20)},
		{"Twelve Months", day(2026, time.August, 30), 12, day(2027, time.August, 30)},
		{"Feb 29 Plus Twelve", day(2024, time.February, 29), 12, day(2025, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, addMonths(tt.start, tt.months))
		})
	}
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		periodEnd(models.PlanMonthly, start))
	assert.Equal(t, time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC),
		periodEnd(models.PlanYearly, start))
}

func setupSubscriptionRequestTest(t *testing.T) (*SubscriptionService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gatewayServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_new","entity":"order","amount":23482,"currency":"INR","receipt":"r","status":"created"}`))
	}))

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gateway := NewRazorpayService(&config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "test_secret",
		BaseURL:   gatewayServer.URL,
		Currency:  "INR",
	}, logger)

	service := NewSubscriptionService(
		database.NewSubscriptionRepository(postgresDB),
		database.NewProviderRepository(postgresDB),
		gateway,
		NewAuditService(postgresDB),
		logger,
	)

	return service, mock, func() {
		gatewayServer.Close()
		db.Close()
	}
}

var testProviderRows = []string{
	"id", "user_id", "application_id", "whatsapp_number", "business_name", "experience",
	"business_address", "city_id", "pincode", "service_description",
	"aadhaar_front", "aadhaar_back", "address_proof_type", "address_proof",
	"profile_photo", "skill_certificate",
	"verification_status", "verified_by", "verification_date", "rejection_reason",
	"submitted_at", "created_at", "updated_at",
}

var testSubscriptionRows = []string{
	"id", "provider_id", "plan_type", "amount", "listing_slots", "status",
	"gateway_order_id", "gateway_payment_id", "start_date", "end_date",
	"created_at", "updated_at",
}

func expectVerifiedProvider(mock sqlmock.Sqlmock, userID uuid.UUID, providerID int64, now time.Time) {
	mock.ExpectQuery(`SELECT (.+) FROM service_providers WHERE user_id`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(testProviderRows).AddRow(
			providerID, userID, "BA-PRV-2026-00007", "9876501234", "Sharma Electricals", "3_TO_5",
			"12 MG Road", int64(3), "560001", "House wiring and repairs",
			"/u/f.jpg", "/u/b.jpg", "AADHAAR", "/u/p.jpg",
			"/u/ph.jpg", nil,
			"VERIFIED", uuid.New(), now, nil,
			now, now, now,
		))
	mock.ExpectQuery(`SELECT category_id FROM provider_service_categories`).
		WithArgs(providerID).
		WillReturnRows(sqlmock.NewRows([]string{"category_id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT type_id FROM provider_service_types`).
		WithArgs(providerID).
		WillReturnRows(sqlmock.NewRows([]string{"type_id"}).AddRow(int64(10)))
	mock.ExpectQuery(`SELECT area_id FROM provider_service_areas`).
		WithArgs(providerID).
		WillReturnRows(sqlmock.NewRows([]string{"area_id"}).AddRow(int64(20)))
}

func TestRequestSubscription(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	t.Run("Existing Pending Row Is Reused", func(t *testing.T) {
		service, mock, cleanup := setupSubscriptionRequestTest(t)
		defer cleanup()

		expectVerifiedProvider(mock, userID, 7, now)
		mock.ExpectQuery(`SELECT (.+) FROM provider_subscriptions(.+)status = 'PENDING'`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(testSubscriptionRows).AddRow(
				int64(42), int64(7), "MONTHLY", 234.82, 1, "PENDING",
				"order_old", nil, nil, nil, now, now,
			))
		mock.ExpectExec(`UPDATE provider_subscriptions`).
			WithArgs("YEARLY", 1768.82, 3, "order_new", int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		sub, err := service.Request(userID, models.PlanYearly)
		require.NoError(t, err)
		assert.Equal(t, int64(42), sub.ID)
		assert.Equal(t, "order_new", sub.GatewayOrderID.String)
		assert.Equal(t, models.SubscriptionPending, sub.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Concurrent Create Race Returns Winning Row", func(t *testing.T) {
		service, mock, cleanup := setupSubscriptionRequestTest(t)
		defer cleanup()

		expectVerifiedProvider(mock, userID, 7, now)
		mock.ExpectQuery(`SELECT (.+) FROM provider_subscriptions(.+)status = 'PENDING'`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(testSubscriptionRows))
		mock.ExpectQuery(`INSERT INTO provider_subscriptions`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectQuery(`SELECT (.+) FROM provider_subscriptions(.+)status = 'PENDING'`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(testSubscriptionRows).AddRow(
				int64(42), int64(7), "MONTHLY", 234.82, 1, "PENDING",
				"order_winner", nil, nil, nil, now, now,
			))

		sub, err := service.Request(userID, models.PlanMonthly)
		require.NoError(t, err)
		assert.Equal(t, int64(42), sub.ID)
		assert.Equal(t, "order_winner", sub.GatewayOrderID.String)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unverified Provider Is Refused", func(t *testing.T) {
		service, mock, cleanup := setupSubscriptionRequestTest(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT (.+) FROM service_providers WHERE user_id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(testProviderRows).AddRow(
				int64(7), userID, "BA-PRV-2026-00007", "9876501234", "Sharma Electricals", "3_TO_5",
				"12 MG Road", int64(3), "560001", "House wiring and repairs",
				nil, nil, nil, nil,
				nil, nil,
				"PENDING_VERIFICATION", nil, nil, nil,
				now, now, now,
			))
		mock.ExpectQuery(`SELECT category_id FROM provider_service_categories`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"category_id"}))
		mock.ExpectQuery(`SELECT type_id FROM provider_service_types`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"type_id"}))
		mock.ExpectQuery(`SELECT area_id FROM provider_service_areas`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"area_id"}))

		sub, err := service.Request(userID, models.PlanMonthly)
		assert.ErrorIs(t, err, ErrProviderNotVerified)
		assert.Nil(t, sub)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
