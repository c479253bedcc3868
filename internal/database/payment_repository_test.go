package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var paymentRows = []string{
	"id", "user_id", "amount", "status", "gateway_ref", "gateway_payment_id",
	"created_at", "updated_at",
}

func TestCreatePayment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(&mockDatabase{db: db})

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO registration_payments`).
		WithArgs(userID, 100.00, "PENDING", "order_reg_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(5), now, now))

	p := &models.RegistrationPayment{
		UserID:     userID,
		Amount:     100.00,
		Status:     models.PaymentPending,
		GatewayRef: models.NewNullString("order_reg_1"),
	}
	err = repo.Create(p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaymentSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(&mockDatabase{db: db})

	t.Run("Pending To Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registration_payments`).
			WithArgs("SUCCESS", "pay_abc", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkSuccess(5, "pay_abc")
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Replayed Callback", func(t *testing.T) {
		mock.ExpectExec(`UPDATE registration_payments`).
			WithArgs("SUCCESS", "pay_abc", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkSuccess(5, "pay_abc")
		assert.ErrorIs(t, err, ErrStateChanged)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPaymentByOrderRef(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(&mockDatabase{db: db})

	userID := uuid.New()
	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM registration_payments`).
			WithArgs("order_reg_1").
			WillReturnRows(sqlmock.NewRows(paymentRows).AddRow(
				int64(5), userID, 100.00, "PENDING", "order_reg_1", nil, now, now,
			))

		p, err := repo.GetByOrderRef("order_reg_1")
		require.NoError(t, err)
		assert.Equal(t, userID, p.UserID)
		assert.Equal(t, models.PaymentPending, p.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Order", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM registration_payments`).
			WithArgs("order_unknown").
			WillReturnRows(sqlmock.NewRows(paymentRows))

		p, err := repo.GetByOrderRef("order_unknown")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, p)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
