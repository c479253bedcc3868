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

func TestUpsertCaptainProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCaptainRepository(&mockDatabase{db: db})

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO captain_profiles`).
		WithArgs(userID, "9876543210", "/uploads/front.jpg", "/uploads/back.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(3), now, now))

	p := &models.CaptainProfile{
		UserID:       userID,
		Phone:        "9876543210",
		AadhaarFront: "/uploads/front.jpg",
		AadhaarBack:  "/uploads/back.jpg",
	}
	err = repo.Upsert(p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideCaptainProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCaptainRepository(&mockDatabase{db: db})

	userID := uuid.New()
	adminID := uuid.New()
	now := time.Now()

	t.Run("Verify Pending", func(t *testing.T) {
		mock.ExpectExec(`UPDATE captain_profiles`).
			WithArgs("VERIFIED", adminID, now, "", userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Decide(userID, models.CaptainVerificationVerified, adminID, "", now)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Decided", func(t *testing.T) {
		mock.ExpectExec(`UPDATE captain_profiles`).
			WithArgs("REJECTED", adminID, now, "documents unreadable", userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Decide(userID, models.CaptainVerificationRejected, adminID, "documents unreadable", now)
		assert.ErrorIs(t, err, ErrStateChanged)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
