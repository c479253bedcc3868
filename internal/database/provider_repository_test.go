package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var providerRows = []string{
	"id", "user_id", "application_id", "whatsapp_number", "business_name", "experience",
	"business_address", "city_id", "pincode", "service_description",
	"aadhaar_front", "aadhaar_back", "address_proof_type", "address_proof",
	"profile_photo", "skill_certificate",
	"verification_status", "verified_by", "verification_date", "rejection_reason",
	"submitted_at", "created_at", "updated_at",
}

func TestCreateProvider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProviderRepository(&mockDatabase{db: db})

	t.Run("Draft Without City", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		// Experience is a string bucket and an unset city binds through
		// NULLIF so the FK column gets NULL, not 0
		mock.ExpectQuery(`(?s)INSERT INTO service_providers.*NULLIF\(\$7, 0\)`).
			WithArgs(
				userID, "BA-PRV-2026-00001", "9876501234", "Sharma Electricals", models.Experience3To5,
				"12 MG Road", int64(0), "560001", "House wiring and repairs",
				models.NullString{}, models.NullString{}, models.NullString{}, models.NullString{},
				models.NullString{}, models.NullString{}, models.ApplicationDraft,
			).
			WillReturnRows(sqlmock.NewRows(providerRows).AddRow(
				int64(1), userID, "BA-PRV-2026-00001", "9876501234", "Sharma Electricals", "3_TO_5",
				"12 MG Road", int64(0), "560001", "House wiring and repairs",
				nil, nil, nil, nil,
				nil, nil,
				"DRAFT", nil, nil, nil,
				nil, now, now,
			))

		created, err := repo.Create(&models.ServiceProvider{
			UserID:             userID,
			ApplicationID:      "BA-PRV-2026-00001",
			WhatsappNumber:     "9876501234",
			BusinessName:       "Sharma Electricals",
			Experience:         models.Experience3To5,
			BusinessAddress:    "12 MG Road",
			Pincode:            "560001",
			ServiceDescription: "House wiring and repairs",
			VerificationStatus: models.ApplicationDraft,
		})
		require.NoError(t, err)
		assert.Equal(t, "3_TO_5", created.Experience)
		assert.Equal(t, int64(0), created.CityID)
		assert.False(t, created.AadhaarFront.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate User", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO service_providers`).
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Create(&models.ServiceProvider{
			UserID:             uuid.New(),
			ApplicationID:      "BA-PRV-2026-00002",
			VerificationStatus: models.ApplicationDraft,
		})
		assert.ErrorIs(t, err, ErrDuplicate)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProvider(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProviderRepository(&mockDatabase{db: db})

	t.Run("City Cleared Writes NULL", func(t *testing.T) {
		mock.ExpectExec(`(?s)UPDATE service_providers SET.*city_id = NULLIF\(\$6, 0\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Update(&models.ServiceProvider{
			ID:                 1,
			Experience:         models.Experience1To3,
			VerificationStatus: models.ApplicationDraft,
		})
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
