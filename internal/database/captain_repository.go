package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

// CaptainRepository handles captain_profiles, the document record behind a
// captain's admin verification
type CaptainRepository struct {
	db DB
}

// NewCaptainRepository creates a new CaptainRepository
func NewCaptainRepository(db DB) *CaptainRepository {
	return &CaptainRepository{db: db}
}

const captainColumns = `id, user_id, phone, aadhaar_front, aadhaar_back,
	verification_status, verified_by, verification_date, rejection_reason, created_at, updated_at`

func scanCaptainProfile(row *sql.Row) (*models.CaptainProfile, error) {
	p := &models.CaptainProfile{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Phone, &p.AadhaarFront, &p.AadhaarBack,
		&p.VerificationStatus, &p.VerifiedBy, &p.VerificationDate, &p.RejectionReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Upsert stores a captain's documents. A resubmission replaces the documents
// and resets the profile to PENDING, clearing any earlier decision.
func (r *CaptainRepository) Upsert(p *models.CaptainProfile) error {
	query := `
		INSERT INTO captain_profiles (user_id, phone, aadhaar_front, aadhaar_back, verification_status)
		VALUES ($1, $2, $3, $4, 'PENDING')
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			aadhaar_front = EXCLUDED.aadhaar_front,
			aadhaar_back = EXCLUDED.aadhaar_back,
			verification_status = 'PENDING',
			verified_by = NULL,
			verification_date = NULL,
			rejection_reason = NULL,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(query, p.UserID, p.Phone, p.AadhaarFront, p.AadhaarBack).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByUserID returns the captain profile for a user
func (r *CaptainRepository) GetByUserID(userID uuid.UUID) (*models.CaptainProfile, error) {
	query := `SELECT ` + captainColumns + `
		FROM captain_profiles
		WHERE user_id = $1`
	return scanCaptainProfile(r.db.QueryRow(query, userID))
}

// ListPending returns profiles awaiting an admin decision, oldest first
func (r *CaptainRepository) ListPending() ([]models.CaptainProfile, error) {
	query := `SELECT ` + captainColumns + `
		FROM captain_profiles
		WHERE verification_status = 'PENDING'
		ORDER BY created_at ASC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.CaptainProfile
	for rows.Next() {
		var p models.CaptainProfile
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Phone, &p.AadhaarFront, &p.AadhaarBack,
			&p.VerificationStatus, &p.VerifiedBy, &p.VerificationDate, &p.RejectionReason,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Decide records an admin's verdict on a PENDING profile. The status guard
// returns ErrStateChanged when the profile was already decided.
func (r *CaptainRepository) Decide(userID uuid.UUID, status models.CaptainVerificationStatus, adminID uuid.UUID, reason string, now time.Time) error {
	query := `
		UPDATE captain_profiles
		SET verification_status = $1, verified_by = $2, verification_date = $3,
			rejection_reason = NULLIF($4, ''), updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $5 AND verification_status = 'PENDING'
	`
	result, err := r.db.Exec(query, status, adminID, now, reason, userID)
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
