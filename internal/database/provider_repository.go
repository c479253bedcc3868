package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

const providerColumns = `
	id, user_id, application_id, whatsapp_number, business_name, experience,
	business_address, COALESCE(city_id, 0) AS city_id, pincode, service_description,
	aadhaar_front, aadhaar_back, address_proof_type, address_proof,
	profile_photo, skill_certificate,
	verification_status, verified_by, verification_date, rejection_reason,
	submitted_at, created_at, updated_at`

// ProviderRepository handles database operations for service_providers and
// the taxonomy join tables
type ProviderRepository struct {
	db DB
}

// NewProviderRepository creates a new ProviderRepository
func NewProviderRepository(db DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

func scanProvider(row *sql.Row) (*models.ServiceProvider, error) {
	p := &models.ServiceProvider{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.ApplicationID, &p.WhatsappNumber, &p.BusinessName, &p.Experience,
		&p.BusinessAddress, &p.CityID, &p.Pincode, &p.ServiceDescription,
		&p.AadhaarFront, &p.AadhaarBack, &p.AddressProofType, &p.AddressProof,
		&p.ProfilePhoto, &p.SkillCertificate,
		&p.VerificationStatus, &p.VerifiedBy, &p.VerificationDate, &p.RejectionReason,
		&p.SubmittedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// NextApplicationID computes the next BA-PRV-<year>-NNNNN identifier by
// scanning the existing rows for the year. The sequence resets each year.
func (r *ProviderRepository) NextApplicationID(year int) (string, error) {
	prefix := fmt.Sprintf("BA-PRV-%d-", year)

	var last sql.NullString
	query := `
		SELECT MAX(application_id)
		FROM service_providers
		WHERE application_id LIKE $1
	`
	if err := r.db.QueryRow(query, prefix+"%").Scan(&last); err != nil {
		return "", err
	}

	seq := 1
	if last.Valid {
		parts := strings.Split(last.String, "-")
		n, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			return "", fmt.Errorf("malformed application id %q: %w", last.String, err)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

// Create inserts a new provider application row
func (r *ProviderRepository) Create(p *models.ServiceProvider) (*models.ServiceProvider, error) {
	query := `
		INSERT INTO service_providers (
			user_id, application_id, whatsapp_number, business_name, experience,
			business_address, city_id, pincode, service_description,
			aadhaar_front, aadhaar_back, address_proof_type, address_proof,
			profile_photo, skill_certificate, verification_status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, 0), $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING` + providerColumns

	row := r.db.QueryRow(query,
		p.UserID, p.ApplicationID, p.WhatsappNumber, p.BusinessName, p.Experience,
		p.BusinessAddress, p.CityID, p.Pincode, p.ServiceDescription,
		p.AadhaarFront, p.AadhaarBack, p.AddressProofType, p.AddressProof,
		p.ProfilePhoto, p.SkillCertificate, p.VerificationStatus,
	)
	created, err := scanProvider(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// Update persists the mutable application fields and the decision columns
func (r *ProviderRepository) Update(p *models.ServiceProvider) error {
	query := `
		UPDATE service_providers SET
			whatsapp_number = $2, business_name = $3, experience = $4,
			business_address = $5, city_id = NULLIF($6, 0), pincode = $7,
			service_description = $8,
			aadhaar_front = $9, aadhaar_back = $10,
			address_proof_type = $11, address_proof = $12,
			profile_photo = $13, skill_certificate = $14,
			verification_status = $15, verified_by = $16,
			verification_date = $17, rejection_reason = $18,
			submitted_at = $19, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(query,
		p.ID, p.WhatsappNumber, p.BusinessName, p.Experience,
		p.BusinessAddress, p.CityID, p.Pincode,
		p.ServiceDescription,
		p.AadhaarFront, p.AadhaarBack,
		p.AddressProofType, p.AddressProof,
		p.ProfilePhoto, p.SkillCertificate,
		p.VerificationStatus, p.VerifiedBy,
		p.VerificationDate, p.RejectionReason,
		p.SubmittedAt,
	)
	return err
}

// TransitionStatus applies a compare-and-set status change. It returns
// ErrStateChanged when the row is no longer in the expected state, which
// closes the race between two concurrent submit/verify calls.
var ErrStateChanged = fmt.Errorf("application state changed concurrently")

func (r *ProviderRepository) TransitionStatus(p *models.ServiceProvider, expected models.ApplicationStatus) error {
	query := `
		UPDATE service_providers SET
			verification_status = $3, verified_by = $4, verification_date = $5,
			rejection_reason = $6, submitted_at = $7, updated_at = NOW()
		WHERE id = $1 AND verification_status = $2
	`
	res, err := r.db.Exec(query,
		p.ID, expected,
		p.VerificationStatus, p.VerifiedBy, p.VerificationDate,
		p.RejectionReason, p.SubmittedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateChanged
	}
	return nil
}

// GetByID retrieves a provider application with its taxonomy selections
func (r *ProviderRepository) GetByID(id int64) (*models.ServiceProvider, error) {
	query := `SELECT` + providerColumns + ` FROM service_providers WHERE id = $1`
	p, err := scanProvider(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadTaxonomy(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByUserID retrieves a provider application by owning user
func (r *ProviderRepository) GetByUserID(userID uuid.UUID) (*models.ServiceProvider, error) {
	query := `SELECT` + providerColumns + ` FROM service_providers WHERE user_id = $1`
	p, err := scanProvider(r.db.QueryRow(query, userID))
	if err != nil {
		return nil, err
	}
	if err := r.loadTaxonomy(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByStatus lists applications in a given state, newest submission first
func (r *ProviderRepository) ListByStatus(status models.ApplicationStatus) ([]*models.ServiceProvider, error) {
	query := `SELECT` + providerColumns + `
		FROM service_providers
		WHERE verification_status = $1
		ORDER BY submitted_at DESC NULLS LAST`

	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*models.ServiceProvider
	for rows.Next() {
		p := &models.ServiceProvider{}
		err := rows.Scan(
			&p.ID, &p.UserID, &p.ApplicationID, &p.WhatsappNumber, &p.BusinessName, &p.Experience,
			&p.BusinessAddress, &p.CityID, &p.Pincode, &p.ServiceDescription,
			&p.AadhaarFront, &p.AadhaarBack, &p.AddressProofType, &p.AddressProof,
			&p.ProfilePhoto, &p.SkillCertificate,
			&p.VerificationStatus, &p.VerifiedBy, &p.VerificationDate, &p.RejectionReason,
			&p.SubmittedAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range providers {
		if err := r.loadTaxonomy(p); err != nil {
			return nil, err
		}
	}
	return providers, nil
}

// SearchVerified returns VERIFIED providers matching any of the given
// category/type/area id sets. Empty sets are ignored.
func (r *ProviderRepository) SearchVerified(categoryIDs, typeIDs, areaIDs []int64) ([]*models.ServiceProvider, error) {
	query := `
		SELECT DISTINCT
			p.id, p.user_id, p.application_id, p.whatsapp_number, p.business_name, p.experience,
			p.business_address, COALESCE(p.city_id, 0) AS city_id, p.pincode, p.service_description,
			p.aadhaar_front, p.aadhaar_back, p.address_proof_type, p.address_proof,
			p.profile_photo, p.skill_certificate,
			p.verification_status, p.verified_by, p.verification_date, p.rejection_reason,
			p.submitted_at, p.created_at, p.updated_at
		FROM service_providers p
		LEFT JOIN provider_service_categories pc ON pc.provider_id = p.id
		LEFT JOIN provider_service_types pt ON pt.provider_id = p.id
		LEFT JOIN provider_service_areas pa ON pa.provider_id = p.id
		WHERE p.verification_status = 'VERIFIED'
			AND (cardinality($1::bigint[]) = 0 OR pc.category_id = ANY($1))
			AND (cardinality($2::bigint[]) = 0 OR pt.type_id = ANY($2))
			AND (cardinality($3::bigint[]) = 0 OR pa.area_id = ANY($3))
		ORDER BY p.id
	`
	rows, err := r.db.Query(query, pq.Array(categoryIDs), pq.Array(typeIDs), pq.Array(areaIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []*models.ServiceProvider
	for rows.Next() {
		p := &models.ServiceProvider{}
		err := rows.Scan(
			&p.ID, &p.UserID, &p.ApplicationID, &p.WhatsappNumber, &p.BusinessName, &p.Experience,
			&p.BusinessAddress, &p.CityID, &p.Pincode, &p.ServiceDescription,
			&p.AadhaarFront, &p.AadhaarBack, &p.AddressProofType, &p.AddressProof,
			&p.ProfilePhoto, &p.SkillCertificate,
			&p.VerificationStatus, &p.VerifiedBy, &p.VerificationDate, &p.RejectionReason,
			&p.SubmittedAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range providers {
		if err := r.loadTaxonomy(p); err != nil {
			return nil, err
		}
	}
	return providers, nil
}

// SetTaxonomy replaces the provider's taxonomy selections
func (r *ProviderRepository) SetTaxonomy(providerID int64, categoryIDs, typeIDs, areaIDs []int64) error {
	type link struct {
		table, column string
		ids           []int64
	}
	links := []link{
		{"provider_service_categories", "category_id", categoryIDs},
		{"provider_service_types", "type_id", typeIDs},
		{"provider_service_areas", "area_id", areaIDs},
	}
	for _, l := range links {
		if l.ids == nil {
			continue
		}
		if _, err := r.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE provider_id = $1`, l.table), providerID); err != nil {
			return err
		}
		for _, id := range l.ids {
			query := fmt.Sprintf(`INSERT INTO %s (provider_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, l.table, l.column)
			if _, err := r.db.Exec(query, providerID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *ProviderRepository) loadTaxonomy(p *models.ServiceProvider) error {
	load := func(query string, id int64) ([]int64, error) {
		rows, err := r.db.Query(query, id)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		ids := []int64{}
		for rows.Next() {
			var v int64
			if err := rows.Scan(&v); err != nil {
				return nil, err
			}
			ids = append(ids, v)
		}
		return ids, rows.Err()
	}

	var err error
	if p.CategoryIDs, err = load(`SELECT category_id FROM provider_service_categories WHERE provider_id = $1 ORDER BY category_id`, p.ID); err != nil {
		return err
	}
	if p.TypeIDs, err = load(`SELECT type_id FROM provider_service_types WHERE provider_id = $1 ORDER BY type_id`, p.ID); err != nil {
		return err
	}
	if p.AreaIDs, err = load(`SELECT area_id FROM provider_service_areas WHERE provider_id = $1 ORDER BY area_id`, p.ID); err != nil {
		return err
	}
	return nil
}
