package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var (
	// ErrApplicationNotFound indicates the user has no provider application
	ErrApplicationNotFound = fmt.Errorf("provider application not found")

	// ErrInvalidExperience indicates an unknown experience bucket
	ErrInvalidExperience = fmt.Errorf("invalid experience value")
)

// ApplicationService manages the provider application lifecycle: draft
// creation and edits, submission, and captain decisions.
type ApplicationService struct {
	providers *database.ProviderRepository
	taxonomy  *TaxonomyService
}

// NewApplicationService creates a new application service
func NewApplicationService(providers *database.ProviderRepository, taxonomy *TaxonomyService) *ApplicationService {
	return &ApplicationService{
		providers: providers,
		taxonomy:  taxonomy,
	}
}

// ProfileInput carries the editable application fields. Document paths are
// set only when a new file was uploaded; empty strings keep existing values.
type ProfileInput struct {
	WhatsappNumber     string
	BusinessName       string
	Experience         string
	BusinessAddress    string
	CityID             int64
	Pincode            string
	ServiceDescription string

	AadhaarFront     string
	AadhaarBack      string
	AddressProofType string
	AddressProof     string
	ProfilePhoto     string
	SkillCertificate string

	CategoryIDs []int64
	TypeIDs     []int64
	AreaIDs     []int64
}

// SaveProfile creates or updates the user's application draft. Editing a
// REJECTED application resets it to DRAFT and clears the earlier decision.
// Submission-gated applications (PENDING_VERIFICATION, VERIFIED) reject edits
// with a StateConflictError.
func (s *ApplicationService) SaveProfile(userID uuid.UUID, input *ProfileInput) (*models.ServiceProvider, error) {
	if input.Experience != "" && !models.ValidExperience(input.Experience) {
		return nil, ErrInvalidExperience
	}
	if err := s.taxonomy.ValidateSelection(input.CategoryIDs, input.TypeIDs, input.AreaIDs); err != nil {
		return nil, err
	}

	existing, err := s.providers.GetByUserID(userID)
	if err != nil && err != database.ErrNotFound {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	if existing == nil {
		return s.createDraft(userID, input)
	}

	if err := existing.MarkEdited(); err != nil {
		return nil, err
	}
	applyInput(existing, input)

	if err := s.providers.Update(existing); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	if err := s.providers.SetTaxonomy(existing.ID, input.CategoryIDs, input.TypeIDs, input.AreaIDs); err != nil {
		return nil, fmt.Errorf("failed to save taxonomy selections: %w", err)
	}
	existing.CategoryIDs = input.CategoryIDs
	existing.TypeIDs = input.TypeIDs
	existing.AreaIDs = input.AreaIDs

	return existing, nil
}

func (s *ApplicationService) createDraft(userID uuid.UUID, input *ProfileInput) (*models.ServiceProvider, error) {
	applicationID, err := s.providers.NextApplicationID(time.Now().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate application id: %w", err)
	}

	p := &models.ServiceProvider{
		UserID:             userID,
		ApplicationID:      applicationID,
		VerificationStatus: models.ApplicationDraft,
	}
	applyInput(p, input)

	created, err := s.providers.Create(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	if err := s.providers.SetTaxonomy(created.ID, input.CategoryIDs, input.TypeIDs, input.AreaIDs); err != nil {
		return nil, fmt.Errorf("failed to save taxonomy selections: %w", err)
	}
	created.CategoryIDs = input.CategoryIDs
	created.TypeIDs = input.TypeIDs
	created.AreaIDs = input.AreaIDs

	return created, nil
}

func applyInput(p *models.ServiceProvider, input *ProfileInput) {
	p.WhatsappNumber = input.WhatsappNumber
	p.BusinessName = input.BusinessName
	p.Experience = input.Experience
	p.BusinessAddress = input.BusinessAddress
	p.CityID = input.CityID
	p.Pincode = input.Pincode
	p.ServiceDescription = input.ServiceDescription

	// Documents are replace-only: an empty value keeps what is on file
	setDoc := func(dst *models.NullString, path string) {
		if path != "" {
			*dst = models.NewNullString(path)
		}
	}
	setDoc(&p.AadhaarFront, input.AadhaarFront)
	setDoc(&p.AadhaarBack, input.AadhaarBack)
	setDoc(&p.AddressProofType, input.AddressProofType)
	setDoc(&p.AddressProof, input.AddressProof)
	setDoc(&p.ProfilePhoto, input.ProfilePhoto)
	setDoc(&p.SkillCertificate, input.SkillCertificate)
}

// GetByUser returns the user's application with taxonomy selections loaded
func (s *ApplicationService) GetByUser(userID uuid.UUID) (*models.ServiceProvider, error) {
	p, err := s.providers.GetByUserID(userID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	return p, nil
}

// Submit moves the user's application from DRAFT/REJECTED into
// PENDING_VERIFICATION after the completeness check
func (s *ApplicationService) Submit(userID uuid.UUID) (*models.ServiceProvider, error) {
	p, err := s.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	expected := p.VerificationStatus
	if err := p.Submit(time.Now()); err != nil {
		return nil, err
	}
	if err := s.providers.TransitionStatus(p, expected); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPending returns applications awaiting a captain decision
func (s *ApplicationService) ListPending() ([]*models.ServiceProvider, error) {
	return s.providers.ListByStatus(models.ApplicationPendingVerification)
}

// Verify records a captain's approval of a pending application
func (s *ApplicationService) Verify(applicationID int64, captainID uuid.UUID) (*models.ServiceProvider, error) {
	return s.decide(applicationID, func(p *models.ServiceProvider) error {
		return p.Verify(captainID, time.Now())
	})
}

// Reject records a captain's rejection with a mandatory reason. The provider
// can edit and resubmit afterwards.
func (s *ApplicationService) Reject(applicationID int64, captainID uuid.UUID, reason string) (*models.ServiceProvider, error) {
	return s.decide(applicationID, func(p *models.ServiceProvider) error {
		return p.Reject(captainID, reason, time.Now())
	})
}

func (s *ApplicationService) decide(applicationID int64, transition func(*models.ServiceProvider) error) (*models.ServiceProvider, error) {
	p, err := s.providers.GetByID(applicationID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	expected := p.VerificationStatus
	if err := transition(p); err != nil {
		return nil, err
	}
	if err := s.providers.TransitionStatus(p, expected); err != nil {
		return nil, err
	}
	return p, nil
}

// SearchVerified returns verified providers matching the optional taxonomy
// filters. Empty filters match everything.
func (s *ApplicationService) SearchVerified(categoryIDs, typeIDs, areaIDs []int64) ([]*models.ServiceProvider, error) {
	return s.providers.SearchVerified(categoryIDs, typeIDs, areaIDs)
}
