package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus represents the provider application verification state
type ApplicationStatus string

const (
	ApplicationDraft               ApplicationStatus = "DRAFT"
	ApplicationPendingVerification ApplicationStatus = "PENDING_VERIFICATION"
	ApplicationVerified            ApplicationStatus = "VERIFIED"
	ApplicationRejected            ApplicationStatus = "REJECTED"
)

// Experience buckets shown on the application form
const (
	ExperienceLessThan1  = "LESS_THAN_1"
	Experience1To3       = "1_TO_3"
	Experience3To5       = "3_TO_5"
	Experience5To10      = "5_TO_10"
	ExperienceMoreThan10 = "MORE_THAN_10"
)

// ValidExperience reports whether v is one of the known experience buckets
func ValidExperience(v string) bool {
	switch v {
	case ExperienceLessThan1, Experience1To3, Experience3To5, Experience5To10, ExperienceMoreThan10:
		return true
	}
	return false
}

// StateConflictError is returned when a transition is attempted from a state
// that does not allow it
type StateConflictError struct {
	Current ApplicationStatus
	Action  string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s application in %s state", e.Action, e.Current)
}

// MissingFieldsError carries the human-readable names of required fields that
// are still empty at submission time
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// ServiceProvider is the application record a provider submits for listing
// approval. Taxonomy selections are many-to-many and loaded from join tables.
type ServiceProvider struct {
	ID                 int64             `json:"id" db:"id"`
	UserID             uuid.UUID         `json:"user_id" db:"user_id"`
	ApplicationID      string            `json:"application_id" db:"application_id"`
	WhatsappNumber     string            `json:"whatsapp_number" db:"whatsapp_number"`
	BusinessName       string            `json:"business_name" db:"business_name"`
	Experience         string            `json:"experience" db:"experience"`
	BusinessAddress    string            `json:"business_address" db:"business_address"`
	CityID             int64             `json:"city_id" db:"city_id"`
	Pincode            string            `json:"pincode" db:"pincode"`
	ServiceDescription string            `json:"service_description" db:"service_description"`
	AadhaarFront       NullString        `json:"aadhaar_front" db:"aadhaar_front"`
	AadhaarBack        NullString        `json:"aadhaar_back" db:"aadhaar_back"`
	AddressProofType   NullString        `json:"address_proof_type" db:"address_proof_type"`
	AddressProof       NullString        `json:"address_proof" db:"address_proof"`
	ProfilePhoto       NullString        `json:"profile_photo" db:"profile_photo"`
	SkillCertificate   NullString        `json:"skill_certificate" db:"skill_certificate"`
	VerificationStatus ApplicationStatus `json:"verification_status" db:"verification_status"`
	VerifiedBy         NullUUID          `json:"verified_by,omitempty" db:"verified_by"`
	VerificationDate   NullTime          `json:"verification_date,omitempty" db:"verification_date"`
	RejectionReason    NullString        `json:"rejection_reason,omitempty" db:"rejection_reason"`
	SubmittedAt        NullTime          `json:"submitted_at,omitempty" db:"submitted_at"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`

	// Taxonomy selections (join tables, not columns)
	CategoryIDs []int64 `json:"category_ids" db:"-"`
	TypeIDs     []int64 `json:"type_ids" db:"-"`
	AreaIDs     []int64 `json:"area_ids" db:"-"`
}

// Editable reports whether the application can currently be modified.
// Applications are immutable between submission and a captain's decision.
func (p *ServiceProvider) Editable() bool {
	return p.VerificationStatus == ApplicationDraft || p.VerificationStatus == ApplicationRejected
}

// MarkEdited applies the edit transition: any allowed edit forces the
// application back to DRAFT and clears the previous decision, even if it was
// already DRAFT.
func (p *ServiceProvider) MarkEdited() error {
	if !p.Editable() {
		return &StateConflictError{Current: p.VerificationStatus, Action: "edit"}
	}
	p.VerificationStatus = ApplicationDraft
	p.RejectionReason = NullString{}
	p.VerifiedBy = NullUUID{}
	p.VerificationDate = NullTime{}
	return nil
}

// Submit transitions the application to PENDING_VERIFICATION. It fails with a
// StateConflictError outside DRAFT/REJECTED and with a MissingFieldsError when
// any required field or taxonomy selection is empty.
func (p *ServiceProvider) Submit(now time.Time) error {
	if !p.Editable() {
		return &StateConflictError{Current: p.VerificationStatus, Action: "submit"}
	}
	if missing := p.missingFields(); len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	p.VerificationStatus = ApplicationPendingVerification
	p.SubmittedAt = NewNullTime(now)
	p.RejectionReason = NullString{}
	return nil
}

// Verify transitions PENDING_VERIFICATION → VERIFIED, stamping the captain
// and decision time
func (p *ServiceProvider) Verify(captainID uuid.UUID, now time.Time) error {
	if p.VerificationStatus != ApplicationPendingVerification {
		return &StateConflictError{Current: p.VerificationStatus, Action: "verify"}
	}
	p.VerificationStatus = ApplicationVerified
	p.VerifiedBy = NullUUID{UUID: captainID, Valid: true}
	p.VerificationDate = NewNullTime(now)
	return nil
}

// Reject transitions PENDING_VERIFICATION → REJECTED with a required reason
func (p *ServiceProvider) Reject(captainID uuid.UUID, reason string, now time.Time) error {
	if p.VerificationStatus != ApplicationPendingVerification {
		return &StateConflictError{Current: p.VerificationStatus, Action: "reject"}
	}
	if strings.TrimSpace(reason) == "" {
		return &MissingFieldsError{Fields: []string{"Rejection Reason"}}
	}
	p.VerificationStatus = ApplicationRejected
	p.VerifiedBy = NullUUID{UUID: captainID, Valid: true}
	p.VerificationDate = NewNullTime(now)
	p.RejectionReason = NewNullString(reason)
	return nil
}

func (p *ServiceProvider) missingFields() []string {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("Whatsapp Number", p.WhatsappNumber)
	require("Business Name", p.BusinessName)
	require("Experience", p.Experience)
	require("Business Address", p.BusinessAddress)
	if p.CityID == 0 {
		missing = append(missing, "City")
	}
	require("Pincode", p.Pincode)
	require("Service Description", p.ServiceDescription)
	require("Aadhaar Front", p.AadhaarFront.String)
	require("Aadhaar Back", p.AadhaarBack.String)
	require("Address Proof Type", p.AddressProofType.String)
	require("Address Proof", p.AddressProof.String)
	require("Profile Photo", p.ProfilePhoto.String)
	if len(p.CategoryIDs) == 0 {
		missing = append(missing, "Service Categories")
	}
	if len(p.TypeIDs) == 0 {
		missing = append(missing, "Service Types")
	}
	if len(p.AreaIDs) == 0 {
		missing = append(missing, "Service Areas")
	}
	return missing
}
