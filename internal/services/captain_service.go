package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/models"
)

var (
	// ErrCaptainNotFound indicates no captain account matches the code
	ErrCaptainNotFound = fmt.Errorf("captain not found")

	// ErrNotACaptain indicates the account exists but is not a captain
	ErrNotACaptain = fmt.Errorf("account is not a captain")

	// ErrProfileNotFound indicates the captain has not submitted documents
	ErrProfileNotFound = fmt.Errorf("captain profile not found")

	// ErrAlreadyDecided indicates the profile already has an admin decision
	ErrAlreadyDecided = fmt.Errorf("captain profile already decided")

	// ErrReasonRequired indicates a rejection was attempted without a reason
	ErrReasonRequired = fmt.Errorf("rejection reason is required")
)

// CaptainService manages captain document submission and admin verification.
// Captains cannot log in before verification, so document submission is keyed
// by captain code rather than by an authenticated session.
type CaptainService struct {
	captains *database.CaptainRepository
	users    *database.UserRepository
	audit    *AuditService
	logger   *logrus.Logger
}

// NewCaptainService creates a new captain service
func NewCaptainService(captains *database.CaptainRepository, users *database.UserRepository, audit *AuditService, logger *logrus.Logger) *CaptainService {
	return &CaptainService{
		captains: captains,
		users:    users,
		audit:    audit,
		logger:   logger,
	}
}

// SubmitDocuments records a captain's verification documents. Resubmission
// replaces the documents and resets any earlier decision to PENDING.
func (s *CaptainService) SubmitDocuments(captainCode, phone, aadhaarFront, aadhaarBack string) (*models.CaptainProfile, error) {
	code := strings.ToUpper(strings.TrimSpace(captainCode))

	user, err := s.users.GetByCaptainCode(code)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrCaptainNotFound
		}
		return nil, fmt.Errorf("failed to load captain: %w", err)
	}
	if !user.IsCaptain {
		return nil, ErrNotACaptain
	}

	profile := &models.CaptainProfile{
		UserID:             user.ID,
		Phone:              phone,
		AadhaarFront:       aadhaarFront,
		AadhaarBack:        aadhaarBack,
		VerificationStatus: models.CaptainVerificationPending,
	}
	if err := s.captains.Upsert(profile); err != nil {
		return nil, fmt.Errorf("failed to save captain profile: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Captain documents submitted")

	return profile, nil
}

// ListPending returns captain profiles awaiting an admin decision
func (s *CaptainService) ListPending() ([]models.CaptainProfile, error) {
	return s.captains.ListPending()
}

// Verify approves a pending captain: the profile is marked VERIFIED and the
// account's admin_verified gate opens, allowing login
func (s *CaptainService) Verify(captainUserID, adminID uuid.UUID, ipAddress, userAgent string) (*models.CaptainProfile, error) {
	if err := s.captains.Decide(captainUserID, models.CaptainVerificationVerified, adminID, "", time.Now()); err != nil {
		return nil, s.decisionError(captainUserID, err)
	}
	if err := s.users.SetAdminVerified(captainUserID, true); err != nil {
		return nil, fmt.Errorf("failed to mark captain verified: %w", err)
	}

	_ = s.audit.LogVerificationDecision(adminID, "captain", captainUserID.String(), "verified", "", ipAddress, userAgent)

	return s.captains.GetByUserID(captainUserID)
}

// Reject declines a pending captain with a mandatory reason. The captain can
// resubmit documents afterwards.
func (s *CaptainService) Reject(captainUserID, adminID uuid.UUID, reason, ipAddress, userAgent string) (*models.CaptainProfile, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	if err := s.captains.Decide(captainUserID, models.CaptainVerificationRejected, adminID, reason, time.Now()); err != nil {
		return nil, s.decisionError(captainUserID, err)
	}

	_ = s.audit.LogVerificationDecision(adminID, "captain", captainUserID.String(), "rejected", reason, ipAddress, userAgent)

	return s.captains.GetByUserID(captainUserID)
}

func (s *CaptainService) decisionError(captainUserID uuid.UUID, err error) error {
	if err == database.ErrStateChanged {
		// Distinguish "never submitted" from "already decided"
		if _, getErr := s.captains.GetByUserID(captainUserID); getErr == database.ErrNotFound {
			return ErrProfileNotFound
		}
		return ErrAlreadyDecided
	}
	return fmt.Errorf("failed to record decision: %w", err)
}

// Status returns the captain's profile for the given code, used by captains
// polling their verification state before they can log in
func (s *CaptainService) Status(captainCode string) (*models.CaptainProfile, error) {
	code := strings.ToUpper(strings.TrimSpace(captainCode))

	user, err := s.users.GetByCaptainCode(code)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrCaptainNotFound
		}
		return nil, fmt.Errorf("failed to load captain: %w", err)
	}

	profile, err := s.captains.GetByUserID(user.ID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load captain profile: %w", err)
	}
	return profile, nil
}
