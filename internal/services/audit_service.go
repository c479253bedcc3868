package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/utils"
)

// AuditService handles audit logging for security events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEvent represents a security event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID // Can be nil for pre-authentication events
	Action     string     // Action type (e.g., "login", "signature_mismatch")
	EntityType string     // Type of entity affected (e.g., "user", "payment")
	EntityID   string     // Identifier of the affected entity (can be empty)
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{} // Additional details stored as JSONB
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(userID *uuid.UUID, identifier, ipAddress, userAgent string, success bool, reason string) error {
	details := map[string]interface{}{
		"identifier":  identifier,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if !success && reason != "" {
		details["failure_reason"] = reason
	}

	action := "login_failed"
	if success {
		action = "login"
	}

	return s.logEvent(AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogRateLimitViolation logs a rate limit violation event
func (s *AuditService) LogRateLimitViolation(identifier, ipAddress, userAgent, limitType string, retryAfter time.Time) error {
	return s.logEvent(AuditEvent{
		Action:     "rate_limit_violation",
		EntityType: "rate_limit",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"identifier":  identifier,
			"limit_type":  limitType,
			"retry_after": retryAfter,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogSignatureMismatch logs a failed payment signature verification. These
// indicate either a forged callback or a client-side integration bug, so the
// gateway order id is kept for correlation.
func (s *AuditService) LogSignatureMismatch(userID *uuid.UUID, paymentKind, orderID, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:     userID,
		Action:     "signature_mismatch",
		EntityType: "payment",
		EntityID:   orderID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"payment_kind": paymentKind,
			"order_id":     orderID,
			"device_info":  utils.ParseUserAgent(userAgent),
		},
	})
}

// LogVerificationDecision logs a captain or admin decision on an application
func (s *AuditService) LogVerificationDecision(deciderID uuid.UUID, entityType, entityID, decision, reason, ipAddress, userAgent string) error {
	details := map[string]interface{}{
		"decision": decision,
	}
	if reason != "" {
		details["reason"] = reason
	}

	return s.logEvent(AuditEvent{
		UserID:     &deciderID,
		Action:     "verification_decision",
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogTokenRefresh logs a refresh token usage event
func (s *AuditService) LogTokenRefresh(userID uuid.UUID, ipAddress, userAgent string, success bool) error {
	action := "token_refresh_success"
	if !success {
		action = "token_refresh_failed"
	}

	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     action,
		EntityType: "token",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// logEvent is the internal method that writes to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	var entityID interface{}
	if event.EntityID != "" {
		entityID = event.EntityID
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err = s.db.Exec(query, event.UserID, event.Action, event.EntityType, entityID,
		event.IPAddress, event.UserAgent, details)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`
	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	return result.RowsAffected()
}
