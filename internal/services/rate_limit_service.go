package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
)

// RateLimitService throttles login attempts and AI guide requests. Counters
// live in the database so limits hold across instances.
type RateLimitService struct {
	db  database.DB
	cfg *config.RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, cfg *config.RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:  db,
		cfg: cfg,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "login" or "guide"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginLimit checks if an identifier (phone/email) or IP has exceeded
// the login attempt limit
func (s *RateLimitService) CheckLoginLimit(identifier, ip string) error {
	window := time.Duration(s.cfg.LoginWindowMinutes) * time.Minute
	return s.check("login", identifier, ip, s.cfg.LoginMaxAttempts, window,
		"Too many login attempts. Please try again after %s")
}

// RecordLoginAttempt records a failed login attempt for rate limiting.
// Successful logins are not counted.
func (s *RateLimitService) RecordLoginAttempt(identifier, ip string) error {
	return s.record("login", identifier, ip)
}

// CheckGuideLimit checks if a user or IP has exceeded the AI guide request limit
func (s *RateLimitService) CheckGuideLimit(identifier, ip string) error {
	window := time.Duration(s.cfg.GuideWindowMinutes) * time.Minute
	return s.check("guide", identifier, ip, s.cfg.GuideMaxRequests, window,
		"Too many guide requests. Please try again after %s")
}

// RecordGuideRequest records an AI guide request for rate limiting
func (s *RateLimitService) RecordGuideRequest(identifier, ip string) error {
	return s.record("guide", identifier, ip)
}

func (s *RateLimitService) check(limitType, identifier, ip string, max int, window time.Duration, messageFormat string) error {
	for _, key := range []string{identifier, ip} {
		if key == "" {
			continue
		}
		count, lastRequest, err := s.getRequestCount(limitType, key, window)
		if err != nil {
			return fmt.Errorf("failed to check %s rate limit: %w", limitType, err)
		}
		if count >= max {
			retryAfter := lastRequest.Add(window)
			return &RateLimitError{
				Message:    fmt.Sprintf(messageFormat, retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       limitType,
			}
		}
	}
	return nil
}

// getRequestCount gets the number of requests within the time window
func (s *RateLimitService) getRequestCount(limitType, identifier string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM rate_limit_events
		WHERE limit_type = $1
		  AND identifier = $2
		  AND created_at > $3
	`

	var count int
	var lastRequest time.Time

	err := s.db.QueryRow(query, limitType, identifier, windowStart).Scan(&count, &lastRequest)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastRequest, nil
}

func (s *RateLimitService) record(limitType, identifier, ip string) error {
	for _, key := range []string{identifier, ip} {
		if key == "" {
			continue
		}
		query := `
			INSERT INTO rate_limit_events (limit_type, identifier, created_at)
			VALUES ($1, $2, NOW())
		`
		if _, err := s.db.Exec(query, limitType, key); err != nil {
			return fmt.Errorf("failed to record %s request: %w", limitType, err)
		}
	}
	return nil
}

// CleanupOldEvents removes rate limit records older than the given duration
func (s *RateLimitService) CleanupOldEvents(olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query := `
		DELETE FROM rate_limit_events
		WHERE created_at < $1
	`
	result, err := s.db.Exec(query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limit events: %w", err)
	}

	return result.RowsAffected()
}
