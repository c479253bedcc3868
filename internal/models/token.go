package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a stored refresh token. Only the SHA-256 hash of the token
// is persisted.
type RefreshToken struct {
	ID         int64      `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash  string     `json:"-" db:"token_hash"`
	DeviceType NullString `json:"device_type" db:"device_type"`
	IPAddress  NullString `json:"ip_address" db:"ip_address"`
	UserAgent  NullString `json:"-" db:"user_agent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	LastUsedAt NullTime   `json:"last_used_at" db:"last_used_at"`
	Revoked    bool       `json:"revoked" db:"revoked"`
	RevokedAt  NullTime   `json:"revoked_at" db:"revoked_at"`
}
