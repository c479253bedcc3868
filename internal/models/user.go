package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// NewNullString returns a valid NullString holding s
func NewNullString(s string) NullString {
	return NullString{NullString: sql.NullString{String: s, Valid: true}}
}

// NewNullTime returns a valid NullTime holding t
func NewNullTime(t time.Time) NullTime {
	return NullTime{NullTime: sql.NullTime{Time: t, Valid: true}}
}

// NullUUID wraps a uuid column that may be absent
type NullUUID struct {
	UUID  uuid.UUID
	Valid bool
}

// MarshalJSON implements json.Marshaler
func (nu NullUUID) MarshalJSON() ([]byte, error) {
	if nu.Valid {
		return json.Marshal(nu.UUID.String())
	}
	return json.Marshal(nil)
}

// Value implements the driver.Valuer interface
func (nu NullUUID) Value() (driver.Value, error) {
	if !nu.Valid {
		return nil, nil
	}
	return nu.UUID.String(), nil
}

// Scan implements the sql.Scanner interface
func (nu *NullUUID) Scan(value interface{}) error {
	if value == nil {
		nu.UUID, nu.Valid = uuid.Nil, false
		return nil
	}
	switch v := value.(type) {
	case []byte:
		id, err := uuid.Parse(string(v))
		if err != nil {
			return err
		}
		nu.UUID, nu.Valid = id, true
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		nu.UUID, nu.Valid = id, true
	}
	return nil
}

// User represents an account in the system. Accounts start inactive and are
// activated by a successful registration payment. Captain accounts are
// additionally gated by admin document verification before they can log in.
type User struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Phone         NullString `json:"phone" db:"phone"`
	Email         NullString `json:"email" db:"email"`
	Name          string     `json:"name" db:"name"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	IsAdmin       bool       `json:"is_admin" db:"is_admin"`
	IsCaptain     bool       `json:"is_captain" db:"is_captain"`
	IsUser        bool       `json:"is_user" db:"is_user"`
	CaptainCode   NullString `json:"captain_code,omitempty" db:"captain_code"`
	AdminVerified bool       `json:"admin_verified" db:"admin_verified"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// Roles returns the role names carried in JWT claims
func (u *User) Roles() []string {
	roles := make([]string, 0, 3)
	if u.IsAdmin {
		roles = append(roles, "admin")
	}
	if u.IsCaptain {
		roles = append(roles, "captain")
	}
	if u.IsUser {
		roles = append(roles, "user")
	}
	return roles
}

// CaptainVerificationStatus represents the captain document review state
type CaptainVerificationStatus string

const (
	CaptainVerificationPending  CaptainVerificationStatus = "PENDING"
	CaptainVerificationVerified CaptainVerificationStatus = "VERIFIED"
	CaptainVerificationRejected CaptainVerificationStatus = "REJECTED"
)

// CaptainProfile holds the identity documents a captain submits for admin review
type CaptainProfile struct {
	ID                 int64                     `json:"id" db:"id"`
	UserID             uuid.UUID                 `json:"user_id" db:"user_id"`
	Phone              string                    `json:"phone" db:"phone"`
	AadhaarFront       string                    `json:"aadhaar_front" db:"aadhaar_front"`
	AadhaarBack        string                    `json:"aadhaar_back" db:"aadhaar_back"`
	VerificationStatus CaptainVerificationStatus `json:"verification_status" db:"verification_status"`
	VerifiedBy         NullUUID                  `json:"verified_by,omitempty" db:"verified_by"`
	VerificationDate   NullTime                  `json:"verification_date,omitempty" db:"verification_date"`
	RejectionReason    NullString                `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt          time.Time                 `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time                 `json:"updated_at" db:"updated_at"`
}
