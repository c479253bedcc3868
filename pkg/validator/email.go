package validator

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	// ErrEmptyEmail indicates the email address is empty
	ErrEmptyEmail = errors.New("email address cannot be empty")

	// ErrInvalidEmail indicates the email address is malformed
	ErrInvalidEmail = errors.New("invalid email address")
)

// EmailValidator handles email address validation
type EmailValidator struct{}

// NewEmailValidator creates a new email validator instance
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{}
}

// Validate validates an email address and returns it lowercased and trimmed
func (v *EmailValidator) Validate(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", ErrEmptyEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return email, nil
}

// IsValid is a convenience method that returns true if the email is valid
func (v *EmailValidator) IsValid(email string) bool {
	_, err := v.Validate(email)
	return err == nil
}
