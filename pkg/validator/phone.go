package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid Indian mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 6, 7, 8, or 9")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates an Indian mobile number.
// Accepts format: 9876543210, +91 98765 43210, 098765-43210
// Returns sanitized phone number (10 digits) and error if invalid
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	if !v.IsValidPrefix(sanitized) {
		return "", ErrInvalidPrefix
	}

	return sanitized, nil
}

// Sanitize removes separators and the country code from a phone number
func (v *PhoneValidator) Sanitize(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	// Strip country code (91) or trunk prefix (0)
	if strings.HasPrefix(phone, "91") && len(phone) == 12 {
		phone = phone[2:]
	}
	if strings.HasPrefix(phone, "0") && len(phone) == 11 {
		phone = phone[1:]
	}

	return phone
}

// IsValidPrefix checks if the number starts with a valid Indian mobile digit.
// TRAI allocates mobile numbers in the 6-9 ranges.
func (v *PhoneValidator) IsValidPrefix(phone string) bool {
	if len(phone) == 0 {
		return false
	}
	return phone[0] >= '6' && phone[0] <= '9'
}

// Format formats a phone number in the standard display format: XXXXX XXXXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s", sanitized[0:5], sanitized[5:10]), nil
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}

// MustValidate validates and panics if invalid (use for testing only)
func (v *PhoneValidator) MustValidate(phone string) string {
	sanitized, err := v.Validate(phone)
	if err != nil {
		panic(fmt.Sprintf("invalid phone number %s: %v", phone, err))
	}
	return sanitized
}
