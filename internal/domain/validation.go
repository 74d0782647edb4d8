package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
)

// Validation constants
const (
	MaxNameLength      = 255
	MaxEntryTypeLength = 64
	MaxFieldLength     = 255
	MaxEntryAmount     = "1000000000000" // 1 trillion
	MaxEntryScale      = 8
	MinPasswordLength  = 8
	MaxPasswordLength  = 128
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperRegex = regexp.MustCompile(`[A-Z]`)
	lowerRegex = regexp.MustCompile(`[a-z]`)
	digitRegex = regexp.MustCompile(`[0-9]`)

	maxEntryAmount = decimal.RequireFromString(MaxEntryAmount)

	// Any non-zero amount with a larger exponent is above maxEntryAmount.
	maxEntryExponent = int32(len(MaxEntryAmount) - 1)
)

// ValidateName validates a bookshelf or book name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateEntryAmount checks an amount against its entry type. IN and OUT
// carry positive magnitudes; custom types carry a signed, non-zero amount.
func ValidateEntryAmount(t EntryType, amount decimal.Decimal) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: amount cannot be zero", ErrInvalidAmount)
	}

	if !t.IsCustom() && amount.IsNegative() {
		return fmt.Errorf("%w: %s amount must be positive", ErrInvalidAmount, t)
	}

	// Exponent bounds come before any comparison, which would rescale the
	// coefficient to the exponent of the other operand.
	if amount.Exponent() < -MaxEntryScale {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MaxEntryScale)
	}

	if amount.Exponent() > maxEntryExponent || amount.Abs().GreaterThan(maxEntryAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxEntryAmount)
	}

	return nil
}

// ValidateEntryType validates an entry type label.
func ValidateEntryType(t EntryType) error {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return fmt.Errorf("%w: type cannot be empty", ErrInvalidEntryType)
	}

	if utf8.RuneCountInString(s) > MaxEntryTypeLength {
		return fmt.Errorf("%w: type exceeds %d characters", ErrInvalidEntryType, MaxEntryTypeLength)
	}

	return nil
}

// ValidateEntry validates a new entry before it is stored.
func ValidateEntry(e *Entry) error {
	if err := ValidateEntryType(e.Type); err != nil {
		return err
	}

	if err := ValidateEntryAmount(e.Type, e.Amount); err != nil {
		return err
	}

	fields := map[string]string{
		"payment_mode": e.PaymentMode,
		"category":     e.Category,
		"party":        e.Party,
		"remark":       e.Remark,
	}
	for name, v := range fields {
		if utf8.RuneCountInString(v) > MaxFieldLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidEntry, name, MaxFieldLength)
		}
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	if !upperRegex.MatchString(password) || !lowerRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}
