package validator

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidCard     = errors.New("invalid card number")
	ErrInvalidExpiry   = errors.New("invalid card expiry")
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	cardRegex     = regexp.MustCompile(`^[0-9]{12,19}$`)
	expiryRegex   = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateName accepts any non-blank display name up to 100 characters.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 100 {
		return ErrInvalidName
	}
	return nil
}

func ValidateCurrency(code string) error {
	if !currencyRegex.MatchString(code) {
		return ErrInvalidCurrency
	}
	return nil
}

// NormalizeCardNumber strips spaces and dashes and checks the digit count.
func NormalizeCardNumber(number string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if !cardRegex.MatchString(cleaned) {
		return "", ErrInvalidCard
	}
	return cleaned, nil
}

// ValidateCardExpiry checks the MM/YY shape. Expired cards are accepted:
// they still carry history.
func ValidateCardExpiry(expiry string) error {
	if !expiryRegex.MatchString(expiry) {
		return ErrInvalidExpiry
	}
	if _, err := time.Parse("01/06", expiry); err != nil {
		return ErrInvalidExpiry
	}
	return nil
}
