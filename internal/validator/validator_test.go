package validator

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("a@b.lk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, email := range []string{"", "ab.lk", "a@b", "a b@c.lk"} {
		if err := ValidateEmail(email); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("expected %q to be rejected", email)
		}
	}
}

func TestValidatePasswordAndName(t *testing.T) {
	if err := ValidatePassword("short"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected short password rejected, got %v", err)
	}
	if err := ValidatePassword("long enough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateName("   "); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected blank name rejected, got %v", err)
	}
	if err := ValidateName("Main Wallet"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCurrency(t *testing.T) {
	if err := ValidateCurrency("LKR"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, code := range []string{"lkr", "LK", "LKRS", ""} {
		if err := ValidateCurrency(code); !errors.Is(err, ErrInvalidCurrency) {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}

func TestNormalizeCardNumber(t *testing.T) {
	got, err := NormalizeCardNumber("4111 1111-1111 1111")
	if err != nil || got != "4111111111111111" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
	if _, err := NormalizeCardNumber("4111-abcd"); !errors.Is(err, ErrInvalidCard) {
		t.Fatalf("expected ErrInvalidCard, got %v", err)
	}
}

func TestValidateCardExpiry(t *testing.T) {
	if err := ValidateCardExpiry("09/27"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, expiry := range []string{"13/27", "9/27", "09-27"} {
		if err := ValidateCardExpiry(expiry); !errors.Is(err, ErrInvalidExpiry) {
			t.Fatalf("expected %q to be rejected", expiry)
		}
	}
}
