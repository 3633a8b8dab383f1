package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auditline/internal/money"

	"github.com/shopspring/decimal"
)

var (
	errInvalidAmount   = errors.New("amount must be greater than zero")
	errInvalidDate     = errors.New("invalid date")
	errInvalidSettings = errors.New("invalid settings")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// amountField accepts an amount as a JSON string ("1,250.00") or number.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	*a = amountField(data)
	return nil
}

func (a amountField) set() bool { return strings.TrimSpace(string(a)) != "" }

// positive parses a strictly positive amount.
func (a amountField) positive() (decimal.Decimal, error) {
	amount, err := money.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, err
	}
	if !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

func (a amountField) signed() (decimal.Decimal, error) {
	return money.ParseAmount(string(a))
}

func (a amountField) optional() (decimal.NullDecimal, error) {
	if !a.set() {
		return decimal.NullDecimal{}, nil
	}
	value, err := money.ParseAmount(string(a))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(value), nil
}

// parseDate takes a calendar date or an RFC 3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, errInvalidDate
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func pagination(r *http.Request) (int, int) {
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
