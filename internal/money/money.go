package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseAmount accepts user input such as "1,250,000.50" and returns it as a
// two-place decimal. Commas are allowed only as thousands separators in the
// whole part; surrounding spaces are ignored.
func ParseAmount(input string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	negative := false
	switch trimmed[0] {
	case '-':
		negative = true
		trimmed = trimmed[1:]
	case '+':
		trimmed = trimmed[1:]
	}
	wholePart, fracPart, _ := strings.Cut(trimmed, ".")
	wholePart, ok := ungroup(wholePart)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if !isDigits(wholePart) {
		return decimal.Zero, ErrInvalidAmount
	}
	if !isDigits(fracPart) {
		return decimal.Zero, ErrInvalidAmount
	}
	if len(fracPart) > 2 {
		return decimal.Zero, ErrTooManyDecimals
	}
	value, err := decimal.NewFromString(wholePart + "." + fracPart + "0")
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		value = value.Neg()
	}
	return value.Round(2), nil
}

// FormatAmount renders a value with thousands grouping and exactly two
// decimals, e.g. -1234.5 becomes "-1,234.50".
func FormatAmount(value decimal.Decimal) string {
	fixed := value.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	out := group(whole) + "." + frac
	if value.Round(2).IsNegative() {
		return "-" + out
	}
	return out
}

// FormatCurrency prefixes FormatAmount with an ISO currency code.
func FormatCurrency(value decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "LKR"
	}
	if value.Round(2).IsNegative() {
		return "-" + currency + " " + FormatAmount(value.Abs())
	}
	return currency + " " + FormatAmount(value)
}

// FormatNumber groups the integer part and keeps at most three fraction
// digits, trimming trailing zeros.
func FormatNumber(value decimal.Decimal) string {
	rounded := value.Round(3)
	text := rounded.Abs().String()
	whole, frac, hasFrac := strings.Cut(text, ".")
	out := group(whole)
	if hasFrac {
		out += "." + frac
	}
	if rounded.IsNegative() {
		return "-" + out
	}
	return out
}

func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ungroup strips thousands separators. The leading group holds one to three
// digits and every later group exactly three.
func ungroup(whole string) (string, bool) {
	if !strings.Contains(whole, ",") {
		return whole, true
	}
	groups := strings.Split(whole, ",")
	if n := len(groups[0]); n == 0 || n > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
