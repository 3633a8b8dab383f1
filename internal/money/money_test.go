package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  string
		err   error
	}{
		{input: "1,250,000.50", want: "1250000.5"},
		{input: " 42 ", want: "42"},
		{input: "-3.1", want: "-3.1"},
		{input: "+.75", want: "0.75"},
		{input: "", err: ErrInvalidAmount},
		{input: "12a", err: ErrInvalidAmount},
		{input: "1.234", err: ErrTooManyDecimals},
		{input: "1.x", err: ErrInvalidAmount},
		{input: "-1,250.00", want: "-1250"},
		{input: "999,999", want: "999999"},
		{input: "1,2,3", err: ErrInvalidAmount},
		{input: ",,5", err: ErrInvalidAmount},
		{input: "1234,567", err: ErrInvalidAmount},
		{input: "1,000,", err: ErrInvalidAmount},
		{input: "1,000.5,0", err: ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.input)
		if err != tc.err {
			t.Fatalf("%q: expected error %v, got %v", tc.input, tc.err, err)
		}
		if tc.err != nil {
			continue
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%q: expected %s, got %s", tc.input, tc.want, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "0.00",
		"12.5":       "12.50",
		"1234.5":     "1,234.50",
		"-1234567.8": "-1,234,567.80",
		"999999.999": "1,000,000.00",
	}
	for input, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(input)); got != want {
			t.Fatalf("%s: expected %s, got %s", input, want, got)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(decimal.RequireFromString("1500"), "LKR"); got != "LKR 1,500.00" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatCurrency(decimal.RequireFromString("-20.1"), ""); got != "-LKR 20.10" {
		t.Fatalf("unexpected format: %s", got)
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(decimal.RequireFromString("1234567")); got != "1,234,567" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatNumber(decimal.RequireFromString("-9876.54321")); got != "-9,876.543" {
		t.Fatalf("unexpected format: %s", got)
	}
}
