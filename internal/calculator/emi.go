package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTerm  = errors.New("term must be between 1 and 1200 months")
	ErrInvalidInput = errors.New("principal and rate must not be negative")
)

const workingPrecision = 16

// MaxTermMonths caps loan terms at one hundred years.
const MaxTermMonths = 1200

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type Result struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
}

// EMI computes the equated monthly installment for principal p at an annual
// rate in percent over months. A zero rate divides the principal evenly.
func EMI(principal, annualRate decimal.Decimal, months int) (Result, error) {
	payment, err := monthlyPayment(principal, annualRate, months)
	if err != nil {
		return Result{}, err
	}
	total := payment.Mul(decimal.NewFromInt(int64(months)))
	return Result{
		MonthlyPayment: payment.Round(2),
		TotalPayment:   total.Round(2),
		TotalInterest:  total.Sub(principal).Round(2),
	}, nil
}

type Installment struct {
	Month     int             `json:"month"`
	Payment   decimal.Decimal `json:"payment"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Schedule splits each installment into interest and principal. The last
// row absorbs rounding so the remaining balance closes at zero.
func Schedule(principal, annualRate decimal.Decimal, months int) ([]Installment, error) {
	payment, err := monthlyPayment(principal, annualRate, months)
	if err != nil {
		return nil, err
	}
	payment = payment.Round(2)
	r := monthlyRate(annualRate)
	remaining := principal
	rows := make([]Installment, 0, months)
	for month := 1; month <= months; month++ {
		interest := remaining.Mul(r).Round(2)
		principalPart := payment.Sub(interest)
		if month == months || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)
		rows = append(rows, Installment{
			Month:     month,
			Payment:   principalPart.Add(interest),
			Interest:  interest,
			Principal: principalPart,
			Remaining: remaining,
		})
	}
	return rows, nil
}

// ValidateTerm accepts terms from one month up to MaxTermMonths.
func ValidateTerm(months int) error {
	if months <= 0 || months > MaxTermMonths {
		return ErrInvalidTerm
	}
	return nil
}

func monthlyPayment(principal, annualRate decimal.Decimal, months int) (decimal.Decimal, error) {
	if err := ValidateTerm(months); err != nil {
		return decimal.Zero, err
	}
	if principal.IsNegative() || annualRate.IsNegative() {
		return decimal.Zero, ErrInvalidInput
	}
	n := decimal.NewFromInt(int64(months))
	r := monthlyRate(annualRate)
	if r.IsZero() {
		return principal.DivRound(n, workingPrecision), nil
	}
	growth := pow(decimal.NewFromInt(1).Add(r), months)
	numerator := principal.Mul(r).Mul(growth)
	denominator := growth.Sub(decimal.NewFromInt(1))
	return numerator.DivRound(denominator, workingPrecision), nil
}

func monthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(twelve, workingPrecision).DivRound(hundred, workingPrecision)
}

func pow(base decimal.Decimal, exp int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Truncate(workingPrecision * 2)
		}
		base = base.Mul(base).Truncate(workingPrecision * 2)
		exp >>= 1
	}
	return result
}
