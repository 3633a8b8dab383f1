package ledger

import (
	"errors"
	"time"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("unknown period")

var (
	netWorthAssets = map[models.AccountType]bool{
		models.AccountSavings:        true,
		models.AccountCurrent:        true,
		models.AccountAsset:          true,
		models.AccountFixedDeposit:   true,
		models.AccountInvestment:     true,
		models.AccountLoanReceivable: true,
	}
	netWorthLiabilities = map[models.AccountType]bool{
		models.AccountLoanPayable: true,
		models.AccountLiability:   true,
		models.AccountCreditCard:  true,
	}
)

// NetWorth sums asset-class balances and subtracts the absolute balances of
// liability-class accounts. Debit cards count toward neither side.
func NetWorth(accounts []models.Account) decimal.Decimal {
	total := decimal.Zero
	for _, account := range accounts {
		switch {
		case netWorthAssets[account.Type]:
			total = total.Add(account.Balance)
		case netWorthLiabilities[account.Type]:
			total = total.Sub(account.Balance.Abs())
		}
	}
	return total
}

type SheetLine struct {
	AccountID string             `json:"account_id"`
	Name      string             `json:"name"`
	Type      models.AccountType `json:"type"`
	Amount    decimal.Decimal    `json:"amount"`
}

type SheetSection struct {
	Lines []SheetLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *SheetSection) add(account models.Account, amount decimal.Decimal) {
	s.Lines = append(s.Lines, SheetLine{AccountID: account.ID, Name: account.Name, Type: account.Type, Amount: amount})
	s.Total = s.Total.Add(amount)
}

type BalanceSheet struct {
	NonCurrentAssets      SheetSection    `json:"non_current_assets"`
	CurrentAssets         SheetSection    `json:"current_assets"`
	NonCurrentLiabilities SheetSection    `json:"non_current_liabilities"`
	CurrentLiabilities    SheetSection    `json:"current_liabilities"`
	TotalAssets           decimal.Decimal `json:"total_assets"`
	TotalLiabilities      decimal.Decimal `json:"total_liabilities"`
	Equity                decimal.Decimal `json:"equity"`
}

// BuildBalanceSheet classifies accounts by type and loan term. Liabilities
// are carried at absolute value and equity is the residual, so
// TotalAssets == Equity + TotalLiabilities for every input.
func BuildBalanceSheet(accounts []models.Account) BalanceSheet {
	sheet := BalanceSheet{
		NonCurrentAssets:      SheetSection{Lines: []SheetLine{}},
		CurrentAssets:         SheetSection{Lines: []SheetLine{}},
		NonCurrentLiabilities: SheetSection{Lines: []SheetLine{}},
		CurrentLiabilities:    SheetSection{Lines: []SheetLine{}},
	}
	for _, account := range accounts {
		switch account.Type {
		case models.AccountAsset, models.AccountInvestment, models.AccountFixedDeposit:
			sheet.NonCurrentAssets.add(account, account.Balance)
		case models.AccountSavings, models.AccountCurrent, models.AccountDebitCard, models.AccountLoanReceivable:
			sheet.CurrentAssets.add(account, account.Balance)
		case models.AccountLoanPayable:
			if account.LoanPeriodMonths != nil && *account.LoanPeriodMonths > 12 {
				sheet.NonCurrentLiabilities.add(account, account.Balance.Abs())
			} else {
				sheet.CurrentLiabilities.add(account, account.Balance.Abs())
			}
		case models.AccountCreditCard, models.AccountLiability:
			sheet.CurrentLiabilities.add(account, account.Balance.Abs())
		}
	}
	sheet.TotalAssets = sheet.NonCurrentAssets.Total.Add(sheet.CurrentAssets.Total)
	sheet.TotalLiabilities = sheet.NonCurrentLiabilities.Total.Add(sheet.CurrentLiabilities.Total)
	sheet.Equity = sheet.TotalAssets.Sub(sheet.TotalLiabilities)
	return sheet
}

type Period string

const (
	PeriodThisMonth   Period = "this_month"
	PeriodLast3Months Period = "last_3_months"
	PeriodThisYear    Period = "this_year"
	PeriodAll         Period = "all"
)

func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case "":
		return PeriodAll, nil
	case PeriodThisMonth, PeriodLast3Months, PeriodThisYear, PeriodAll:
		return Period(raw), nil
	}
	return "", ErrInvalidPeriod
}

// Contains reports whether date falls in the period as seen at now.
func (p Period) Contains(date, now time.Time) bool {
	date = date.In(now.Location())
	switch p {
	case PeriodThisMonth:
		return date.Year() == now.Year() && date.Month() == now.Month()
	case PeriodLast3Months:
		return !date.Before(now.AddDate(0, -3, 0))
	case PeriodThisYear:
		return date.Year() == now.Year()
	default:
		return true
	}
}

// Classification decides which transaction types count as income or expense
// in a profit and loss statement. Types mapped to anything else, or absent,
// are left out.
type Classification map[models.TransactionType]Class

// DefaultClassification counts every income-class and expense-class type.
// Transfers move money between owned accounts and are excluded.
func DefaultClassification() Classification {
	out := make(Classification, len(typeClasses))
	for t, class := range typeClasses {
		if class != ClassTransfer {
			out[t] = class
		}
	}
	return out
}

// LegacyClassification counts only INCOME and INTEREST_EARNED as income and
// only EXPENSE as expense.
func LegacyClassification() Classification {
	return Classification{
		models.TxIncome:         ClassIncome,
		models.TxInterestEarned: ClassIncome,
		models.TxExpense:        ClassExpense,
	}
}

type ProfitAndLoss struct {
	Period   Period                     `json:"period"`
	Income   decimal.Decimal            `json:"income"`
	Expenses decimal.Decimal            `json:"expenses"`
	Net      decimal.Decimal            `json:"net"`
	ByType   map[string]decimal.Decimal `json:"by_type"`
	Count    int                        `json:"count"`
}

func ComputeProfitAndLoss(transactions []models.Transaction, period Period, now time.Time, classes Classification) ProfitAndLoss {
	if classes == nil {
		classes = DefaultClassification()
	}
	result := ProfitAndLoss{Period: period, ByType: map[string]decimal.Decimal{}}
	for _, tx := range transactions {
		if !period.Contains(tx.Date, now) {
			continue
		}
		switch classes[tx.Type] {
		case ClassIncome:
			result.Income = result.Income.Add(tx.Amount)
		case ClassExpense:
			result.Expenses = result.Expenses.Add(tx.Amount)
		default:
			continue
		}
		result.ByType[string(tx.Type)] = result.ByType[string(tx.Type)].Add(tx.Amount)
		result.Count++
	}
	result.Net = result.Income.Sub(result.Expenses)
	return result
}

type LoanProgress struct {
	AccountID   string          `json:"account_id"`
	Principal   decimal.Decimal `json:"principal"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Repaid      decimal.Decimal `json:"repaid"`
	RepaidPct   decimal.Decimal `json:"repaid_pct"`
}

// Loan reports how much of a payable loan has been repaid. The principal is
// the account's capital; the outstanding amount is the absolute balance.
func Loan(account models.Account) LoanProgress {
	outstanding := account.Balance.Abs()
	principal := outstanding
	if account.Capital.Valid {
		principal = account.Capital.Decimal
	}
	repaid := principal.Sub(outstanding)
	if repaid.IsNegative() {
		repaid = decimal.Zero
	}
	pct := decimal.Zero
	if principal.IsPositive() {
		pct = repaid.Div(principal).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return LoanProgress{
		AccountID:   account.ID,
		Principal:   principal,
		Outstanding: outstanding,
		Repaid:      repaid,
		RepaidPct:   pct,
	}
}
