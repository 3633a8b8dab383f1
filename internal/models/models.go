package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

type Settings struct {
	UserID              string     `db:"user_id" json:"user_id"`
	Currency            string     `db:"currency" json:"currency"`
	Theme               Theme      `db:"theme" json:"theme"`
	Notifications       bool       `db:"notifications" json:"notifications"`
	OnboardingCompleted bool       `db:"onboarding_completed" json:"onboarding_completed"`
	ReportEmail         *string    `db:"report_email" json:"report_email,omitempty"`
	AutoEmailEnabled    bool       `db:"auto_email_enabled" json:"auto_email_enabled"`
	LastReportDispatch  *time.Time `db:"last_report_dispatch" json:"last_report_dispatch,omitempty"`
}

// DefaultSettings is what a fresh sign-up starts with.
func DefaultSettings(userID, currency string) Settings {
	if currency == "" {
		currency = "LKR"
	}
	return Settings{
		UserID:        userID,
		Currency:      currency,
		Theme:         ThemeSystem,
		Notifications: true,
	}
}

type Session struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
}

func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type Account struct {
	ID                     string              `db:"id" json:"id"`
	UserID                 string              `db:"user_id" json:"user_id"`
	Name                   string              `db:"name" json:"name"`
	Type                   AccountType         `db:"type" json:"type"`
	Balance                decimal.Decimal     `db:"balance" json:"balance"`
	AccountNumber          *string             `db:"account_number" json:"account_number,omitempty"`
	BankName               *string             `db:"bank_name" json:"bank_name,omitempty"`
	InterestRate           decimal.NullDecimal `db:"interest_rate" json:"interest_rate"`
	InterestClaimFrequency *InterestFrequency  `db:"interest_claim_frequency" json:"interest_claim_frequency,omitempty"`
	MaturityDate           *time.Time          `db:"maturity_date" json:"maturity_date,omitempty"`
	Capital                decimal.NullDecimal `db:"capital" json:"capital"`
	LoanPeriodMonths       *int                `db:"loan_period_months" json:"loan_period_months,omitempty"`
	GracePeriodMonths      *int                `db:"grace_period_months" json:"grace_period_months,omitempty"`
	StartDate              *time.Time          `db:"start_date" json:"start_date,omitempty"`
	InstallmentAmount      decimal.NullDecimal `db:"installment_amount" json:"installment_amount"`
	CardHolder             *string             `db:"card_holder" json:"card_holder,omitempty"`
	CardLast4              *string             `db:"card_last4" json:"card_last4,omitempty"`
	CardExpiry             *string             `db:"card_expiry" json:"card_expiry,omitempty"`
	CardNetwork            *CardNetwork        `db:"card_network" json:"card_network,omitempty"`
	ColorGradient          *string             `db:"color_gradient" json:"color_gradient,omitempty"`
	ColorStart             *string             `db:"color_start" json:"color_start,omitempty"`
	ColorEnd               *string             `db:"color_end" json:"color_end,omitempty"`
	LogoType               *string             `db:"logo_type" json:"logo_type,omitempty"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID                 string            `db:"id" json:"id"`
	UserID             string            `db:"user_id" json:"user_id"`
	Date               time.Time         `db:"date" json:"date"`
	Amount             decimal.Decimal   `db:"amount" json:"amount"`
	Description        string            `db:"description" json:"description"`
	Type               TransactionType   `db:"type" json:"type"`
	FromAccountID      *string           `db:"from_account_id" json:"from_account_id,omitempty"`
	ToAccountID        *string           `db:"to_account_id" json:"to_account_id,omitempty"`
	Category           string            `db:"category" json:"category"`
	IsRecurring        bool              `db:"is_recurring" json:"is_recurring"`
	RecurrencePeriod   *RecurrencePeriod `db:"recurrence_period" json:"recurrence_period,omitempty"`
	GoalID             *string           `db:"goal_id" json:"goal_id,omitempty"`
	RecurrenceSourceID *string           `db:"recurrence_source_id" json:"recurrence_source_id,omitempty"`
	LastRecurrenceAt   *time.Time        `db:"last_recurrence_at" json:"last_recurrence_at,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
}

// AccountIDs lists the populated account references, from first.
func (t Transaction) AccountIDs() []string {
	ids := make([]string, 0, 2)
	if t.FromAccountID != nil && *t.FromAccountID != "" {
		ids = append(ids, *t.FromAccountID)
	}
	if t.ToAccountID != nil && *t.ToAccountID != "" {
		ids = append(ids, *t.ToAccountID)
	}
	return ids
}

type Goal struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"user_id"`
	Name         string          `db:"name" json:"name"`
	TargetAmount decimal.Decimal `db:"target_amount" json:"target_amount"`
	SavedAmount  decimal.Decimal `db:"saved_amount" json:"saved_amount"`
	Deadline     *time.Time      `db:"deadline" json:"deadline,omitempty"`
	Category     string          `db:"category" json:"category"`
	Color        string          `db:"color" json:"color"`
	IsPinned     bool            `db:"is_pinned" json:"is_pinned"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Progress is the saved share of the target in percent, capped at 100.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	pct := g.SavedAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).Round(2)
	if pct.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return pct
}

type Receivable struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	AccountID   string           `db:"account_id" json:"account_id"`
	Amount      decimal.Decimal  `db:"amount" json:"amount"`
	DueDate     time.Time        `db:"due_date" json:"due_date"`
	Status      ReceivableStatus `db:"status" json:"status"`
	Description string           `db:"description" json:"description"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

type Document struct {
	ID        string       `db:"id" json:"id"`
	UserID    string       `db:"user_id" json:"user_id"`
	Name      string       `db:"name" json:"name"`
	Type      DocumentType `db:"type" json:"type"`
	Data      string       `db:"data" json:"data,omitempty"`
	Date      time.Time    `db:"date" json:"date"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID      string           `db:"id" json:"id"`
	UserID  string           `db:"user_id" json:"user_id"`
	Title   string           `db:"title" json:"title"`
	Message string           `db:"message" json:"message"`
	Type    NotificationType `db:"type" json:"type"`
	Date    time.Time        `db:"date" json:"date"`
	Read    bool             `db:"read" json:"read"`
}

type LedgerEntry struct {
	ID            string          `db:"id" json:"id"`
	TransactionID *string         `db:"transaction_id" json:"transaction_id,omitempty"`
	AccountID     string          `db:"account_id" json:"account_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Description   string          `db:"description" json:"description"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    string    `db:"entity_id" json:"entity_id"`
	Data        string    `db:"data" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
