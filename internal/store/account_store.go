package store

import (
	"context"

	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

const accountColumns = `id, user_id, name, type, balance, account_number, bank_name, interest_rate,
	interest_claim_frequency, maturity_date, capital, loan_period_months, grace_period_months,
	start_date, installment_amount, card_holder, card_last4, card_expiry, card_network,
	color_gradient, color_start, color_end, logo_type, created_at`

type AccountStore struct {
	db DB
}

// AccountBalanceSummary compares the stored balance with the ledger sum.
type AccountBalanceSummary struct {
	ID                string          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	StoredBalance     decimal.Decimal `db:"stored_balance" json:"stored_balance"`
	CalculatedBalance decimal.Decimal `db:"calculated_balance" json:"calculated_balance"`
	Difference        decimal.Decimal `db:"difference" json:"difference"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, a models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, type, balance, account_number, bank_name, interest_rate,
			interest_claim_frequency, maturity_date, capital, loan_period_months, grace_period_months,
			start_date, installment_amount, card_holder, card_last4, card_expiry, card_network,
			color_gradient, color_start, color_end, logo_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err := tx.ExecContext(ctx, query,
		a.ID, a.UserID, a.Name, a.Type, a.Balance, a.AccountNumber, a.BankName, a.InterestRate,
		a.InterestClaimFrequency, a.MaturityDate, a.Capital, a.LoanPeriodMonths, a.GracePeriodMonths,
		a.StartDate, a.InstallmentAmount, a.CardHolder, a.CardLast4, a.CardExpiry, a.CardNetwork,
		a.ColorGradient, a.ColorStart, a.ColorEnd, a.LogoType,
	)
	return err
}

// Update rewrites every descriptive column. The balance moves only through
// UpdateBalance so each change is paired with a ledger entry.
func (s *AccountStore) Update(ctx context.Context, tx Execer, a models.Account) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET name = $3, type = $4, account_number = $5, bank_name = $6, interest_rate = $7,
		    interest_claim_frequency = $8, maturity_date = $9, capital = $10, loan_period_months = $11,
		    grace_period_months = $12, start_date = $13, installment_amount = $14, card_holder = $15,
		    card_last4 = $16, card_expiry = $17, card_network = $18, color_gradient = $19,
		    color_start = $20, color_end = $21, logo_type = $22, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, a.ID, a.UserID, a.Name, a.Type, a.AccountNumber, a.BankName, a.InterestRate,
		a.InterestClaimFrequency, a.MaturityDate, a.Capital, a.LoanPeriodMonths,
		a.GracePeriodMonths, a.StartDate, a.InstallmentAmount, a.CardHolder,
		a.CardLast4, a.CardExpiry, a.CardNetwork, a.ColorGradient,
		a.ColorStart, a.ColorEnd, a.LogoType,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AccountStore) Delete(ctx context.Context, tx Execer, userID, accountID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AccountStore) GetByUser(ctx context.Context, userID string) ([]models.Account, error) {
	rows := []models.Account{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AccountStore) GetByID(ctx context.Context, userID, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND user_id = $2
	`, accountID, userID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, userID, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, accountID, userID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, accountID)
	return err
}

// CountReferences counts transactions and receivables pointing at the account.
func (s *AccountStore) CountReferences(ctx context.Context, tx Getter, accountID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `
		SELECT (SELECT COUNT(*) FROM transactions WHERE from_account_id = $1 OR to_account_id = $1)
		     + (SELECT COUNT(*) FROM receivables WHERE account_id = $1)
	`, accountID)
	return count, err
}

func (s *AccountStore) SelfCheck(ctx context.Context, userID string) ([]AccountBalanceSummary, error) {
	rows := []AccountBalanceSummary{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id,
		       a.name,
		       a.balance AS stored_balance,
		       COALESCE(SUM(l.amount), 0) AS calculated_balance,
		       (a.balance - COALESCE(SUM(l.amount), 0)) AS difference
		FROM accounts a
		LEFT JOIN ledger_entries l ON l.account_id = a.id
		WHERE a.user_id = $1
		GROUP BY a.id, a.name, a.balance
		ORDER BY a.name
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
