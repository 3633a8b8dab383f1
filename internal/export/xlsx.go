package export

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary      = "Summary"
	SheetAccounts     = "Accounts"
	SheetTransactions = "Transactions"
	SheetGoals        = "Goals"
	SheetReceivables  = "Receivables"
)

const dateLayout = "2006-01-02"

// Workbook lays the snapshot out one sheet per entity, with a summary sheet
// first. Amounts are written as fixed two-decimal strings so no float
// rounding creeps in.
func Workbook(snap Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(SheetSummary)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Exported", snap.ExportedAt.Format(dateLayout)},
		{"Owner", snap.User.Email},
		{"Currency", snap.Settings.Currency},
		{"Net worth", snap.NetWorth.StringFixed(2)},
		{"Total assets", snap.BalanceSheet.TotalAssets.StringFixed(2)},
		{"Total liabilities", snap.BalanceSheet.TotalLiabilities.StringFixed(2)},
		{"Equity", snap.BalanceSheet.Equity.StringFixed(2)},
	}
	if err := writeRows(f, SheetSummary, nil, summary); err != nil {
		return nil, err
	}

	accounts := make([][]any, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		accounts = append(accounts, []any{a.Name, string(a.Type), a.Balance.StringFixed(2), deref(a.BankName), deref(a.CardLast4)})
	}
	if err := addSheet(f, SheetAccounts, []string{"Name", "Type", "Balance", "Bank", "Card"}, accounts); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(snap.Accounts))
	for _, a := range snap.Accounts {
		names[a.ID] = a.Name
	}
	transactions := make([][]any, 0, len(snap.Transactions))
	for _, t := range snap.Transactions {
		transactions = append(transactions, []any{
			t.Date.Format(dateLayout), string(t.Type), t.Description, t.Category,
			t.Amount.StringFixed(2), names[deref(t.FromAccountID)], names[deref(t.ToAccountID)],
		})
	}
	if err := addSheet(f, SheetTransactions, []string{"Date", "Type", "Description", "Category", "Amount", "From", "To"}, transactions); err != nil {
		return nil, err
	}

	goals := make([][]any, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		goals = append(goals, []any{g.Name, g.TargetAmount.StringFixed(2), g.SavedAmount.StringFixed(2), g.Progress().StringFixed(2)})
	}
	if err := addSheet(f, SheetGoals, []string{"Name", "Target", "Saved", "Progress %"}, goals); err != nil {
		return nil, err
	}

	receivables := make([][]any, 0, len(snap.Receivables))
	for _, r := range snap.Receivables {
		receivables = append(receivables, []any{r.DueDate.Format(dateLayout), r.Description, r.Amount.StringFixed(2), string(r.Status), names[r.AccountID]})
	}
	if err := addSheet(f, SheetReceivables, []string{"Due", "Description", "Amount", "Status", "Account"}, receivables); err != nil {
		return nil, err
	}
	return f, nil
}

func WriteXLSX(w io.Writer, snap Snapshot) error {
	f, err := Workbook(snap)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func addSheet(f *excelize.File, name string, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := writeRows(f, name, headers, rows); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", last, 18)
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	start := 1
	if headers != nil {
		for col, h := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return err
			}
		}
		start = 2
	}
	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, start+i)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

