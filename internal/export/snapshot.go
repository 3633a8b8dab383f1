// Package export renders a user's books as a one-way backup: a JSON snapshot
// and an XLSX workbook. There is no import path.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"auditline/internal/ledger"
	"auditline/internal/models"

	"github.com/shopspring/decimal"
)

const SnapshotVersion = 1

type Snapshot struct {
	Version       int                   `json:"version"`
	ExportedAt    time.Time             `json:"exported_at"`
	User          models.User           `json:"user"`
	Settings      models.Settings       `json:"settings"`
	Accounts      []models.Account      `json:"accounts"`
	Transactions  []models.Transaction  `json:"transactions"`
	Goals         []models.Goal         `json:"goals"`
	Receivables   []models.Receivable   `json:"receivables"`
	Documents     []models.Document     `json:"documents"`
	Notifications []models.Notification `json:"notifications"`
	NetWorth      decimal.Decimal       `json:"net_worth"`
	BalanceSheet  ledger.BalanceSheet   `json:"balance_sheet"`
}

// Filename names a backup taken at now, e.g. AuditLine_Backup_2026-10-16.json.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("AuditLine_Backup_%s.%s", now.Format("2006-01-02"), ext)
}

func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
