package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"auditline/internal/calculator"
	"auditline/internal/export"
	"auditline/internal/ledger"
	"auditline/internal/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type emiRequest struct {
	Principal    amountField `json:"principal"`
	AnnualRate   amountField `json:"annual_rate"`
	Months       int         `json:"months"`
	WithSchedule bool        `json:"with_schedule"`
}

func (h *Handler) NetWorth(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	total, err := h.deps.Reports.NetWorth(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "compute net worth")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"net_worth": total})
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sheet, err := h.deps.Reports.BalanceSheet(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "build balance sheet")
		return
	}
	respondJSON(w, http.StatusOK, sheet)
}

func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	period, err := ledger.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		respondFailure(w, r, err, "build profit and loss")
		return
	}
	report, err := h.deps.Reports.ProfitAndLoss(r.Context(), userID, period)
	if err != nil {
		respondFailure(w, r, err, "build profit and loss")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	dashboard, err := h.deps.Reports.Dashboard(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "build dashboard")
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) CalculateEMI(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	var req emiRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	principal, err := req.Principal.positive()
	if err != nil {
		respondFailure(w, r, err, "calculate emi")
		return
	}
	rate, err := req.AnnualRate.signed()
	if err != nil {
		respondFailure(w, r, err, "calculate emi")
		return
	}
	result, err := calculator.EMI(principal, rate, req.Months)
	if err != nil {
		respondFailure(w, r, err, "calculate emi")
		return
	}
	payload := map[string]any{"result": result}
	if req.WithSchedule {
		schedule, err := calculator.Schedule(principal, rate, req.Months)
		if err != nil {
			respondFailure(w, r, err, "calculate emi")
			return
		}
		payload["schedule"] = schedule
	}
	respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	logs, err := h.deps.Audit.List(r.Context(), userID, limit, offset)
	if err != nil {
		respondFailure(w, r, err, "load audit log")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, err := h.deps.Reports.Snapshot(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "export data")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, snap); err != nil {
		respondFailure(w, r, err, "export data")
		return
	}
	h.attach(w, r, "application/json", export.Filename(h.now(), "json"), buf.Bytes())
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	snap, err := h.deps.Reports.Snapshot(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "export data")
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, snap); err != nil {
		respondFailure(w, r, err, "export data")
		return
	}
	h.attach(w, r, xlsxContentType, export.Filename(h.now(), "xlsx"), buf.Bytes())
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.FromContext(r.Context()).Warn("export write failed", log.FieldError, err)
	}
}
