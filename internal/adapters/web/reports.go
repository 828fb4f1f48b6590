package web

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"milk-ledger/internal/core"
)

// ── Dues ──────────────────────────────────────────────────────────────────────

// dues handles GET /api/dues?as_of=YYYY-MM-DD&outstanding=true.
func (h *Handler) dues(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetDues(r.Context(), r.URL.Query().Get("as_of"), queryBool(r, "outstanding"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// customerDue handles GET /api/customers/{id}/due?as_of=YYYY-MM-DD.
func (h *Handler) customerDue(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetCustomerDue(r.Context(), id, r.URL.Query().Get("as_of"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Period reports ────────────────────────────────────────────────────────────

// periodSummary handles GET /api/customers/{id}/summary?from=&to=.
func (h *Handler) periodSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.GetPeriodSummary(r.Context(), id, q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// aggregateSummary handles GET /api/reports/summary?from=&to=.
func (h *Handler) aggregateSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.GetAggregateSummary(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// customersWithDues handles GET /api/reports/dues?from=&to=.
func (h *Handler) customersWithDues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.GetCustomersWithDues(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// monthlySnapshot handles GET /api/reports/snapshot?year=&month=. Both default to the
// current month.
func (h *Handler) monthlySnapshot(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, r, "invalid year", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		year = parsed
	}
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, err := strconv.Atoi(m)
		if err != nil {
			writeError(w, r, "invalid month", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		month = parsed
	}
	snap, err := h.svc.GetMonthlySnapshot(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-%04d-%02d.json"`, year, month))
	writeJSON(w, snap)
}

// ── Statement ─────────────────────────────────────────────────────────────────

// customerStatement handles GET /api/customers/{id}/statement?from=&to=.
// When format=csv, streams CSV instead of JSON.
func (h *Handler) customerStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	stmt, err := h.svc.GetCustomerStatement(r.Context(), id, q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if q.Get("format") != "csv" {
		writeJSON(w, stmt)
		return
	}

	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	names := make(map[int]string, len(products.Products))
	for _, p := range products.Products {
		names[p.ID] = p.Name
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="statement-%d-%s.csv"`,
		stmt.Customer.ID, stmt.Summary.End.Format(core.DateLayout)))
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Description", "Quantity", "Rate", "Debit", "Credit", "Balance"})
	for _, row := range statementRows(stmt, names) {
		_ = cw.Write(row)
	}
	cw.Flush()
}

// statementRows lays out a statement as an opening line, the period's entries in date
// order with a running balance, and a closing line. Sales sort before payments on the
// same day.
func statementRows(stmt *core.Statement, productNames map[int]string) [][]string {
	type line struct {
		date    string
		sale    *core.Sale
		payment *core.Payment
	}
	lines := make([]line, 0, len(stmt.Sales)+len(stmt.Payments))
	for i := range stmt.Sales {
		lines = append(lines, line{date: stmt.Sales[i].SaleDate.Format(core.DateLayout), sale: &stmt.Sales[i]})
	}
	for i := range stmt.Payments {
		lines = append(lines, line{date: stmt.Payments[i].PaymentDate.Format(core.DateLayout), payment: &stmt.Payments[i]})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].date != lines[j].date {
			return lines[i].date < lines[j].date
		}
		return lines[i].sale != nil && lines[j].sale == nil
	})

	sum := stmt.Summary
	balance := sum.OpeningBalance
	rows := [][]string{{sum.Start.Format(core.DateLayout), "Opening balance", "", "", "", "", balance.StringFixed(2)}}
	for _, l := range lines {
		if l.sale != nil {
			balance = balance.Add(l.sale.TotalAmount)
			name, ok := productNames[l.sale.ProductID]
			if !ok {
				name = "Product " + strconv.Itoa(l.sale.ProductID)
			}
			rows = append(rows, []string{
				l.date,
				csvSafe(name),
				l.sale.Quantity.String(),
				l.sale.PricePerUnit.StringFixed(2),
				l.sale.TotalAmount.StringFixed(2),
				"",
				balance.StringFixed(2),
			})
			continue
		}
		balance = balance.Sub(l.payment.AmountPaid)
		desc := "Payment"
		if l.payment.Notes != "" {
			desc += ": " + l.payment.Notes
		}
		rows = append(rows, []string{
			l.date,
			csvSafe(desc),
			"",
			"",
			"",
			l.payment.AmountPaid.StringFixed(2),
			balance.StringFixed(2),
		})
	}
	rows = append(rows, []string{sum.End.Format(core.DateLayout), "Closing balance", "", "", "", "", sum.ClosingBalance.StringFixed(2)})
	return rows
}

// csvSafe prevents CSV formula injection by prefixing cells that begin with a
// formula-triggering character with a single quote.
func csvSafe(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
