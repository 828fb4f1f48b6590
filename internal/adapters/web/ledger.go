package web

import (
	"net/http"

	"milk-ledger/internal/app"
)

// ledgerQuery reads customer_id, product_id, from and to from the query string.
func ledgerQuery(w http.ResponseWriter, r *http.Request) (app.LedgerQuery, bool) {
	customerID, ok := queryInt(w, r, "customer_id")
	if !ok {
		return app.LedgerQuery{}, false
	}
	productID, ok := queryInt(w, r, "product_id")
	if !ok {
		return app.LedgerQuery{}, false
	}
	q := r.URL.Query()
	return app.LedgerQuery{
		CustomerID: customerID,
		ProductID:  productID,
		From:       q.Get("from"),
		To:         q.Get("to"),
	}, true
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q, ok := ledgerQuery(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListSales(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// recordSale handles POST /api/sales. A second post for the same customer, product and
// day amends the existing line instead of adding one.
func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req app.SaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.RecordSale(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

// moveSale handles PATCH /api/sales/{id} with body {"sale_date": "YYYY-MM-DD"}.
func (h *Handler) moveSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Date string `json:"sale_date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	sale, err := h.svc.MoveSale(r.Context(), id, req.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sale)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordDefaultDeliveries handles POST /api/sales/defaults. An empty body or sale_date
// means today.
func (h *Handler) recordDefaultDeliveries(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"sale_date"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.RecordDefaultDeliveries(r.Context(), req.Date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Payments ──────────────────────────────────────────────────────────────────

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	q, ok := ledgerQuery(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListPayments(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req app.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.RecordPayment(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, p)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePayment(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Expenses ──────────────────────────────────────────────────────────────────

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListExpenses(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) recordExpense(w http.ResponseWriter, r *http.Request) {
	var req app.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.RecordExpense(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, e)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteExpense(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
