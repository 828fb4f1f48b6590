package web

import (
	"net/http"

	"milk-ledger/internal/app"

	"github.com/shopspring/decimal"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, p)
}

// updateProduct handles PUT /api/products/{id}. Only name and unit change here.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changeDefaultPrice handles POST /api/products/{id}/price.
// Body: {"new_price": "64", "apply_to_customers": true, "confirm": true}
func (h *Handler) changeDefaultPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		NewPrice         decimal.Decimal `json:"new_price"`
		ApplyToCustomers bool            `json:"apply_to_customers"`
		Confirm          bool            `json:"confirm"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.ChangeDefaultPrice(r.Context(), app.PriceChangeRequest{
		ProductID:        id,
		NewPrice:         req.NewPrice,
		ApplyToCustomers: req.ApplyToCustomers,
		Confirm:          req.Confirm,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
