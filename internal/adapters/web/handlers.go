package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"milk-ledger/internal/app"

	"github.com/go-chi/chi/v5"
)

// Options configures the HTTP adapter.
type Options struct {
	AllowedOrigins []string
	JWTSecret      string
	SessionTTL     time.Duration
	// SecureCookies marks the session cookie Secure. Disable only for plain-HTTP development.
	SecureCookies bool
}

// Handler holds the ApplicationService, the chi router, and the pending proposal store.
type Handler struct {
	svc           app.ApplicationService
	router        chi.Router
	pending       *pendingStore
	jwtSecret     string
	sessionTTL    time.Duration
	secureCookies bool
}

// NewHandler creates and wires the chi router with all routes. The pending proposal
// purge goroutine stops when ctx is cancelled.
func NewHandler(ctx context.Context, svc app.ApplicationService, opts Options) http.Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	h := &Handler{
		svc:           svc,
		pending:       newPendingStore(),
		jwtSecret:     opts.JWTSecret,
		sessionTTL:    opts.SessionTTL,
		secureCookies: opts.SecureCookies,
	}
	h.pending.startPurge(ctx)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins))

	// ── Health and auth (public) ──────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 16))
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Customers and their product lists
		r.Get("/api/customers", h.listCustomers)
		r.Post("/api/customers", h.createCustomer)
		r.Route("/api/customers/{id}", func(r chi.Router) {
			r.Get("/", h.getCustomer)
			r.Put("/", h.updateCustomer)
			r.Delete("/", h.deleteCustomer)
			r.Post("/deactivate", h.deactivateCustomer)
			r.Post("/reactivate", h.reactivateCustomer)

			r.Get("/products", h.listAssignments)
			r.Put("/products", h.saveAssignments)
			r.Delete("/products/{productID}", h.removeAssignment)
			r.Get("/products/{productID}/price", h.resolvePrice)

			r.Get("/due", h.customerDue)
			r.Get("/summary", h.periodSummary)
			r.Get("/statement", h.customerStatement)
		})

		// Catalogue
		r.Get("/api/products", h.listProducts)
		r.Post("/api/products", h.createProduct)
		r.Put("/api/products/{id}", h.updateProduct)
		r.Delete("/api/products/{id}", h.deleteProduct)
		r.Post("/api/products/{id}/price", h.changeDefaultPrice)

		// Ledger entries
		r.Get("/api/sales", h.listSales)
		r.Post("/api/sales", h.recordSale)
		r.Post("/api/sales/defaults", h.recordDefaultDeliveries)
		r.Patch("/api/sales/{id}", h.moveSale)
		r.Delete("/api/sales/{id}", h.deleteSale)

		r.Get("/api/payments", h.listPayments)
		r.Post("/api/payments", h.recordPayment)
		r.Delete("/api/payments/{id}", h.deletePayment)

		r.Get("/api/expenses", h.listExpenses)
		r.Post("/api/expenses", h.recordExpense)
		r.Delete("/api/expenses/{id}", h.deleteExpense)

		// Dues and reports
		r.Get("/api/dues", h.dues)
		r.Get("/api/reports/summary", h.aggregateSummary)
		r.Get("/api/reports/dues", h.customersWithDues)
		r.Get("/api/reports/snapshot", h.monthlySnapshot)

		// Assistant
		r.Post("/api/assistant/interpret", h.assistantInterpret)
		r.Post("/api/assistant/confirm", h.assistantConfirm)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// idParam parses a positive integer URL parameter, writing a 400 when it is malformed.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
