package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"milk-ledger/internal/ai"
	"milk-ledger/internal/core"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// ErrAssistantDisabled is returned by InterpretNote when no OpenAI key is configured.
var ErrAssistantDisabled = errors.New("assistant is not configured")

// ErrInvalidCredentials is returned by AuthenticateOperator on any mismatch.
var ErrInvalidCredentials = errors.New("invalid username or password")

// NoteInterpreter reads a free-text note into a proposal. *ai.Agent implements it.
type NoteInterpreter interface {
	InterpretNote(ctx context.Context, note, register string, today time.Time) (*ai.EntryProposal, error)
}

// NewInterpreter returns the OpenAI-backed interpreter, or nil when no API key is set
// so the assistant reports itself disabled.
func NewInterpreter(apiKey, model string) NoteInterpreter {
	if apiKey == "" {
		return nil
	}
	return ai.NewAgent(apiKey, model)
}

// Operator holds the single operator account the web adapter authenticates against.
type Operator struct {
	Username     string
	PasswordHash string
}

// Services bundles the core services the application layer orchestrates.
type Services struct {
	Customers core.CustomerService
	Products  core.ProductService
	Pricing   core.PricingService
	Sales     core.SaleService
	Payments  core.PaymentService
	Expenses  core.ExpenseService
	Ledger    core.LedgerService
	Reports   core.ReportingService
}

// NewServices builds every core service over one store.
func NewServices(store core.Store) Services {
	return Services{
		Customers: core.NewCustomerService(store),
		Products:  core.NewProductService(store),
		Pricing:   core.NewPricingService(store),
		Sales:     core.NewSaleService(store),
		Payments:  core.NewPaymentService(store),
		Expenses:  core.NewExpenseService(store),
		Ledger:    core.NewLedger(store),
		Reports:   core.NewReportingService(store),
	}
}

type appService struct {
	Services
	agent    NoteInterpreter
	operator Operator
	now      func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil, which disables InterpretNote.
func NewAppService(svc Services, agent NoteInterpreter, operator Operator) ApplicationService {
	return &appService{
		Services: svc,
		agent:    agent,
		operator: operator,
		now:      time.Now,
	}
}

// ── Date helpers ──────────────────────────────────────────────────────────────

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &core.ValidationError{Field: field, Reason: "is required"}
	}
	d, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return time.Time{}, &core.ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return d, nil
}

// dateOrToday parses s, defaulting to today when s is empty.
func (s *appService) dateOrToday(field, v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return core.Day(s.now()), nil
	}
	return parseDate(field, v)
}

func parseRange(from, to string) (core.DateRange, error) {
	var r core.DateRange
	var err error
	if strings.TrimSpace(from) != "" {
		if r.From, err = parseDate("from", from); err != nil {
			return r, err
		}
	}
	if strings.TrimSpace(to) != "" {
		if r.To, err = parseDate("to", to); err != nil {
			return r, err
		}
	}
	return r, nil
}

func parsePeriod(from, to string) (time.Time, time.Time, error) {
	start, err := parseDate("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ── Customers ─────────────────────────────────────────────────────────────────

func (s *appService) CreateCustomer(ctx context.Context, req CustomerRequest) (*core.Customer, error) {
	return s.Customers.CreateCustomer(ctx, core.CustomerInput(req))
}

func (s *appService) UpdateCustomer(ctx context.Context, id int, req CustomerRequest) (*core.Customer, error) {
	return s.Customers.UpdateCustomer(ctx, id, core.CustomerInput(req))
}

func (s *appService) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	return s.Customers.GetCustomer(ctx, id)
}

func (s *appService) ListCustomers(ctx context.Context, includeInactive bool) (*CustomerListResult, error) {
	customers, err := s.Customers.ListCustomers(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) DeactivateCustomer(ctx context.Context, id int) error {
	return s.Customers.DeactivateCustomer(ctx, id)
}

func (s *appService) ReactivateCustomer(ctx context.Context, id int) error {
	return s.Customers.ReactivateCustomer(ctx, id)
}

func (s *appService) DeleteCustomer(ctx context.Context, id int) error {
	return s.Customers.DeleteCustomer(ctx, id)
}

// ── Products and pricing ──────────────────────────────────────────────────────

func (s *appService) CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error) {
	return s.Products.CreateProduct(ctx, core.ProductInput(req))
}

func (s *appService) UpdateProduct(ctx context.Context, id int, req ProductRequest) (*core.Product, error) {
	return s.Products.UpdateProduct(ctx, id, req.Name, req.Unit)
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.Products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) DeleteProduct(ctx context.Context, id int) error {
	return s.Products.DeleteProduct(ctx, id)
}

func (s *appService) ChangeDefaultPrice(ctx context.Context, req PriceChangeRequest) (*PriceChangeResult, error) {
	if req.ApplyToCustomers && !req.Confirm {
		return nil, &core.ValidationError{Field: "confirm", Reason: "overwriting customer prices must be confirmed"}
	}
	n, err := s.Pricing.PropagateDefaultPriceChange(ctx, req.ProductID, req.NewPrice, req.ApplyToCustomers)
	if err != nil {
		return nil, err
	}
	p, err := s.Products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	return &PriceChangeResult{Product: p, Overwritten: n}, nil
}

func (s *appService) ListAssignments(ctx context.Context, customerID int) (*AssignmentListResult, error) {
	list, err := s.Pricing.ListAssignments(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &AssignmentListResult{CustomerID: customerID, Assignments: list}, nil
}

func (s *appService) SaveAssignments(ctx context.Context, customerID int, reqs []AssignmentRequest) (*AssignmentListResult, error) {
	inputs := make([]core.AssignmentInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = core.AssignmentInput(r)
	}
	if _, err := s.Pricing.SaveAssignments(ctx, customerID, inputs); err != nil {
		return nil, err
	}
	return s.ListAssignments(ctx, customerID)
}

func (s *appService) RemoveAssignment(ctx context.Context, customerID, productID int) error {
	return s.Pricing.RemoveAssignment(ctx, customerID, productID)
}

func (s *appService) ResolvePrice(ctx context.Context, customerID, productID int) (*PriceResult, error) {
	price, err := s.Pricing.ResolveEffectivePrice(ctx, customerID, productID)
	if err != nil {
		return nil, err
	}
	return &PriceResult{CustomerID: customerID, ProductID: productID, Price: price}, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *appService) RecordSale(ctx context.Context, req SaleRequest) (*core.Sale, error) {
	date, err := parseDate("sale_date", req.Date)
	if err != nil {
		return nil, err
	}
	in := core.SaleInput{
		CustomerID: req.CustomerID,
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Date:       date,
	}
	if req.PricePerUnit != nil {
		in.PricePerUnit = *req.PricePerUnit
	} else {
		if err := in.Validate(); err != nil {
			return nil, err
		}
		if in.PricePerUnit, err = s.Pricing.ResolveEffectivePrice(ctx, req.CustomerID, req.ProductID); err != nil {
			return nil, err
		}
	}
	return s.Sales.RecordOrUpdateSale(ctx, in)
}

func (s *appService) MoveSale(ctx context.Context, saleID int, newDate string) (*core.Sale, error) {
	date, err := parseDate("sale_date", newDate)
	if err != nil {
		return nil, err
	}
	return s.Sales.MoveSale(ctx, saleID, date)
}

func (s *appService) DeleteSale(ctx context.Context, saleID int) error {
	return s.Sales.DeleteSale(ctx, saleID)
}

func (s *appService) ListSales(ctx context.Context, q LedgerQuery) (*SaleListResult, error) {
	r, err := parseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	sales, err := s.Sales.ListSales(ctx, core.SaleFilter{CustomerID: q.CustomerID, ProductID: q.ProductID, Range: r})
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: sales, Total: core.SumSales(sales)}, nil
}

func (s *appService) RecordDefaultDeliveries(ctx context.Context, date string) (*SaleListResult, error) {
	day, err := s.dateOrToday("sale_date", date)
	if err != nil {
		return nil, err
	}
	created, err := s.Sales.RecordDefaultDeliveries(ctx, day)
	if err != nil {
		return nil, err
	}
	return &SaleListResult{Sales: created, Total: core.SumSales(created)}, nil
}

// ── Payments and expenses ─────────────────────────────────────────────────────

func (s *appService) RecordPayment(ctx context.Context, req PaymentRequest) (*core.Payment, error) {
	date, err := parseDate("payment_date", req.Date)
	if err != nil {
		return nil, err
	}
	return s.Payments.RecordPayment(ctx, core.PaymentInput{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Date:       date,
		Notes:      req.Notes,
	})
}

func (s *appService) DeletePayment(ctx context.Context, id int) error {
	return s.Payments.DeletePayment(ctx, id)
}

func (s *appService) ListPayments(ctx context.Context, q LedgerQuery) (*PaymentListResult, error) {
	r, err := parseRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	payments, err := s.Payments.ListPayments(ctx, core.PaymentFilter{CustomerID: q.CustomerID, Range: r})
	if err != nil {
		return nil, err
	}
	return &PaymentListResult{Payments: payments, Total: core.SumPayments(payments)}, nil
}

func (s *appService) RecordExpense(ctx context.Context, req ExpenseRequest) (*core.Expense, error) {
	date, err := parseDate("expense_date", req.Date)
	if err != nil {
		return nil, err
	}
	return s.Expenses.RecordExpense(ctx, core.ExpenseInput{
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
		Date:     date,
	})
}

func (s *appService) DeleteExpense(ctx context.Context, id int) error {
	return s.Expenses.DeleteExpense(ctx, id)
}

func (s *appService) ListExpenses(ctx context.Context, from, to string) (*ExpenseListResult, error) {
	r, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.Expenses.ListExpenses(ctx, r)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return &ExpenseListResult{Expenses: expenses, Total: total}, nil
}

// ── Ledger and reports ────────────────────────────────────────────────────────

func (s *appService) GetCustomerDue(ctx context.Context, customerID int, asOf string) (*DueResult, error) {
	day, err := s.dateOrToday("as_of", asOf)
	if err != nil {
		return nil, err
	}
	due, err := s.Ledger.TotalDueAsOf(ctx, customerID, day)
	if err != nil {
		return nil, err
	}
	return &DueResult{CustomerID: customerID, AsOf: day.Format(core.DateLayout), Due: due}, nil
}

func (s *appService) GetDues(ctx context.Context, asOf string, outstandingOnly bool) (*DuesResult, error) {
	day, err := s.dateOrToday("as_of", asOf)
	if err != nil {
		return nil, err
	}
	filter := core.AllDues
	if outstandingOnly {
		filter = core.OutstandingDues
	}
	dues, err := s.Ledger.TotalDueForAllActiveCustomers(ctx, day, filter)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, d := range dues {
		total = total.Add(d.Due)
	}
	return &DuesResult{AsOf: day.Format(core.DateLayout), Dues: dues, Total: total}, nil
}

func (s *appService) GetPeriodSummary(ctx context.Context, customerID int, from, to string) (*core.PeriodSummary, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return nil, err
	}
	return s.Reports.PeriodSummary(ctx, customerID, start, end)
}

func (s *appService) GetAggregateSummary(ctx context.Context, from, to string) (*core.AggregateSummary, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return nil, err
	}
	return s.Reports.AggregatePeriodSummary(ctx, start, end)
}

func (s *appService) GetCustomersWithDues(ctx context.Context, from, to string) (*DuesReportResult, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.Reports.CustomersWithDues(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &DuesReportResult{From: from, To: to, Customers: rows}, nil
}

func (s *appService) GetCustomerStatement(ctx context.Context, customerID int, from, to string) (*core.Statement, error) {
	start, end, err := parsePeriod(from, to)
	if err != nil {
		return nil, err
	}
	return s.Reports.CustomerStatement(ctx, customerID, start, end)
}

func (s *appService) GetMonthlySnapshot(ctx context.Context, year, month int) (*core.Snapshot, error) {
	return s.Reports.BackupSnapshot(ctx, year, month)
}

// ── Assistant ─────────────────────────────────────────────────────────────────

func (s *appService) InterpretNote(ctx context.Context, note string) (*AIResult, error) {
	if s.agent == nil {
		return nil, ErrAssistantDisabled
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, &core.ValidationError{Field: "note", Reason: "is required"}
	}

	customers, err := s.Customers.ListCustomers(ctx, false)
	if err != nil {
		return nil, err
	}
	products, err := s.Products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	today := core.Day(s.now())
	proposal, err := s.agent.InterpretNote(ctx, note, buildRegister(customers, products), today)
	if err != nil {
		return nil, err
	}
	return s.resolveProposal(ctx, proposal, customers, products)
}

func buildRegister(customers []core.Customer, products []core.Product) string {
	var sb strings.Builder
	sb.WriteString("Customers:\n")
	for _, c := range customers {
		fmt.Fprintf(&sb, "- %s\n", c.Name)
	}
	sb.WriteString("Products:\n")
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s (per %s)\n", p.Name, p.Unit)
	}
	return sb.String()
}

// resolveProposal maps the names in a proposal onto register rows and prices it.
func (s *appService) resolveProposal(ctx context.Context, p *ai.EntryProposal, customers []core.Customer, products []core.Product) (*AIResult, error) {
	if p.Kind != ai.KindSale && p.Kind != ai.KindPayment {
		return &AIResult{IsClarification: true, ClarificationMessage: "Was this a delivery or a payment?"}, nil
	}
	var customer *core.Customer
	for i := range customers {
		if strings.EqualFold(customers[i].Name, p.CustomerName) {
			customer = &customers[i]
			break
		}
	}
	if customer == nil {
		return &AIResult{IsClarification: true, ClarificationMessage: fmt.Sprintf("No active customer named %q. Which customer did you mean?", p.CustomerName)}, nil
	}

	entry := &ProposedEntry{
		Kind:         p.Kind,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Date:         p.Date,
		Notes:        p.Notes,
		Confidence:   p.Confidence,
		Reasoning:    p.Reasoning,
	}

	if p.Kind == ai.KindPayment {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return nil, &core.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", p.Amount)}
		}
		entry.Amount = amount
		return &AIResult{Proposal: entry}, nil
	}

	var product *core.Product
	for i := range products {
		if strings.EqualFold(products[i].Name, p.ProductName) {
			product = &products[i]
			break
		}
	}
	if product == nil {
		return &AIResult{IsClarification: true, ClarificationMessage: fmt.Sprintf("No product named %q. Which product was delivered?", p.ProductName)}, nil
	}

	entry.ProductID = product.ID
	entry.ProductName = product.Name
	qty, err := decimal.NewFromString(p.Quantity)
	if err != nil {
		return nil, &core.ValidationError{Field: "quantity", Reason: fmt.Sprintf("%q is not a number", p.Quantity)}
	}
	entry.Quantity = qty
	price, err := s.Pricing.ResolveEffectivePrice(ctx, customer.ID, product.ID)
	if err != nil {
		return nil, err
	}
	entry.PricePerUnit = price

	date, err := parseDate("date", p.Date)
	if err != nil {
		return nil, err
	}
	if entry.Replaces, err = s.Sales.FindSale(ctx, customer.ID, product.ID, date); err != nil {
		return nil, err
	}
	return &AIResult{Proposal: entry}, nil
}

func (s *appService) CommitProposal(ctx context.Context, p ProposedEntry) (*CommitResult, error) {
	switch p.Kind {
	case ai.KindSale:
		price := p.PricePerUnit
		sale, err := s.RecordSale(ctx, SaleRequest{
			CustomerID:   p.CustomerID,
			ProductID:    p.ProductID,
			Quantity:     p.Quantity,
			PricePerUnit: &price,
			Date:         p.Date,
		})
		if err != nil {
			return nil, err
		}
		return &CommitResult{Sale: sale}, nil
	case ai.KindPayment:
		payment, err := s.RecordPayment(ctx, PaymentRequest{
			CustomerID: p.CustomerID,
			Amount:     p.Amount,
			Date:       p.Date,
			Notes:      p.Notes,
		})
		if err != nil {
			return nil, err
		}
		return &CommitResult{Payment: payment}, nil
	default:
		return nil, &core.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown entry kind %q", p.Kind)}
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func (s *appService) AuthenticateOperator(ctx context.Context, username, password string) (*OperatorSession, error) {
	if s.operator.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.operator.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.operator.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}
	return &OperatorSession{Username: s.operator.Username, Role: "operator"}, nil
}
