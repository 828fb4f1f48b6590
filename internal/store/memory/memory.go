// Package memory is an in-process core.Store used for demo mode and tests.
// It mirrors the constraints of the PostgreSQL schema: unique keys for assignments and
// sales, cascades from customers and products, and all-or-nothing transactions.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"milk-ledger/internal/core"
)

type assignmentKey struct {
	customerID int
	productID  int
}

type saleKey struct {
	customerID int
	productID  int
	day        time.Time
}

type data struct {
	seq         map[string]int
	customers   map[int]core.Customer
	products    map[int]core.Product
	assignments map[assignmentKey]core.CustomerProduct
	sales       map[int]core.Sale
	salesByKey  map[saleKey]int
	payments    map[int]core.Payment
	expenses    map[int]core.Expense
}

func newData() *data {
	return &data{
		seq:         make(map[string]int),
		customers:   make(map[int]core.Customer),
		products:    make(map[int]core.Product),
		assignments: make(map[assignmentKey]core.CustomerProduct),
		sales:       make(map[int]core.Sale),
		salesByKey:  make(map[saleKey]int),
		payments:    make(map[int]core.Payment),
		expenses:    make(map[int]core.Expense),
	}
}

func (d *data) clone() *data {
	return &data{
		seq:         cloneMap(d.seq),
		customers:   cloneMap(d.customers),
		products:    cloneMap(d.products),
		assignments: cloneMap(d.assignments),
		sales:       cloneMap(d.sales),
		salesByKey:  cloneMap(d.salesByKey),
		payments:    cloneMap(d.payments),
		expenses:    cloneMap(d.expenses),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) next(table string) int {
	d.seq[table]++
	return d.seq[table]
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	d    *data
}

func New() *Store {
	return &Store{d: newData()}
}

// DemoCatalogue is the starter product list, also loaded into PostgreSQL by cmd/seed.
var DemoCatalogue = []core.ProductInput{
	{Name: "Cow Milk", Unit: "litre", DefaultPrice: decimal.NewFromInt(60)},
	{Name: "Buffalo Milk", Unit: "litre", DefaultPrice: decimal.NewFromInt(70)},
	{Name: "Curd", Unit: "kg", DefaultPrice: decimal.NewFromInt(90)},
}

// NewSeeded returns a store holding the demo catalogue used when no database is configured.
func NewSeeded() *Store {
	s := New()
	ctx := context.Background()
	for _, p := range DemoCatalogue {
		_, _ = s.CreateProduct(ctx, p)
	}
	return s
}

// txView is the store handed to InTx and ReadSnapshot callbacks. Nested transactions
// join the outer one.
type txView struct {
	*Store
}

func (t txView) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	return fn(t)
}

func (t txView) ReadSnapshot(ctx context.Context, fn func(tx core.Store) error) error {
	return fn(t)
}

func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.d.clone()
	s.mu.RUnlock()

	if err := fn(txView{s}); err != nil {
		s.mu.Lock()
		s.d = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// ReadSnapshot serialises with transactions, which is all the isolation a single writer needs.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(tx core.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(txView{s})
}

func (s *Store) Close() error { return nil }

// ── Customers ─────────────────────────────────────────────────────────────────

func (s *Store) CreateCustomer(ctx context.Context, in core.CustomerInput) (*core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := core.Customer{
		ID:        s.d.next("customers"),
		Name:      in.Name,
		Address:   in.Address,
		Phone:     in.Phone,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	s.d.customers[c.ID] = c
	return &c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id int, in core.CustomerInput) (*core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.d.customers[id]
	if !ok {
		return nil, core.NewNotFound("customer", id)
	}
	c.Name, c.Address, c.Phone = in.Name, in.Address, in.Phone
	s.d.customers[id] = c
	return &c, nil
}

func (s *Store) SetCustomerActive(ctx context.Context, id int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.d.customers[id]
	if !ok {
		return core.NewNotFound("customer", id)
	}
	c.Active = active
	s.d.customers[id] = c
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.customers[id]; !ok {
		return core.NewNotFound("customer", id)
	}
	delete(s.d.customers, id)
	for k := range s.d.assignments {
		if k.customerID == id {
			delete(s.d.assignments, k)
		}
	}
	for saleID, sale := range s.d.sales {
		if sale.CustomerID == id {
			s.deleteSaleLocked(saleID)
		}
	}
	for pid, p := range s.d.payments {
		if p.CustomerID == id {
			delete(s.d.payments, pid)
		}
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.d.customers[id]
	if !ok {
		return nil, core.NewNotFound("customer", id)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, activeOnly bool) ([]core.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Customer, 0, len(s.d.customers))
	for _, c := range s.d.customers {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.Customer) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return a.ID - b.ID
	})
	return out, nil
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *Store) CreateProduct(ctx context.Context, in core.ProductInput) (*core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := core.Product{
		ID:           s.d.next("products"),
		Name:         in.Name,
		Unit:         in.Unit,
		DefaultPrice: in.DefaultPrice,
		CreatedAt:    time.Now().UTC(),
	}
	s.d.products[p.ID] = p
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int, name, unit string) (*core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.d.products[id]
	if !ok {
		return nil, core.NewNotFound("product", id)
	}
	p.Name, p.Unit = name, unit
	s.d.products[id] = p
	return &p, nil
}

func (s *Store) SetDefaultPrice(ctx context.Context, id int, price decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.d.products[id]
	if !ok {
		return core.NewNotFound("product", id)
	}
	p.DefaultPrice = price
	s.d.products[id] = p
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.products[id]; !ok {
		return core.NewNotFound("product", id)
	}
	delete(s.d.products, id)
	for k := range s.d.assignments {
		if k.productID == id {
			delete(s.d.assignments, k)
		}
	}
	for saleID, sale := range s.d.sales {
		if sale.ProductID == id {
			s.deleteSaleLocked(saleID)
		}
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id int) (*core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.d.products[id]
	if !ok {
		return nil, core.NewNotFound("product", id)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]core.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Product, 0, len(s.d.products))
	for _, p := range s.d.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b core.Product) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return a.ID - b.ID
	})
	return out, nil
}

// ── Assignments ───────────────────────────────────────────────────────────────

func (s *Store) UpsertAssignment(ctx context.Context, a core.CustomerProduct) (*core.CustomerProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.customers[a.CustomerID]; !ok {
		return nil, core.NewNotFound("customer", a.CustomerID)
	}
	p, ok := s.d.products[a.ProductID]
	if !ok {
		return nil, core.NewNotFound("product", a.ProductID)
	}
	a.ProductName, a.Unit = "", ""
	s.d.assignments[assignmentKey{a.CustomerID, a.ProductID}] = a
	a.ProductName, a.Unit = p.Name, p.Unit
	return &a, nil
}

func (s *Store) GetAssignment(ctx context.Context, customerID, productID int) (*core.CustomerProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.d.assignments[assignmentKey{customerID, productID}]
	if !ok {
		return nil, nil
	}
	s.fillProduct(&a)
	return &a, nil
}

func (s *Store) fillProduct(a *core.CustomerProduct) {
	if p, ok := s.d.products[a.ProductID]; ok {
		a.ProductName, a.Unit = p.Name, p.Unit
	}
}

func (s *Store) ListAssignments(ctx context.Context, customerID int) ([]core.CustomerProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.CustomerProduct
	for k, a := range s.d.assignments {
		if k.customerID != customerID {
			continue
		}
		s.fillProduct(&a)
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b core.CustomerProduct) int {
		if n := strings.Compare(a.ProductName, b.ProductName); n != 0 {
			return n
		}
		return a.ProductID - b.ProductID
	})
	return out, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, customerID, productID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := assignmentKey{customerID, productID}
	if _, ok := s.d.assignments[k]; !ok {
		return core.NewNotFound("assignment for product", productID)
	}
	delete(s.d.assignments, k)
	return nil
}

func (s *Store) SetCustomPrices(ctx context.Context, productID int, price decimal.Decimal) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, a := range s.d.assignments {
		if k.productID != productID {
			continue
		}
		a.CustomPrice = price
		s.d.assignments[k] = a
		n++
	}
	return n, nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (s *Store) FindSale(ctx context.Context, customerID, productID int, day time.Time) (*core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.d.salesByKey[saleKey{customerID, productID, core.Day(day)}]
	if !ok {
		return nil, nil
	}
	sale := s.d.sales[id]
	return &sale, nil
}

func (s *Store) GetSale(ctx context.Context, id int) (*core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.d.sales[id]
	if !ok {
		return nil, core.NewNotFound("sale", id)
	}
	return &sale, nil
}

func (s *Store) UpsertSale(ctx context.Context, sale core.Sale) (*core.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.customers[sale.CustomerID]; !ok {
		return nil, core.NewNotFound("customer", sale.CustomerID)
	}
	if _, ok := s.d.products[sale.ProductID]; !ok {
		return nil, core.NewNotFound("product", sale.ProductID)
	}
	sale.SaleDate = core.Day(sale.SaleDate)
	key := saleKey{sale.CustomerID, sale.ProductID, sale.SaleDate}
	if id, ok := s.d.salesByKey[key]; ok {
		sale.ID = id
	} else {
		sale.ID = s.d.next("daily_sales")
		s.d.salesByKey[key] = sale.ID
	}
	s.d.sales[sale.ID] = sale
	return &sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.sales[id]; !ok {
		return core.NewNotFound("sale", id)
	}
	s.deleteSaleLocked(id)
	return nil
}

func (s *Store) deleteSaleLocked(id int) {
	sale := s.d.sales[id]
	delete(s.d.salesByKey, saleKey{sale.CustomerID, sale.ProductID, sale.SaleDate})
	delete(s.d.sales, id)
}

func (s *Store) ListSales(ctx context.Context, f core.SaleFilter) ([]core.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Sale
	for _, sale := range s.d.sales {
		if f.CustomerID != 0 && sale.CustomerID != f.CustomerID {
			continue
		}
		if f.ProductID != 0 && sale.ProductID != f.ProductID {
			continue
		}
		if !f.Range.Contains(sale.SaleDate) {
			continue
		}
		out = append(out, sale)
	}
	slices.SortFunc(out, func(a, b core.Sale) int {
		if n := a.SaleDate.Compare(b.SaleDate); n != 0 {
			return n
		}
		return a.ID - b.ID
	})
	return out, nil
}

// ── Payments ──────────────────────────────────────────────────────────────────

func (s *Store) CreatePayment(ctx context.Context, in core.PaymentInput) (*core.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.customers[in.CustomerID]; !ok {
		return nil, core.NewNotFound("customer", in.CustomerID)
	}
	p := core.Payment{
		ID:          s.d.next("payments"),
		CustomerID:  in.CustomerID,
		AmountPaid:  in.Amount,
		PaymentDate: core.Day(in.Date),
		Notes:       in.Notes,
	}
	s.d.payments[p.ID] = p
	return &p, nil
}

func (s *Store) GetPayment(ctx context.Context, id int) (*core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.d.payments[id]
	if !ok {
		return nil, core.NewNotFound("payment", id)
	}
	return &p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.payments[id]; !ok {
		return core.NewNotFound("payment", id)
	}
	delete(s.d.payments, id)
	return nil
}

func (s *Store) ListPayments(ctx context.Context, f core.PaymentFilter) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Payment
	for _, p := range s.d.payments {
		if f.CustomerID != 0 && p.CustomerID != f.CustomerID {
			continue
		}
		if !f.Range.Contains(p.PaymentDate) {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b core.Payment) int {
		if n := a.PaymentDate.Compare(b.PaymentDate); n != 0 {
			return n
		}
		return a.ID - b.ID
	})
	return out, nil
}

// ── Expenses ──────────────────────────────────────────────────────────────────

func (s *Store) CreateExpense(ctx context.Context, in core.ExpenseInput) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:          s.d.next("expenses"),
		Amount:      in.Amount,
		Category:    in.Category,
		Note:        in.Note,
		ExpenseDate: core.Day(in.Date),
	}
	s.d.expenses[e.ID] = e
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.expenses[id]; !ok {
		return core.NewNotFound("expense", id)
	}
	delete(s.d.expenses, id)
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, r core.DateRange) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Expense
	for _, e := range s.d.expenses {
		if r.Contains(e.ExpenseDate) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b core.Expense) int {
		if n := a.ExpenseDate.Compare(b.ExpenseDate); n != 0 {
			return n
		}
		return a.ID - b.ID
	})
	return out, nil
}

// ── Aggregates ────────────────────────────────────────────────────────────────

func (s *Store) SumSales(ctx context.Context, customerID int, r core.DateRange) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, sale := range s.d.sales {
		if customerID != 0 && sale.CustomerID != customerID {
			continue
		}
		if r.Contains(sale.SaleDate) {
			total = total.Add(sale.TotalAmount)
		}
	}
	return total, nil
}

func (s *Store) SumPayments(ctx context.Context, customerID int, r core.DateRange) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, p := range s.d.payments {
		if customerID != 0 && p.CustomerID != customerID {
			continue
		}
		if r.Contains(p.PaymentDate) {
			total = total.Add(p.AmountPaid)
		}
	}
	return total, nil
}

func (s *Store) SumExpenses(ctx context.Context, r core.DateRange) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, e := range s.d.expenses {
		if r.Contains(e.ExpenseDate) {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *Store) DuesAsOf(ctx context.Context, day time.Time) ([]core.CustomerDue, error) {
	customers, err := s.ListCustomers(ctx, true)
	if err != nil {
		return nil, err
	}
	r := core.UpTo(day)
	out := make([]core.CustomerDue, 0, len(customers))
	for _, c := range customers {
		sales, err := s.SumSales(ctx, c.ID, r)
		if err != nil {
			return nil, err
		}
		payments, err := s.SumPayments(ctx, c.ID, r)
		if err != nil {
			return nil, err
		}
		out = append(out, core.CustomerDue{CustomerID: c.ID, Name: c.Name, Due: sales.Sub(payments)})
	}
	return out, nil
}
