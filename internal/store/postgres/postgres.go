// Package postgres is the PostgreSQL core.Store. Dates are stored as DATE, money and
// quantities as NUMERIC, and the schema lives in the migrations package.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"milk-ledger/internal/core"
	"milk-ledger/internal/db"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	q    pgxQuerier
	tx   bool
}

// Open connects to databaseURL and returns a Store owning the pool.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Pool exposes the underlying pool for migrations and test cleanup.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Close() error {
	if !s.tx && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	if s.tx {
		return fn(s)
	}
	return s.runTx(ctx, pgx.TxOptions{}, fn)
}

func (s *Store) ReadSnapshot(ctx context.Context, fn func(tx core.Store) error) error {
	if s.tx {
		return fn(s)
	}
	return s.runTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) runTx(ctx context.Context, opts pgx.TxOptions, fn func(tx core.Store) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&Store{pool: s.pool, q: tx, tx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ── Error mapping ─────────────────────────────────────────────────────────────

// mapErr translates pgx and constraint errors into core errors. customerID and productID
// name the referenced rows for foreign key violations.
func mapErr(err error, customerID, productID int) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			if strings.Contains(pgErr.ConstraintName, "product") {
				return core.NewNotFound("product", productID)
			}
			return core.NewNotFound("customer", customerID)
		case "23505":
			return fmt.Errorf("%w: %s", core.ErrConflict, pgErr.Detail)
		case "23514":
			return &core.ValidationError{Field: pgErr.ConstraintName, Reason: "violates check constraint"}
		}
	}
	return err
}

func notFoundOr(err error, entity string, id int) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.NewNotFound(entity, id)
	}
	return err
}

func affected(tag pgconn.CommandTag, err error, entity string, id int) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFound(entity, id)
	}
	return nil
}

// rangeClause appends inclusive date bounds on col to a WHERE clause.
func rangeClause(col string, r core.DateRange, args []any) (string, []any) {
	var sb strings.Builder
	if !r.From.IsZero() {
		args = append(args, core.Day(r.From))
		fmt.Fprintf(&sb, " AND %s >= $%d::date", col, len(args))
	}
	if !r.To.IsZero() {
		args = append(args, core.Day(r.To))
		fmt.Fprintf(&sb, " AND %s <= $%d::date", col, len(args))
	}
	return sb.String(), args
}

// ── Customers ─────────────────────────────────────────────────────────────────

const customerColumns = "id, name, address, phone, active, created_at"

func scanCustomer(row pgx.Row) (*core.Customer, error) {
	var c core.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, in core.CustomerInput) (*core.Customer, error) {
	c, err := scanCustomer(s.q.QueryRow(ctx, `
		INSERT INTO customers (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING `+customerColumns,
		in.Name, in.Address, in.Phone))
	if err != nil {
		return nil, mapErr(err, 0, 0)
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, id int, in core.CustomerInput) (*core.Customer, error) {
	c, err := scanCustomer(s.q.QueryRow(ctx, `
		UPDATE customers SET name = $2, address = $3, phone = $4
		WHERE id = $1
		RETURNING `+customerColumns,
		id, in.Name, in.Address, in.Phone))
	if err != nil {
		return nil, notFoundOr(err, "customer", id)
	}
	return c, nil
}

func (s *Store) SetCustomerActive(ctx context.Context, id int, active bool) error {
	tag, err := s.q.Exec(ctx, "UPDATE customers SET active = $2 WHERE id = $1", id, active)
	return affected(tag, err, "customer", id)
}

func (s *Store) DeleteCustomer(ctx context.Context, id int) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	return affected(tag, err, "customer", id)
}

func (s *Store) GetCustomer(ctx context.Context, id int) (*core.Customer, error) {
	c, err := scanCustomer(s.q.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id))
	if err != nil {
		return nil, notFoundOr(err, "customer", id)
	}
	return c, nil
}

func (s *Store) ListCustomers(ctx context.Context, activeOnly bool) ([]core.Customer, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE ($1 = false OR active)
		ORDER BY name, id`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []core.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ── Products ──────────────────────────────────────────────────────────────────

const productColumns = "id, name, unit, default_price, created_at"

func scanProduct(row pgx.Row) (*core.Product, error) {
	var p core.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.DefaultPrice, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, in core.ProductInput) (*core.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx, `
		INSERT INTO products (name, unit, default_price)
		VALUES ($1, $2, $3)
		RETURNING `+productColumns,
		in.Name, in.Unit, in.DefaultPrice))
	if err != nil {
		return nil, mapErr(err, 0, 0)
	}
	return p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int, name, unit string) (*core.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx, `
		UPDATE products SET name = $2, unit = $3
		WHERE id = $1
		RETURNING `+productColumns,
		id, name, unit))
	if err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return p, nil
}

func (s *Store) SetDefaultPrice(ctx context.Context, id int, price decimal.Decimal) error {
	tag, err := s.q.Exec(ctx, "UPDATE products SET default_price = $2 WHERE id = $1", id, price)
	return affected(tag, mapErr(err, 0, id), "product", id)
}

func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	return affected(tag, err, "product", id)
}

func (s *Store) GetProduct(ctx context.Context, id int) (*core.Product, error) {
	p, err := scanProduct(s.q.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := s.q.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ── Assignments ───────────────────────────────────────────────────────────────

func (s *Store) UpsertAssignment(ctx context.Context, a core.CustomerProduct) (*core.CustomerProduct, error) {
	out := a
	err := s.q.QueryRow(ctx, `
		WITH upserted AS (
			INSERT INTO customer_products (customer_id, product_id, custom_price, default_quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (customer_id, product_id)
			DO UPDATE SET custom_price = EXCLUDED.custom_price, default_quantity = EXCLUDED.default_quantity
			RETURNING customer_id, product_id, custom_price, default_quantity
		)
		SELECT u.custom_price, u.default_quantity, p.name, p.unit
		FROM upserted u JOIN products p ON p.id = u.product_id`,
		a.CustomerID, a.ProductID, a.CustomPrice, a.DefaultQuantity,
	).Scan(&out.CustomPrice, &out.DefaultQuantity, &out.ProductName, &out.Unit)
	if err != nil {
		return nil, mapErr(err, a.CustomerID, a.ProductID)
	}
	return &out, nil
}

const assignmentSelect = `
	SELECT cp.customer_id, cp.product_id, cp.custom_price, cp.default_quantity, p.name, p.unit
	FROM customer_products cp
	JOIN products p ON p.id = cp.product_id`

func scanAssignment(row pgx.Row) (*core.CustomerProduct, error) {
	var a core.CustomerProduct
	if err := row.Scan(&a.CustomerID, &a.ProductID, &a.CustomPrice, &a.DefaultQuantity, &a.ProductName, &a.Unit); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAssignment(ctx context.Context, customerID, productID int) (*core.CustomerProduct, error) {
	a, err := scanAssignment(s.q.QueryRow(ctx,
		assignmentSelect+" WHERE cp.customer_id = $1 AND cp.product_id = $2", customerID, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *Store) ListAssignments(ctx context.Context, customerID int) ([]core.CustomerProduct, error) {
	rows, err := s.q.Query(ctx, assignmentSelect+" WHERE cp.customer_id = $1 ORDER BY p.name, p.id", customerID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []core.CustomerProduct
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAssignment(ctx context.Context, customerID, productID int) error {
	tag, err := s.q.Exec(ctx,
		"DELETE FROM customer_products WHERE customer_id = $1 AND product_id = $2", customerID, productID)
	return affected(tag, err, "assignment for product", productID)
}

func (s *Store) SetCustomPrices(ctx context.Context, productID int, price decimal.Decimal) (int, error) {
	tag, err := s.q.Exec(ctx, "UPDATE customer_products SET custom_price = $2 WHERE product_id = $1", productID, price)
	if err != nil {
		return 0, mapErr(err, 0, productID)
	}
	return int(tag.RowsAffected()), nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

const saleColumns = "id, customer_id, product_id, quantity, price_per_unit, total_amount, sale_date"

func scanSale(row pgx.Row) (*core.Sale, error) {
	var s core.Sale
	if err := row.Scan(&s.ID, &s.CustomerID, &s.ProductID, &s.Quantity, &s.PricePerUnit, &s.TotalAmount, &s.SaleDate); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Store) FindSale(ctx context.Context, customerID, productID int, day time.Time) (*core.Sale, error) {
	sale, err := scanSale(s.q.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM daily_sales
		WHERE customer_id = $1 AND product_id = $2 AND sale_date = $3::date`,
		customerID, productID, core.Day(day)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find sale: %w", err)
	}
	return sale, nil
}

func (s *Store) GetSale(ctx context.Context, id int) (*core.Sale, error) {
	sale, err := scanSale(s.q.QueryRow(ctx, "SELECT "+saleColumns+" FROM daily_sales WHERE id = $1", id))
	if err != nil {
		return nil, notFoundOr(err, "sale", id)
	}
	return sale, nil
}

func (s *Store) UpsertSale(ctx context.Context, in core.Sale) (*core.Sale, error) {
	sale, err := scanSale(s.q.QueryRow(ctx, `
		INSERT INTO daily_sales (customer_id, product_id, quantity, price_per_unit, total_amount, sale_date)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		ON CONFLICT (customer_id, product_id, sale_date)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              price_per_unit = EXCLUDED.price_per_unit,
		              total_amount = EXCLUDED.total_amount
		RETURNING `+saleColumns,
		in.CustomerID, in.ProductID, in.Quantity, in.PricePerUnit, in.TotalAmount, core.Day(in.SaleDate)))
	if err != nil {
		return nil, mapErr(err, in.CustomerID, in.ProductID)
	}
	return sale, nil
}

func (s *Store) DeleteSale(ctx context.Context, id int) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM daily_sales WHERE id = $1", id)
	return affected(tag, err, "sale", id)
}

func (s *Store) ListSales(ctx context.Context, f core.SaleFilter) ([]core.Sale, error) {
	args := []any{f.CustomerID, f.ProductID}
	where, args := rangeClause("sale_date", f.Range, args)
	rows, err := s.q.Query(ctx, `
		SELECT `+saleColumns+`
		FROM daily_sales
		WHERE ($1 = 0 OR customer_id = $1) AND ($2 = 0 OR product_id = $2)`+where+`
		ORDER BY sale_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var out []core.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, *sale)
	}
	return out, rows.Err()
}

// ── Payments ──────────────────────────────────────────────────────────────────

const paymentColumns = "id, customer_id, amount_paid, payment_date, notes"

func scanPayment(row pgx.Row) (*core.Payment, error) {
	var p core.Payment
	if err := row.Scan(&p.ID, &p.CustomerID, &p.AmountPaid, &p.PaymentDate, &p.Notes); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, in core.PaymentInput) (*core.Payment, error) {
	p, err := scanPayment(s.q.QueryRow(ctx, `
		INSERT INTO payments (customer_id, amount_paid, payment_date, notes)
		VALUES ($1, $2, $3::date, $4)
		RETURNING `+paymentColumns,
		in.CustomerID, in.Amount, core.Day(in.Date), in.Notes))
	if err != nil {
		return nil, mapErr(err, in.CustomerID, 0)
	}
	return p, nil
}

func (s *Store) GetPayment(ctx context.Context, id int) (*core.Payment, error) {
	p, err := scanPayment(s.q.QueryRow(ctx, "SELECT "+paymentColumns+" FROM payments WHERE id = $1", id))
	if err != nil {
		return nil, notFoundOr(err, "payment", id)
	}
	return p, nil
}

func (s *Store) DeletePayment(ctx context.Context, id int) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM payments WHERE id = $1", id)
	return affected(tag, err, "payment", id)
}

func (s *Store) ListPayments(ctx context.Context, f core.PaymentFilter) ([]core.Payment, error) {
	args := []any{f.CustomerID}
	where, args := rangeClause("payment_date", f.Range, args)
	rows, err := s.q.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE ($1 = 0 OR customer_id = $1)`+where+`
		ORDER BY payment_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ── Expenses ──────────────────────────────────────────────────────────────────

const expenseColumns = "id, amount, category, note, expense_date"

func scanExpense(row pgx.Row) (*core.Expense, error) {
	var e core.Expense
	if err := row.Scan(&e.ID, &e.Amount, &e.Category, &e.Note, &e.ExpenseDate); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, in core.ExpenseInput) (*core.Expense, error) {
	e, err := scanExpense(s.q.QueryRow(ctx, `
		INSERT INTO expenses (amount, category, note, expense_date)
		VALUES ($1, $2, $3, $4::date)
		RETURNING `+expenseColumns,
		in.Amount, in.Category, in.Note, core.Day(in.Date)))
	if err != nil {
		return nil, mapErr(err, 0, 0)
	}
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id int) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM expenses WHERE id = $1", id)
	return affected(tag, err, "expense", id)
}

func (s *Store) ListExpenses(ctx context.Context, r core.DateRange) ([]core.Expense, error) {
	where, args := rangeClause("expense_date", r, nil)
	rows, err := s.q.Query(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE true"+where+" ORDER BY expense_date, id", args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ── Aggregates ────────────────────────────────────────────────────────────────

func (s *Store) SumSales(ctx context.Context, customerID int, r core.DateRange) (decimal.Decimal, error) {
	args := []any{customerID}
	where, args := rangeClause("sale_date", r, args)
	var total decimal.Decimal
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM daily_sales
		WHERE ($1 = 0 OR customer_id = $1)`+where, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *Store) SumPayments(ctx context.Context, customerID int, r core.DateRange) (decimal.Decimal, error) {
	args := []any{customerID}
	where, args := rangeClause("payment_date", r, args)
	var total decimal.Decimal
	err := s.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_paid), 0)
		FROM payments
		WHERE ($1 = 0 OR customer_id = $1)`+where, args...).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *Store) SumExpenses(ctx context.Context, r core.DateRange) (decimal.Decimal, error) {
	where, args := rangeClause("expense_date", r, nil)
	var total decimal.Decimal
	if err := s.q.QueryRow(ctx, "SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE true"+where, args...).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *Store) DuesAsOf(ctx context.Context, day time.Time) ([]core.CustomerDue, error) {
	rows, err := s.q.Query(ctx, `
		SELECT c.id, c.name,
		       COALESCE((SELECT SUM(s.total_amount) FROM daily_sales s
		                 WHERE s.customer_id = c.id AND s.sale_date <= $1::date), 0)
		     - COALESCE((SELECT SUM(p.amount_paid) FROM payments p
		                 WHERE p.customer_id = c.id AND p.payment_date <= $1::date), 0)
		FROM customers c
		WHERE c.active
		ORDER BY c.name, c.id`, core.Day(day))
	if err != nil {
		return nil, fmt.Errorf("dues as of: %w", err)
	}
	defer rows.Close()

	var out []core.CustomerDue
	for rows.Next() {
		var d core.CustomerDue
		if err := rows.Scan(&d.CustomerID, &d.Name, &d.Due); err != nil {
			return nil, fmt.Errorf("scan due: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
