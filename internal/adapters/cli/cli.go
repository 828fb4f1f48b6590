package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"milk-ledger/internal/app"
	"milk-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// ErrUsage is returned when a command is unknown or is missing arguments.
var ErrUsage = errors.New("usage")

const usage = `Available commands:
  dues [as-of]                                  outstanding dues
  due <customer-id> [as-of]                     one customer's balance
  summary <from> <to>                           period summary for all customers
  statement <customer-id> <from> <to>           customer statement (JSON)
  sale <customer-id> <product-id> <qty> <date>  record or amend a delivery
  payment <customer-id> <amount> <date> [notes] record money received
  deliveries [date]                             record every standing order
  snapshot <year> <month>                       month backup (JSON)
  propose "<note>"                              assistant proposal (JSON)
  commit                                        record a proposal read from stdin`

// Run executes a one-shot CLI command. args[0] is the subcommand name.
// Results go to out; proposals for commit are read from in.
func Run(ctx context.Context, svc app.ApplicationService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\n%s", ErrUsage, usage)
	}
	need := func(n int) error {
		if len(args)-1 < n {
			return fmt.Errorf("%w: %s needs %d argument(s)\n%s", ErrUsage, args[0], n, usage)
		}
		return nil
	}
	opt := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch args[0] {
	case "dues":
		result, err := svc.GetDues(ctx, opt(1), true)
		if err != nil {
			return err
		}
		printDues(out, result)

	case "due":
		if err := need(1); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[1])
		}
		result, err := svc.GetCustomerDue(ctx, id, opt(2))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", result.Due.StringFixed(2))

	case "summary":
		if err := need(2); err != nil {
			return err
		}
		result, err := svc.GetAggregateSummary(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		printSummary(out, result)

	case "statement":
		if err := need(3); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[1])
		}
		result, err := svc.GetCustomerStatement(ctx, id, args[2], args[3])
		if err != nil {
			return err
		}
		return writeJSON(out, result)

	case "sale":
		if err := need(4); err != nil {
			return err
		}
		customerID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[1])
		}
		productID, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[2])
		}
		qty, err := decimal.NewFromString(args[3])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[3])
		}
		sale, err := svc.RecordSale(ctx, app.SaleRequest{CustomerID: customerID, ProductID: productID, Quantity: qty, Date: args[4]})
		if err != nil {
			return err
		}
		return writeJSON(out, sale)

	case "payment":
		if err := need(3); err != nil {
			return err
		}
		customerID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid customer id %q", args[1])
		}
		amount, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[2])
		}
		p, err := svc.RecordPayment(ctx, app.PaymentRequest{
			CustomerID: customerID,
			Amount:     amount,
			Date:       args[3],
			Notes:      strings.Join(args[4:], " "),
		})
		if err != nil {
			return err
		}
		return writeJSON(out, p)

	case "deliveries":
		result, err := svc.RecordDefaultDeliveries(ctx, opt(1))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d standing deliveries recorded, total %s\n", len(result.Sales), result.Total.StringFixed(2))

	case "snapshot":
		if err := need(2); err != nil {
			return err
		}
		year, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[1])
		}
		month, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid month %q", args[2])
		}
		snap, err := svc.GetMonthlySnapshot(ctx, year, month)
		if err != nil {
			return err
		}
		return writeJSON(out, snap)

	case "propose", "prop", "p":
		if err := need(1); err != nil {
			return err
		}
		result, err := svc.InterpretNote(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if result.IsClarification {
			return fmt.Errorf("assistant needs clarification: %s", result.ClarificationMessage)
		}
		return writeJSON(out, result.Proposal)

	case "commit", "com", "c":
		var proposal app.ProposedEntry
		if err := json.NewDecoder(in).Decode(&proposal); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		result, err := svc.CommitProposal(ctx, proposal)
		if err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
		return writeJSON(out, result)

	default:
		return fmt.Errorf("%w: unknown command %s\n%s", ErrUsage, args[0], usage)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDues(out io.Writer, result *app.DuesResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "  DUES as of %s\n", result.AsOf)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "  %-5s %-26s %14s\n", "ID", "CUSTOMER", "DUE")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, d := range result.Dues {
		fmt.Fprintf(out, "  %-5d %-26s %14s\n", d.CustomerID, d.Name, d.Due.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "  %-32s %14s\n", "TOTAL", result.Total.StringFixed(2))
	fmt.Fprintln(out, strings.Repeat("=", 50))
}

func printSummary(out io.Writer, r *core.AggregateSummary) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  SUMMARY %s to %s\n", r.Start.Format(core.DateLayout), r.End.Format(core.DateLayout))
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-26s %15s %15s\n", "CUSTOMER", "SALES", "CLOSING")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, s := range r.Customers {
		fmt.Fprintf(out, "  %-26s %15s %15s\n", s.CustomerName, s.PeriodSales.StringFixed(2), s.ClosingBalance.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-26s %15s\n", "Total sales", r.TotalSales.StringFixed(2))
	fmt.Fprintf(out, "  %-26s %15s\n", "Total payments", r.TotalPayments.StringFixed(2))
	fmt.Fprintf(out, "  %-26s %15s\n", "Expenses", r.TotalExpenses.StringFixed(2))
	fmt.Fprintf(out, "  %-26s %15s\n", "Net profit", r.NetProfit.StringFixed(2))
	fmt.Fprintln(out, strings.Repeat("=", 62))
}
