package repl

import (
	"fmt"
	"io"
	"strings"

	"milk-ledger/internal/app"
	"milk-ledger/internal/core"
)

func printCustomers(w io.Writer, result *app.CustomerListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "  %-58s\n", "CUSTOMERS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	if len(result.Customers) == 0 {
		fmt.Fprintln(w, "  No customers found.")
		fmt.Fprintln(w, strings.Repeat("=", 72))
		return
	}
	fmt.Fprintf(w, "  %-5s %-24s %-14s %-8s %s\n", "ID", "NAME", "PHONE", "STATUS", "ADDRESS")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, c := range result.Customers {
		status := "active"
		if !c.Active {
			status = "inactive"
		}
		fmt.Fprintf(w, "  %-5d %-24s %-14s %-8s %s\n", c.ID, c.Name, c.Phone, status, c.Address)
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

func printProducts(w io.Writer, result *app.ProductListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 56))
	fmt.Fprintf(w, "  %-52s\n", "PRODUCTS")
	fmt.Fprintln(w, strings.Repeat("=", 56))
	if len(result.Products) == 0 {
		fmt.Fprintln(w, "  No products found.")
		fmt.Fprintln(w, strings.Repeat("=", 56))
		return
	}
	fmt.Fprintf(w, "  %-5s %-28s %-8s %10s\n", "ID", "NAME", "UNIT", "PRICE")
	fmt.Fprintln(w, strings.Repeat("-", 56))
	for _, p := range result.Products {
		fmt.Fprintf(w, "  %-5d %-28s %-8s %10s\n", p.ID, p.Name, p.Unit, p.DefaultPrice.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("=", 56))
}

func printAssignments(w io.Writer, result *app.AssignmentListResult) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Products for customer %d\n", result.CustomerID)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	if len(result.Assignments) == 0 {
		fmt.Fprintln(w, "  None assigned; sales use catalogue prices.")
		return
	}
	fmt.Fprintf(w, "  %-5s %-24s %-8s %10s %8s\n", "ID", "PRODUCT", "UNIT", "PRICE", "DAILY")
	for _, a := range result.Assignments {
		fmt.Fprintf(w, "  %-5d %-24s %-8s %10s %8s\n",
			a.ProductID, a.ProductName, a.Unit, a.CustomPrice.StringFixed(2), a.DefaultQuantity.String())
	}
}

func printDues(w io.Writer, result *app.DuesResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "  DUES as of %s\n", result.AsOf)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	if len(result.Dues) == 0 {
		fmt.Fprintln(w, "  Nothing outstanding.")
		fmt.Fprintln(w, strings.Repeat("=", 50))
		return
	}
	fmt.Fprintf(w, "  %-5s %-26s %14s\n", "ID", "CUSTOMER", "DUE")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, d := range result.Dues {
		fmt.Fprintf(w, "  %-5d %-26s %14s\n", d.CustomerID, d.Name, d.Due.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "  %-32s %14s\n", "TOTAL", result.Total.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 50))
}

func printSale(w io.Writer, s *core.Sale) {
	fmt.Fprintf(w, "Sale #%d: customer %d, product %d, %s x %s = %s on %s\n",
		s.ID, s.CustomerID, s.ProductID, s.Quantity.String(), s.PricePerUnit.StringFixed(2),
		s.TotalAmount.StringFixed(2), s.SaleDate.Format(core.DateLayout))
}

func printAggregate(w io.Writer, r *core.AggregateSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 86))
	fmt.Fprintf(w, "  SUMMARY %s to %s\n", r.Start.Format(core.DateLayout), r.End.Format(core.DateLayout))
	fmt.Fprintln(w, strings.Repeat("=", 86))
	fmt.Fprintf(w, "  %-22s %12s %12s %12s %12s %12s\n", "CUSTOMER", "OPENING", "SALES", "PAYMENTS", "PERIOD", "CLOSING")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, s := range r.Customers {
		fmt.Fprintf(w, "  %-22s %12s %12s %12s %12s %12s\n",
			s.CustomerName,
			s.OpeningBalance.StringFixed(2),
			s.PeriodSales.StringFixed(2),
			s.PeriodPayments.StringFixed(2),
			s.PeriodDue.StringFixed(2),
			s.ClosingBalance.StringFixed(2),
		)
	}
	fmt.Fprintln(w, strings.Repeat("-", 86))
	fmt.Fprintf(w, "  %-22s %12s %12s %12s %12s %12s\n", "TOTAL",
		r.TotalOpening.StringFixed(2), r.TotalSales.StringFixed(2), r.TotalPayments.StringFixed(2),
		"", r.TotalClosing.StringFixed(2))
	fmt.Fprintf(w, "  Expenses: %s   Net profit: %s\n", r.TotalExpenses.StringFixed(2), r.NetProfit.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 86))
}

func printStatement(w io.Writer, st *core.Statement) {
	sum := st.Summary
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "  STATEMENT  %s  (%s to %s)\n", st.Customer.Name,
		sum.Start.Format(core.DateLayout), sum.End.Format(core.DateLayout))
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "  %-40s %14s\n", "Opening balance", sum.OpeningBalance.StringFixed(2))
	for _, s := range st.Sales {
		fmt.Fprintf(w, "  %-12s product %-4d %8s x %-8s %14s\n", s.SaleDate.Format(core.DateLayout),
			s.ProductID, s.Quantity.String(), s.PricePerUnit.StringFixed(2), s.TotalAmount.StringFixed(2))
	}
	for _, p := range st.Payments {
		fmt.Fprintf(w, "  %-12s %-27s %14s\n", p.PaymentDate.Format(core.DateLayout), "payment", p.AmountPaid.Neg().StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "  %-40s %14s\n", "Sales", sum.PeriodSales.StringFixed(2))
	fmt.Fprintf(w, "  %-40s %14s\n", "Payments", sum.PeriodPayments.StringFixed(2))
	fmt.Fprintf(w, "  %-40s %14s\n", "Closing balance", sum.ClosingBalance.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

func printProposal(w io.Writer, p *app.ProposedEntry) {
	fmt.Fprintf(w, "\nKIND:       %s\n", p.Kind)
	fmt.Fprintf(w, "CUSTOMER:   %s (#%d)\n", p.CustomerName, p.CustomerID)
	if p.Kind == "sale" {
		fmt.Fprintf(w, "PRODUCT:    %s (#%d)\n", p.ProductName, p.ProductID)
		fmt.Fprintf(w, "QUANTITY:   %s @ %s = %s\n", p.Quantity.String(), p.PricePerUnit.StringFixed(2),
			p.Quantity.Mul(p.PricePerUnit).StringFixed(2))
	} else {
		fmt.Fprintf(w, "AMOUNT:     %s\n", p.Amount.StringFixed(2))
	}
	fmt.Fprintf(w, "DATE:       %s\n", p.Date)
	if p.Notes != "" {
		fmt.Fprintf(w, "NOTES:      %s\n", p.Notes)
	}
	fmt.Fprintf(w, "REASONING:  %s\n", p.Reasoning)
	fmt.Fprintf(w, "CONFIDENCE: %.2f\n", p.Confidence)
	if p.Replaces != nil {
		fmt.Fprintf(w, "REPLACES:   sale #%d (%s x %s)\n", p.Replaces.ID, p.Replaces.Quantity.String(), p.Replaces.PricePerUnit.StringFixed(2))
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "MILK LEDGER COMMANDS")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  REGISTER")
	fmt.Fprintln(w, "  /customers [all]                       List customers (all = include inactive)")
	fmt.Fprintln(w, "  /products                              List the catalogue")
	fmt.Fprintln(w, "  /assigned <customer-id>                Customer's products and prices")
	fmt.Fprintln(w, "  /assign <customer-id>                  Set customer products (interactive)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ENTRIES  (dates are YYYY-MM-DD, blank = today)")
	fmt.Fprintln(w, "  /sale <customer> <product> <qty> [date]   Record or amend a delivery")
	fmt.Fprintln(w, "  /payment <customer> <amount> [date]       Record money received")
	fmt.Fprintln(w, "  /deliveries [date]                        Record every standing order")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  DUES AND REPORTS")
	fmt.Fprintln(w, "  /dues [date]                           Outstanding dues")
	fmt.Fprintln(w, "  /due <customer-id> [date]              One customer's balance")
	fmt.Fprintln(w, "  /summary <from> <to>                   Period summary for all customers")
	fmt.Fprintln(w, "  /statement <customer-id> <from> <to>   Customer statement")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  SESSION")
	fmt.Fprintln(w, "  /help                                  Show this help")
	fmt.Fprintln(w, "  /exit                                  Exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ASSISTANT  (no / prefix)")
	fmt.Fprintln(w, "  Type a delivery or collection note in plain words.")
	fmt.Fprintln(w, "  Example: \"Asha took 2 litres cow milk today\"")
	fmt.Fprintln(w, strings.Repeat("=", 70))
}
