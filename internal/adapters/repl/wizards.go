package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"milk-ledger/internal/app"

	"github.com/shopspring/decimal"
)

// handleAssignProducts runs an interactive session that sets a customer's products,
// prices and standing quantities. The rows are saved together or not at all.
func handleAssignProducts(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, customerID int) {
	customer, err := svc.GetCustomer(ctx, customerID)
	if err != nil {
		fmt.Fprintf(out, "[REPL] %v\n", err)
		return
	}
	products, err := svc.ListProducts(ctx)
	if err != nil {
		fmt.Fprintf(out, "[REPL] %v\n", err)
		return
	}
	printProducts(out, products)

	fmt.Fprintf(out, "Assigning products to %s.\n", customer.Name)
	fmt.Fprintln(out, "Enter rows. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per row: <product-id> [price] [daily-qty]")
	fmt.Fprintln(out, "  Example: 1           (catalogue price, no standing order)")
	fmt.Fprintln(out, "  Example: 1 55 2      (55 per unit, 2 every day)")

	var rows []app.AssignmentRequest
	rowNum := 1
	for {
		fmt.Fprintf(out, "  Row %d: ", rowNum)
		raw, readErr := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(out, "Assignment cancelled.")
			return
		}
		if strings.EqualFold(raw, "done") || (raw == "" && readErr != nil) {
			break
		}
		if raw == "" {
			continue
		}

		parts := strings.Fields(raw)
		productID, err := parseID(parts[0])
		if err != nil {
			fmt.Fprintln(out, "  Invalid product id.")
			continue
		}
		row := app.AssignmentRequest{ProductID: productID}

		if len(parts) >= 2 {
			row.CustomPrice, err = decimal.NewFromString(parts[1])
			if err != nil || row.CustomPrice.IsNegative() {
				fmt.Fprintln(out, "  Invalid price.")
				continue
			}
		} else {
			found := false
			for _, p := range products.Products {
				if p.ID == productID {
					row.CustomPrice = p.DefaultPrice
					found = true
				}
			}
			if !found {
				fmt.Fprintln(out, "  Unknown product.")
				continue
			}
		}
		if len(parts) >= 3 {
			row.DefaultQuantity, err = decimal.NewFromString(parts[2])
			if err != nil || row.DefaultQuantity.IsNegative() {
				fmt.Fprintln(out, "  Invalid quantity.")
				continue
			}
		}

		rows = append(rows, row)
		rowNum++
	}

	if len(rows) == 0 {
		fmt.Fprintln(out, "No rows entered. Nothing saved.")
		return
	}

	result, err := svc.SaveAssignments(ctx, customerID, rows)
	if err != nil {
		fmt.Fprintf(out, "[REPL] Error saving products: %v\n", err)
		return
	}
	fmt.Fprintf(out, "\n%d product(s) saved.\n", len(rows))
	printAssignments(out, result)
}
