package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"milk-ledger/internal/app"
	"milk-ledger/internal/core"

	"github.com/shopspring/decimal"
)

var errExit = errors.New("exit")

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes plain-text notes through the assistant.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "Milk Ledger")
	fmt.Fprintln(out, "Type a delivery or payment note, or use /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			if readErr != nil {
				return
			}
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(ctx, svc, reader, out, input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		if err := runAssistant(ctx, svc, reader, out, input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func dispatchSlash(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "customers":
		all := len(args) > 0 && strings.EqualFold(args[0], "all")
		result, err := svc.ListCustomers(ctx, all)
		if err != nil {
			return err
		}
		printCustomers(out, result)

	case "products":
		result, err := svc.ListProducts(ctx)
		if err != nil {
			return err
		}
		printProducts(out, result)

	case "assigned":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /assigned <customer-id>")
			return nil
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := svc.ListAssignments(ctx, id)
		if err != nil {
			return err
		}
		printAssignments(out, result)

	case "assign":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /assign <customer-id>")
			return nil
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		handleAssignProducts(ctx, reader, out, svc, id)

	case "sale":
		if len(args) < 3 {
			fmt.Fprintln(out, "Usage: /sale <customer-id> <product-id> <qty> [date]")
			return nil
		}
		customerID, err := parseID(args[0])
		if err != nil {
			return err
		}
		productID, err := parseID(args[1])
		if err != nil {
			return err
		}
		qty, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		sale, err := svc.RecordSale(ctx, app.SaleRequest{
			CustomerID: customerID,
			ProductID:  productID,
			Quantity:   qty,
			Date:       dateArg(args, 3),
		})
		if err != nil {
			return err
		}
		printSale(out, sale)

	case "payment":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: /payment <customer-id> <amount> [date]")
			return nil
		}
		customerID, err := parseID(args[0])
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		p, err := svc.RecordPayment(ctx, app.PaymentRequest{CustomerID: customerID, Amount: amount, Date: dateArg(args, 2)})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Payment #%d of %s recorded for customer %d on %s.\n",
			p.ID, p.AmountPaid.StringFixed(2), p.CustomerID, p.PaymentDate.Format(core.DateLayout))

	case "deliveries":
		result, err := svc.RecordDefaultDeliveries(ctx, dateArg(args, 0))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d standing deliveries recorded, total %s.\n", len(result.Sales), result.Total.StringFixed(2))

	case "dues":
		result, err := svc.GetDues(ctx, dateArg(args, 0), true)
		if err != nil {
			return err
		}
		printDues(out, result)

	case "due":
		if len(args) < 1 {
			fmt.Fprintln(out, "Usage: /due <customer-id> [date]")
			return nil
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := svc.GetCustomerDue(ctx, id, dateArg(args, 1))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Customer %d owes %s as of %s.\n", result.CustomerID, result.Due.StringFixed(2), result.AsOf)

	case "summary":
		if len(args) < 2 {
			fmt.Fprintln(out, "Usage: /summary <from> <to>")
			return nil
		}
		result, err := svc.GetAggregateSummary(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printAggregate(out, result)

	case "statement":
		if len(args) < 3 {
			fmt.Fprintln(out, "Usage: /statement <customer-id> <from> <to>")
			return nil
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := svc.GetCustomerStatement(ctx, id, args[1], args[2])
		if err != nil {
			return err
		}
		printStatement(out, result)

	case "help", "h":
		printHelp(out)

	case "exit", "quit", "e", "q":
		return errExit

	default:
		fmt.Fprintf(out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// runAssistant turns a note into a proposal, asking for clarification up to three times,
// and records it only after the operator approves.
func runAssistant(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, note string) error {
	fmt.Fprintln(out, "[AI] Processing...")
	accumulated := note

	for rounds := 1; rounds <= 3; rounds++ {
		result, err := svc.InterpretNote(ctx, accumulated)
		if err != nil {
			return err
		}

		if result.IsClarification {
			fmt.Fprintf(out, "\n[AI]: %s\n", result.ClarificationMessage)
			fmt.Fprint(out, "> ")
			followUp, _ := reader.ReadString('\n')
			followUp = strings.TrimSpace(followUp)

			// Slash command during clarification cancels the assistant and runs it.
			if strings.HasPrefix(followUp, "/") {
				fmt.Fprintln(out, "(AI session cancelled)")
				return dispatchSlash(ctx, svc, reader, out, followUp)
			}
			if followUp == "" || strings.EqualFold(followUp, "cancel") {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			accumulated = fmt.Sprintf("Original note: %s\nClarification requested: %s\nOperator response: %s",
				accumulated, result.ClarificationMessage, followUp)
			fmt.Fprintln(out, "[AI] Thinking...")
			continue
		}

		proposal := result.Proposal
		printProposal(out, proposal)
		if proposal.Confidence < 0.6 {
			fmt.Fprintln(out, "\nWARNING: Low confidence proposal.")
		}

		fmt.Fprint(out, "\nRecord this entry? (y/n): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToLower(choice))
		if choice != "y" && choice != "yes" {
			fmt.Fprintln(out, "Entry cancelled.")
			return nil
		}
		if _, err := svc.CommitProposal(ctx, *proposal); err != nil {
			fmt.Fprintf(out, "Entry FAILED: %v\n", err)
			return nil
		}
		fmt.Fprintln(out, "Entry RECORDED.")
		return nil
	}

	fmt.Fprintln(out, "Could not produce a proposal. Try a slash command instead; type /help.")
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// dateArg returns args[i], or today's date when absent.
func dateArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return time.Now().Format(core.DateLayout)
}
