package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/pkg/iojson"
)

type OrdersCmd struct {
	flags *Flags
	app   *cams.App

	// flags
	status     string
	casePat    string
	jsonOutput bool
	raw        bool
}

// NewOrdersCmd creates a new orders command
func NewOrdersCmd(flags *Flags, app *cams.App) *OrdersCmd {
	return &OrdersCmd{flags: flags, app: app}
}

// Register adds the orders command to the application
func (cmd *OrdersCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "orders",
		Usage: "List and inspect consolidation orders",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List consolidation orders",
				UsageText: "cams orders ls [--status pending] [--case '081-23-*'] [--json]",
				Description: `Displays a table of orders with their status, division, order date and cases.

--case filters to orders with at least one child case matching the glob.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "status",
						Usage:       "only show orders with this status (pending, approved, rejected)",
						Destination: &cmd.status,
					},
					&cli.StringFlag{
						Name:        "case",
						Usage:       "glob matched against child case IDs",
						Destination: &cmd.casePat,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "show",
				Usage:     "Show an order with its cases and dockets",
				UsageText: "cams orders show <order-id> [--raw]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "raw",
						Usage:       "print markdown without terminal rendering",
						Destination: &cmd.raw,
					},
				},
				Action: cmd.runShow,
			},
		},
	})

	return app
}

func (cmd *OrdersCmd) runList(ctx context.Context, c *cli.Command) error {
	status, err := parseStatus(cmd.status)
	if err != nil {
		return err
	}
	if cmd.casePat != "" && !doublestar.ValidatePattern(cmd.casePat) {
		return fmt.Errorf("invalid case pattern %q", cmd.casePat)
	}

	orders, err := cmd.app.Orders.List(ctx, status)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	orders = filterByCase(orders, cmd.casePat)

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, o := range orders {
			if err := iojson.WriteLine(out, o); err != nil {
				return fmt.Errorf("encode order: %w", err)
			}
		}
		return nil
	}

	if len(orders) == 0 {
		fmt.Fprintf(os.Stderr, "No orders found\n")
		return nil
	}

	return writeOrderTable(out, orders)
}

func (cmd *OrdersCmd) runShow(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("order id is required")
	}

	order, err := cmd.app.Orders.Get(ctx, id)
	if err != nil {
		return err
	}

	md := cams.OrderMarkdown(order)
	out := c.Root().Writer

	width, tty := terminalWidth(out)
	if cmd.raw || !tty {
		_, err := io.WriteString(out, md)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		_, err := io.WriteString(out, md)
		return err
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("render order: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func writeOrderTable(out io.Writer, orders []consolidation.Order) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tDIVISION\tORDER DATE\tCASES\tLEAD")

	for _, o := range orders {
		lead := "-"
		if o.LeadCase != nil {
			lead = o.LeadCase.CaseID
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			o.ID, o.Status, o.CourtDivisionCode, o.OrderDate.Format("2006-01-02"), len(o.ChildCases), lead)
	}

	return w.Flush()
}

// filterByCase keeps orders with a child case matching pattern. An empty
// pattern keeps every order.
func filterByCase(orders []consolidation.Order, pattern string) []consolidation.Order {
	if pattern == "" {
		return orders
	}

	return slices.DeleteFunc(orders, func(o consolidation.Order) bool {
		return !slices.ContainsFunc(o.ChildCases, func(c consolidation.OrderCase) bool {
			ok, _ := doublestar.Match(pattern, c.CaseID)
			return ok
		})
	})
}

func parseStatus(s string) (consolidation.OrderStatus, error) {
	switch st := consolidation.OrderStatus(strings.ToLower(s)); st {
	case "", consolidation.StatusPending, consolidation.StatusApproved, consolidation.StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q (expected pending, approved or rejected)", s)
	}
}

// terminalWidth reports the width of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	return width, true
}
