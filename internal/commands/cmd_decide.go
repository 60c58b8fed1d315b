package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/core/consolidation"
	"github.com/colonyops/cams/pkg/iojson"
)

type DecideCmd struct {
	flags *Flags
	app   *cams.App
	fr    *iojson.FileReader[cams.DecideInput]

	// flags
	approve    bool
	reject     bool
	cases      []string
	add        []string
	lead       string
	consType   string
	reason     string
	jsonOutput bool
}

// NewDecideCmd creates a new decide command
func NewDecideCmd(flags *Flags, app *cams.App) *DecideCmd {
	return &DecideCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[cams.DecideInput]{},
	}
}

// Register adds the decide command to the application
func (cmd *DecideCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "decide",
		Usage:     "Approve or reject an order without the TUI",
		UsageText: "cams decide <order-id> (--approve --lead <case> --type <type> | --reject [--reason <text>]) [--case <id>...]",
		Description: `Runs the review workflow headlessly and submits the decision.

The same checks as the interactive review apply: approvals need at least two
selected cases, a lead case and a consolidation type, and cases that already
belong to another consolidation block approval. A lead case outside the order
is verified against the case registry.

Without --approve or --reject the decision is read as JSON from --file or stdin:

  {"status": "approved", "cases": ["081-23-10001", "081-23-10002"],
   "leadCaseId": "081-23-10001", "consolidationType": "administrative"}`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "approve",
				Usage:       "approve the selected cases",
				Destination: &cmd.approve,
			},
			&cli.BoolFlag{
				Name:        "reject",
				Usage:       "reject the selected cases",
				Destination: &cmd.reject,
			},
			&cli.StringSliceFlag{
				Name:        "case",
				Usage:       "child case to include (repeatable; default all)",
				Destination: &cmd.cases,
			},
			&cli.StringSliceFlag{
				Name:        "add",
				Usage:       "registry case to add to the order before deciding (repeatable)",
				Destination: &cmd.add,
			},
			&cli.StringFlag{
				Name:        "lead",
				Usage:       "lead case ID",
				Destination: &cmd.lead,
			},
			&cli.StringFlag{
				Name:        "type",
				Usage:       "consolidation type (administrative, substantive)",
				Destination: &cmd.consType,
			},
			&cli.StringFlag{
				Name:        "reason",
				Usage:       "rejection reason",
				Destination: &cmd.reason,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the decided order as JSON",
				Destination: &cmd.jsonOutput,
			},
			cmd.fr.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *DecideCmd) run(ctx context.Context, c *cli.Command) error {
	orderID := c.Args().First()
	if orderID == "" {
		return fmt.Errorf("order id is required")
	}

	in, err := cmd.input()
	if err != nil {
		return err
	}

	decided, err := cmd.app.Decide(ctx, orderID, in)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.Write(out, decided)
	}

	_, _ = fmt.Fprintf(out, "Order %s %s (%d cases)\n", decided.ID, decided.Status, len(decided.ChildCases))
	if decided.ID != orderID {
		_, _ = fmt.Fprintf(out, "Remaining cases stay pending in %s\n", orderID)
	}
	return nil
}

func (cmd *DecideCmd) input() (cams.DecideInput, error) {
	switch {
	case cmd.approve && cmd.reject:
		return cams.DecideInput{}, fmt.Errorf("--approve and --reject are mutually exclusive")
	case cmd.approve:
		t, err := consolidation.ParseType(cmd.consType)
		if err != nil {
			return cams.DecideInput{}, err
		}
		return cams.DecideInput{
			Status:            consolidation.StatusApproved,
			Cases:             cmd.cases,
			Add:               cmd.add,
			LeadCaseID:        cmd.lead,
			ConsolidationType: t,
		}, nil
	case cmd.reject:
		return cams.DecideInput{
			Status: consolidation.StatusRejected,
			Cases:  cmd.cases,
			Add:    cmd.add,
			Reason: cmd.reason,
		}, nil
	default:
		in, err := cmd.fr.Read()
		if err != nil {
			return cams.DecideInput{}, fmt.Errorf("read decision: %w", err)
		}
		return in, nil
	}
}
