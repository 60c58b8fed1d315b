package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/tui"
	"github.com/colonyops/cams/pkg/logutils"
)

type ReviewCmd struct {
	flags *Flags
	app   *cams.App
}

// NewReviewCmd creates a new review command
func NewReviewCmd(flags *Flags, app *cams.App) *ReviewCmd {
	return &ReviewCmd{flags: flags, app: app}
}

// Register adds the review command to the application
func (cmd *ReviewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "review",
		Usage:     "Review consolidation orders interactively",
		UsageText: "cams review [order-id]",
		Description: `Opens the interactive reviewer.

The order list shows every order with a preview of its cases. Press enter to
review a pending order: select cases with space, mark the lead case with l,
pick a consolidation type and approve or reject. When an order id is given
its review screen opens directly.`,
		Action: cmd.run,
	})

	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *ReviewCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *ReviewCmd) run(ctx context.Context, c *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("review needs a terminal; use 'cams decide' for scripted decisions")
	}

	// Log lines written to stderr would corrupt the screen; hold them until
	// the program exits.
	if cmd.flags.LogFile == "" {
		deferred := logutils.NewDeferredWriter(os.Stderr)
		prev := log.Logger
		log.Logger = log.Logger.Output(zerolog.ConsoleWriter{Out: deferred, TimeFormat: "15:04:05"})
		defer func() {
			log.Logger = prev
			_ = deferred.Release()
		}()
	}

	if err := tui.Run(ctx, cmd.app, tui.Opts{OrderID: c.Args().First()}); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
