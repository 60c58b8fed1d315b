package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/cams/internal/cams"
)

type SeedCmd struct {
	flags *Flags
	app   *cams.App
}

// NewSeedCmd creates a new seed command
func NewSeedCmd(flags *Flags, app *cams.App) *SeedCmd {
	return &SeedCmd{flags: flags, app: app}
}

// Register adds the seed command to the application
func (cmd *SeedCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "seed",
		Usage:     "Load cases, assignments and orders from a YAML file",
		UsageText: "cams seed <file.yaml>",
		Description: `Loads a YAML seed file into the local database.

The file lists cases (with optional docket entries), staff assignments,
existing consolidation associations and pending orders. Orders whose id
already exists are skipped, so the same file can be loaded again.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *SeedCmd) run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("seed file is required")
	}

	seed, err := cams.ReadSeedFile(path)
	if err != nil {
		return err
	}

	res, err := cmd.app.Seed(ctx, seed)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	out := c.Root().Writer
	_, _ = fmt.Fprintf(out, "Loaded %d cases, %d assignments, %d associations, %d orders\n",
		res.Cases, res.Assignments, res.Associations, res.Orders)
	if len(res.SkippedOrders) > 0 {
		_, _ = fmt.Fprintf(out, "Skipped existing orders: %s\n", strings.Join(res.SkippedOrders, ", "))
	}
	return nil
}
