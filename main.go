package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/cams/internal/cams"
	"github.com/colonyops/cams/internal/commands"
	"github.com/colonyops/cams/internal/core/config"
	"github.com/colonyops/cams/internal/core/logging"
	"github.com/colonyops/cams/internal/data/db"
	"github.com/colonyops/cams/internal/data/stores"
	"github.com/colonyops/cams/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser  func()
		lockCloser func() error
		camsApp    = &cams.App{}
		database   *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "cams",
		Usage:     "Review case consolidation orders",
		UsageText: "cams [global options] command [command options]",
		Description: `cams reviews consolidation orders: batches of related bankruptcy cases
flagged for joint administration or substantive consolidation.

Run 'cams' with no arguments to open the interactive reviewer.
Run 'cams seed <file>' to load cases and orders.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("CAMS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("CAMS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("CAMS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("CAMS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			if cfg.Reviewer != "" {
				ctx = logging.WithReviewer(ctx, cfg.Reviewer)
			}

			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			var recovered string
			database, recovered, err = stores.OpenOrRecover(cfg.DataDir, dbOpts)
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}
			if recovered != "" {
				log.Warn().Str("backup", recovered).Msg("database was corrupt; moved aside and recreated")
			}

			locks, closeLocks, err := cams.NewLockRegistry(cfg.Locks)
			if err != nil {
				return ctx, fmt.Errorf("lock registry: %w", err)
			}
			lockCloser = closeLocks

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*camsApp = *cams.NewApp(cfg, database, locks)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if lockCloser != nil {
				if err := lockCloser(); err != nil {
					log.Warn().Err(err).Msg("failed to close lock registry")
				}
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	reviewCmd := commands.NewReviewCmd(flags, camsApp)

	app = commands.NewOrdersCmd(flags, camsApp).Register(app)
	app = commands.NewSeedCmd(flags, camsApp).Register(app)
	app = commands.NewDecideCmd(flags, camsApp).Register(app)
	app = reviewCmd.Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Set the reviewer as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'cams --help' for usage", c.Args().First())
		}
		return reviewCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
