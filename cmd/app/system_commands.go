package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/medledger/tokenledger/cmd/app/commands"
	"github.com/medledger/tokenledger/internal/app"
	"github.com/medledger/tokenledger/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Serve the ledger API and metrics, and relay anchors when enabled",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply (or roll back) the ledger schema for DB_DRIVER",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: commands.DefaultMigrationsDir,
					Usage: "Migrations root containing postgresql/ and mysql/",
				},
				&cli.IntFlag{
					Name:  "steps",
					Usage: "Migrations to apply (positive) or roll back (negative); 0 applies all pending",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString,
					commands.MigrateOptions{
						Dir:   cmd.String("dir"),
						Steps: int(cmd.Int("steps")),
					})
			},
		},
	}
}
