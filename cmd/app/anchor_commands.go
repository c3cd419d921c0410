package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/medledger/tokenledger/cmd/app/commands"
	anchorService "github.com/medledger/tokenledger/internal/anchor/service"
	"github.com/medledger/tokenledger/internal/app"
	"github.com/medledger/tokenledger/internal/config"
)

func getAnchorCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "relay-anchors",
			Usage: "Publish pending anchor events",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "once",
					Value: false,
					Usage: "Run a single relay cycle and exit",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				relay, err := container.OutboxUseCase()
				if err != nil {
					return err
				}

				return commands.RunRelayAnchors(
					ctx,
					relay,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("once"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-anchor-journal",
			Usage: "Verify the hash chain of the anchor journal",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "path",
					Aliases: []string{"p"},
					Usage:   "Journal directory (defaults to ANCHOR_JOURNAL_PATH)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				path := cmd.String("path")
				if path == "" {
					path = config.Load().AnchorJournalPath
				}
				if path == "" {
					return fmt.Errorf("--path or ANCHOR_JOURNAL_PATH is required")
				}

				journal, err := anchorService.OpenJournalPublisher(path)
				if err != nil {
					return err
				}
				defer func() { _ = journal.Close() }()

				return commands.RunVerifyAnchorJournal(ctx, journal, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
	}
}
