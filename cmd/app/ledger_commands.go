package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/medledger/tokenledger/cmd/app/commands"
	"github.com/medledger/tokenledger/internal/app"
	"github.com/medledger/tokenledger/internal/config"
	ledgerService "github.com/medledger/tokenledger/internal/ledger/service"
)

func getLedgerCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init-ledger",
			Usage: "Assign the first ledger owner",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "owner",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Identity of the initial owner",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ownershipUseCase, err := container.OwnershipUseCase()
				if err != nil {
					return err
				}

				return commands.RunInitLedger(
					ctx,
					ownershipUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("owner"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "transfer-ownership",
			Usage: "Hand the ledger to a new owner",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "caller",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Identity of the current owner",
				},
				&cli.StringFlag{
					Name:     "new-owner",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Identity of the new owner",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ownershipUseCase, err := container.OwnershipUseCase()
				if err != nil {
					return err
				}

				return commands.RunTransferOwnership(
					ctx,
					ownershipUseCase,
					commands.DefaultIO().Writer,
					cmd.String("caller"),
					cmd.String("new-owner"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "stats",
			Usage: "Show the number of stored tokens and the current owner",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ledgerUseCase, err := container.LedgerUseCase()
				if err != nil {
					return err
				}

				return commands.RunStats(ctx, ledgerUseCase, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "fingerprint",
			Usage: "Compute the SHA-256 fingerprint of a document or identifier",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "file",
					Aliases: []string{"i"},
					Usage:   "Document path, '-' reads stdin",
				},
				&cli.StringFlag{
					Name:  "identifier",
					Usage: "Raw doctor or patient identifier",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunFingerprint(
					ledgerService.NewHashService(),
					commands.DefaultIO(),
					cmd.String("file"),
					cmd.String("identifier"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-verification-log",
			Usage: "Verify the signatures of recorded verification events",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   0,
					Usage:   "Check only the newest N events (0 checks all)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				verificationUseCase, err := container.VerificationUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyVerificationLog(
					ctx,
					verificationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
	}
}
