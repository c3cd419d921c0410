package main

import (
	"github.com/urfave/cli/v3"
)

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getLedgerCommands()...)
	cmds = append(cmds, getAnchorCommands()...)
	cmds = append(cmds, getKeyCommands()...)
	return cmds
}
