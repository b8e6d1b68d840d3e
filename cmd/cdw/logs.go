package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var logs = cli.Command{
	Name:  "logs",
	Usage: "inspect the wallet API calls made by dApps",
	Subcommands: []*cli.Command{
		{
			Name:   "show",
			Usage:  "print the call logs",
			Action: logsShowAction,
		},
		{
			Name:   "clear",
			Usage:  "delete the call logs",
			Action: logsClearAction,
		},
	},
}

func logsShowAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	lines, err := svc.CallLogs(c.Context, net)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintln(c.App.Writer, l)
	}
	return nil
}

func logsClearAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.ClearCallLogs(c.Context, net)
}
