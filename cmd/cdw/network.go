package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var network = cli.Command{
	Name:  "network",
	Usage: "get or set the active network",
	Subcommands: []*cli.Command{
		{
			Name:   "get",
			Usage:  "print the active network",
			Action: networkGetAction,
		},
		{
			Name:      "set",
			Usage:     "switch the active network: mainnet, preprod or preview",
			ArgsUsage: "<network>",
			Action:    networkSetAction,
		},
	},
}

func networkGetAction(c *cli.Context) error {
	svc, _, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	net, err := svc.GetNetwork(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, net.Name)
	return nil
}

func networkSetAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	svc, _, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	net, err := svc.SetNetwork(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "active network set to %s\n", net.Name)
	return nil
}
