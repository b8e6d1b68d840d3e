package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
)

var (
	backend = cli.Command{
		Name:  "backend",
		Usage: "manage the chain backends of the active network",
		Subcommands: []*cli.Command{
			backendAddBlockfrostCmd, backendAddNodeCmd, backendListCmd,
			backendRenameCmd, backendDeleteCmd, backendActivateCmd, backendPingCmd,
		},
	}

	backendNameFlag = &cli.StringFlag{
		Name:     "name",
		Usage:    "the name of the backend",
		Required: true,
	}

	backendAddBlockfrostCmd = &cli.Command{
		Name:  "add-blockfrost",
		Usage: "add a blockfrost backend",
		Flags: []cli.Flag{
			backendNameFlag,
			&cli.StringFlag{
				Name:     "project_id",
				Usage:    "the blockfrost project id, must match the network",
				Required: true,
			},
		},
		Action: backendAddBlockfrostAction,
	}
	backendAddNodeCmd = &cli.Command{
		Name:  "add-node",
		Usage: "add an ogmios and kupo backend",
		Flags: []cli.Flag{
			backendNameFlag,
			&cli.StringFlag{
				Name:     "ogmios_url",
				Usage:    "the ogmios endpoint",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "kupo_url",
				Usage:    "the kupo endpoint",
				Required: true,
			},
		},
		Action: backendAddNodeAction,
	}
	backendListCmd = &cli.Command{
		Name:   "list",
		Usage:  "list the backends",
		Action: backendListAction,
	}
	backendRenameCmd = &cli.Command{
		Name:      "rename",
		Usage:     "rename a backend",
		ArgsUsage: "<id> <name>",
		Action:    backendRenameAction,
	}
	backendDeleteCmd = &cli.Command{
		Name:      "delete",
		Usage:     "delete a backend",
		ArgsUsage: "<id>",
		Action:    backendDeleteAction,
	}
	backendActivateCmd = &cli.Command{
		Name:      "activate",
		Usage:     "make a backend the one used by the wallet, none if no id is given",
		ArgsUsage: "[id]",
		Action:    backendActivateAction,
	}
	backendPingCmd = &cli.Command{
		Name:      "ping",
		Usage:     "check that a backend is reachable",
		ArgsUsage: "<id>",
		Action:    backendPingAction,
	}
)

func backendAddBlockfrostAction(c *cli.Context) error {
	return addBackend(
		c, domain.NewIndexerBackend(c.String("name"), c.String("project_id")),
	)
}

func backendAddNodeAction(c *cli.Context) error {
	return addBackend(c, domain.NewNodeBackend(
		c.String("name"), c.String("ogmios_url"), c.String("kupo_url"),
	))
}

func addBackend(c *cli.Context, b domain.Backend) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	id, err := svc.AddBackend(c.Context, net, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "backend %s added\n", id)
	return nil
}

func backendListAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	backends, err := svc.ListBackends(c.Context, net)
	if err != nil {
		return err
	}
	return printJSON(c, backends)
}

func backendRenameAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.RenameBackend(c.Context, net, c.Args().Get(0), c.Args().Get(1))
}

func backendDeleteAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.DeleteBackend(c.Context, net, c.Args().First())
}

func backendActivateAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.ActivateBackend(c.Context, net, c.Args().First())
}

func backendPingAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.PingBackend(c.Context, net, c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "pong")
	return nil
}
