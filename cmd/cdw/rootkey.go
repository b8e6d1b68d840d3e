package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var (
	rootkey = cli.Command{
		Name:  "rootkey",
		Usage: "manage the root keys of the active network",
		Subcommands: []*cli.Command{
			rootKeyAddCmd, rootKeyListCmd, rootKeyRenameCmd, rootKeyDeleteCmd,
		},
	}

	rootKeyAddCmd = &cli.Command{
		Name:  "add",
		Usage: "import a root key from a mnemonic or a bech32 xprv key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "the name of the root key",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key",
				Usage:    "the space separated mnemonic or the bech32 root key",
				Required: true,
			},
		},
		Action: rootKeyAddAction,
	}
	rootKeyListCmd = &cli.Command{
		Name:   "list",
		Usage:  "list the root keys",
		Action: rootKeyListAction,
	}
	rootKeyRenameCmd = &cli.Command{
		Name:      "rename",
		Usage:     "rename a root key",
		ArgsUsage: "<id> <name>",
		Action:    rootKeyRenameAction,
	}
	rootKeyDeleteCmd = &cli.Command{
		Name:      "delete",
		Usage:     "delete a root key and all of its accounts",
		ArgsUsage: "<id>",
		Action:    rootKeyDeleteAction,
	}
)

func rootKeyAddAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	material := strings.Join(strings.Fields(c.String("key")), " ")
	id, err := svc.AddRootKey(c.Context, net, c.String("name"), material)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "root key %s added\n", id)
	return nil
}

func rootKeyListAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	keys, err := svc.ListRootKeys(c.Context, net)
	if err != nil {
		return err
	}
	return printJSON(c, keys)
}

func rootKeyRenameAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.RenameRootKey(c.Context, net, c.Args().Get(0), c.Args().Get(1))
}

func rootKeyDeleteAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.DeleteRootKey(c.Context, net, c.Args().First())
}
