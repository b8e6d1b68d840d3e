package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

var (
	account = cli.Command{
		Name:  "account",
		Usage: "manage the accounts of the active network",
		Subcommands: []*cli.Command{
			accountAddCmd, accountListCmd, accountRenameCmd, accountDeleteCmd,
			accountActivateCmd, accountBalancesCmd,
		},
	}

	accountAddCmd = &cli.Command{
		Name:  "add",
		Usage: "add an account derived from a root key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "the name of the account",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "root_key",
				Usage:    "the id of the root key to derive the account from",
				Required: true,
			},
			&cli.UintFlag{
				Name:  "index",
				Usage: "the account index",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "the account derivation path m/1852'/1815'/index', alternative to --index",
			},
		},
		Action: accountAddAction,
	}
	accountListCmd = &cli.Command{
		Name:   "list",
		Usage:  "list the accounts and their addresses",
		Action: accountListAction,
	}
	accountRenameCmd = &cli.Command{
		Name:      "rename",
		Usage:     "rename an account",
		ArgsUsage: "<id> <name>",
		Action:    accountRenameAction,
	}
	accountDeleteCmd = &cli.Command{
		Name:      "delete",
		Usage:     "delete an account",
		ArgsUsage: "<id>",
		Action:    accountDeleteAction,
	}
	accountActivateCmd = &cli.Command{
		Name:      "activate",
		Usage:     "make an account the one exposed to dApps, none if no id is given",
		ArgsUsage: "[id]",
		Action:    accountActivateAction,
	}
	accountBalancesCmd = &cli.Command{
		Name:   "balances",
		Usage:  "show the ADA balance of every account using the active backend",
		Action: accountBalancesAction,
	}
)

func accountAddAction(c *cli.Context) error {
	if c.IsSet("index") && c.IsSet("path") {
		return fmt.Errorf("--index and --path are mutually exclusive")
	}

	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	var id string
	if c.IsSet("path") {
		id, err = svc.AddAccountFromPath(
			c.Context, net, c.String("name"), c.String("root_key"), c.String("path"),
		)
	} else {
		id, err = svc.AddAccount(
			c.Context, net, c.String("name"), c.String("root_key"),
			uint32(c.Uint("index")),
		)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "account %s added\n", id)
	return nil
}

func accountListAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := svc.ListAccounts(c.Context, net)
	if err != nil {
		return err
	}
	return printJSON(c, accounts)
}

func accountRenameAction(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.RenameAccount(c.Context, net, c.Args().Get(0), c.Args().Get(1))
}

func accountDeleteAction(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.DeleteAccount(c.Context, net, c.Args().First())
}

func accountActivateAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.ActivateAccount(c.Context, net, c.Args().First())
}

func accountBalancesAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	balances, err := svc.Balances(c.Context, net)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tADA\tASSETS\tADDRESS")
	for _, b := range balances {
		fmt.Fprintf(
			w, "%s\t%s\t%d\t%s\n", b.AccountID, ledger.FormatADA(b.Balance.Coin),
			len(b.Balance.Units()), b.Address,
		)
	}
	return w.Flush()
}
