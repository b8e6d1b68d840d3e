package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
)

var (
	override = cli.Command{
		Name:  "override",
		Usage: "alter what the wallet reports to dApps",
		Subcommands: []*cli.Command{
			overrideShowCmd, overrideBalanceCmd, overrideHideCmd, overrideUnhideCmd,
		},
	}

	collateralFlag = &cli.BoolFlag{
		Name:  "collateral",
		Usage: "apply to collateral selection instead of the utxo set",
	}

	overrideShowCmd = &cli.Command{
		Name:   "show",
		Usage:  "print the current overrides",
		Action: overrideShowAction,
	}
	overrideBalanceCmd = &cli.Command{
		Name:      "balance",
		Usage:     "override the reported lovelace balance, clear it if no amount is given",
		ArgsUsage: "[lovelace]",
		Action:    overrideBalanceAction,
	}
	overrideHideCmd = &cli.Command{
		Name:      "hide",
		Usage:     "hide a utxo",
		ArgsUsage: "<tx_hash#index>",
		Flags:     []cli.Flag{collateralFlag},
		Action:    overrideHideAction,
	}
	overrideUnhideCmd = &cli.Command{
		Name:      "unhide",
		Usage:     "stop hiding a utxo",
		ArgsUsage: "<tx_hash#index>",
		Flags:     []cli.Flag{collateralFlag},
		Action:    overrideUnhideAction,
	}
)

func overrideShowAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	overrides, err := svc.GetOverrides(c.Context, net)
	if err != nil {
		return err
	}
	return printJSON(c, overrides)
}

func overrideBalanceAction(c *cli.Context) error {
	var balance *string
	if c.NArg() > 0 {
		b := c.Args().First()
		balance = &b
	}

	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.SetBalanceOverride(c.Context, net, balance)
}

func overrideHideAction(c *cli.Context) error {
	return setUtxoHidden(c, true)
}

func overrideUnhideAction(c *cli.Context) error {
	return setUtxoHidden(c, false)
}

func setUtxoHidden(c *cli.Context, hidden bool) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	ref, err := parseUtxoRef(c.Args().First())
	if err != nil {
		return err
	}

	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.SetUtxoHidden(c.Context, net, ref, c.Bool(collateralFlag.Name), hidden)
}

func parseUtxoRef(s string) (domain.UtxoRef, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 2 || len(parts[0]) != 64 {
		return domain.UtxoRef{}, fmt.Errorf("invalid utxo %q, must be tx_hash#index", s)
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return domain.UtxoRef{}, fmt.Errorf("invalid utxo index %q", parts[1])
	}
	return domain.UtxoRef{TxHashHex: strings.ToLower(parts[0]), Index: uint32(index)}, nil
}
