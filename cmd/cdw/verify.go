package main

import (
	"github.com/urfave/cli/v2"

	hdwallet "github.com/mlabs-haskell/cardano-dev-wallet/pkg/wallet"
)

var verify = cli.Command{
	Name:  "verify",
	Usage: "verify a signature returned by signData and print what it signs",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "signature",
			Usage:    "the hex COSE_Sign1 signature",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "key",
			Usage:    "the hex COSE_Key of the signer",
			Required: true,
		},
	},
	Action: verifyAction,
}

func verifyAction(c *cli.Context) error {
	svc, net, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := svc.VerifyDataSignature(c.Context, net, hdwallet.DataSignature{
		Signature: c.String("signature"),
		Key:       c.String("key"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, data)
}
