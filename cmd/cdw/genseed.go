package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var genseed = cli.Command{
	Name:  "genseed",
	Usage: "generate a mnemonic seed",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "words",
			Usage: "the number of words of the mnemonic: 12, 15, 18, 21 or 24",
			Value: 24,
		},
	},
	Action: genSeedAction,
}

func genSeedAction(c *cli.Context) error {
	svc, _, cleanup, err := getOperatorService(c)
	if err != nil {
		return err
	}
	defer cleanup()

	words, err := svc.GenerateSeed(c.Int("words"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, strings.Join(words, " "))
	return nil
}
