package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/config"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/operator"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/wallet"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/bridge"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/httputil"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

const dialTimeout = 10 * time.Second

var (
	daemonFlag = &cli.StringFlag{
		Name:  "daemon",
		Usage: "cdwd daemon address <host:port>, defaults to $CDW_DAEMON_ADDR or localhost:9455",
	}
	channelFlag = &cli.StringFlag{
		Name:  "channel",
		Usage: "the bridge channel shared with the daemon, defaults to $CDW_BRIDGE_CHANNEL_ID or cdw.storage",
	}
	networkFlag = &cli.StringFlag{
		Name:  "network",
		Usage: "the network to operate on, defaults to the active one",
	}

	// dialBridge opens the transport to the daemon's bridge.
	dialBridge = func(ctx context.Context, addr string) (bridge.Transport, error) {
		return bridge.Dial(ctx, fmt.Sprintf("ws://%s/bridge", addr))
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "cdw"
	app.Usage = "Command line interface for cardano dev wallet operators"
	app.Flags = []cli.Flag{daemonFlag, channelFlag, networkFlag}
	app.Before = func(*cli.Context) error {
		return config.InitCLIConfig()
	}
	app.Commands = append(
		app.Commands,
		&genseed,
		&network,
		&rootkey,
		&account,
		&backend,
		&override,
		&logs,
		&verify,
	)
	return app
}

// getOperatorService connects to the daemon's bridge and returns an operator
// service working on its state along with the network to operate on. Logs
// are forwarded to the daemon.
func getOperatorService(
	c *cli.Context,
) (*operator.Service, ledger.Network, func(), error) {
	ctx, cancel := context.WithTimeout(c.Context, dialTimeout)
	defer cancel()

	addr := c.String(daemonFlag.Name)
	if addr == "" {
		addr = config.GetString(config.DaemonAddrKey)
	}
	channel := c.String(channelFlag.Name)
	if channel == "" {
		channel = config.GetString(config.BridgeChannelIDKey)
	}

	transport, err := dialBridge(ctx, addr)
	if err != nil {
		return nil, ledger.Network{}, nil, fmt.Errorf(
			"unable to connect to daemon: %w", err,
		)
	}
	client := bridge.NewClient(channel, transport)

	logger := log.StandardLogger()
	logger.SetOutput(io.Discard)
	logger.AddHook(bridge.NewLogHook(client, log.InfoLevel))

	cleanup := func() {
		logger.ReplaceHooks(make(log.LevelHooks))
		logger.SetOutput(os.Stderr)
		_ = client.Close()
	}

	st := state.New(bridge.NewRemoteStore(client))
	factory := wallet.NewBackendFactory(wallet.BackendFactoryOpts{
		Client: httputil.NewClient(httputil.ClientOpts{
			Name:    "cdw",
			Timeout: config.GetExplorerTimeout(),
		}),
	})
	svc, err := operator.NewService(st, factory)
	if err != nil {
		cleanup()
		return nil, ledger.Network{}, nil, err
	}

	net, err := svc.GetNetwork(c.Context)
	if err != nil {
		cleanup()
		return nil, ledger.Network{}, nil, err
	}
	if name := c.String(networkFlag.Name); name != "" {
		if net, err = ledger.ParseNetworkName(name); err != nil {
			cleanup()
			return nil, ledger.Network{}, nil, err
		}
	}

	return svc, net, cleanup, nil
}

func printJSON(c *cli.Context, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("unable to encode response: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(buf))
	return err
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return &invalidUsageError{c, c.Command.Name}
	}
	return nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[cdw] %v\n", err)
	}
	os.Exit(1)
}
