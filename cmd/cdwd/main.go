package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/config"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/wallet"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/ports"
	badgerstore "github.com/mlabs-haskell/cardano-dev-wallet/internal/infrastructure/storage/kv/badger"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/infrastructure/storage/kv/inmemory"
	httpinterface "github.com/mlabs-haskell/cardano-dev-wallet/internal/interfaces/http"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/bridge"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/httputil"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
)

const eventsBuffer = 64

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("failed to init config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	store, closeStore, err := newStore(config.GetString(config.DBTypeKey))
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := stats.NewWalletMetrics(registry)

	st := state.New(store)

	blockfrostURLs := make(map[string]string)
	if url := config.GetString(config.BlockfrostURLKey); url != "" {
		for _, n := range ledger.Networks {
			blockfrostURLs[n.Name] = url
		}
	}
	factory := wallet.NewBackendFactory(wallet.BackendFactoryOpts{
		Client: httputil.NewClient(httputil.ClientOpts{
			Name:      "explorer",
			Timeout:   config.GetExplorerTimeout(),
			RateLimit: config.GetInt(config.ExplorerRateLimitKey),
		}),
		BlockfrostURLs: blockfrostURLs,
	})
	entrypoint := wallet.NewEntrypoint(st, factory, metrics)

	bridgeServer := bridge.NewStoreServer(
		config.GetString(config.BridgeChannelIDKey), store, log.StandardLogger(),
	)
	bridgeServer.OnRequest(func(method bridge.Method) {
		metrics.BridgeRequests.WithLabelValues(string(method)).Inc()
	})

	walletSvc, err := httpinterface.NewService(httpinterface.ServiceOpts{
		Port:         config.GetInt(config.WalletListeningPortKey),
		Entrypoint:   entrypoint,
		BridgeServer: bridgeServer,
		Metrics:      metrics,
		Gatherer:     registry,

		SessionIdleTimeout: config.GetSessionIdleTimeout(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create wallet interface")
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		watchState(gctx, st, metrics)
		return nil
	})

	if interval := config.GetStatsInterval(); interval > 0 {
		stats.EnableMemoryStatistics(
			ctx, interval, registry,
			filepath.Join(config.GetDatadir(), config.ProfilerLocation),
		)
	}

	if err := walletSvc.Start(); err != nil {
		cancel()
		log.WithError(err).Fatal("failed to start wallet interface")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down daemon")
	walletSvc.Stop()
	cancel()
	if err := group.Wait(); err != nil {
		log.WithError(err).Warn("state watcher stopped with error")
	}

	log.Info("exiting")
}

func newStore(dbType string) (ports.Store, func(), error) {
	if dbType == config.DBInMemory {
		return inmemory.NewStore(), func() {}, nil
	}

	store, err := badgerstore.NewStore(config.GetDbDir(), log.StandardLogger())
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// watchState logs every state change and counts it until ctx is done.
func watchState(ctx context.Context, st *state.State, metrics *stats.WalletMetrics) {
	events, unsubscribe := st.Subscribe(eventsBuffer)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			metrics.StateEvents.WithLabelValues(string(event.Kind)).Inc()
			log.WithFields(log.Fields{
				"network": event.Network,
				"id":      event.ID,
			}).Debugf("state: %s", event.Kind)
		}
	}
}
