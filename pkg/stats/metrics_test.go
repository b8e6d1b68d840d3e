package stats_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
)

func TestWalletMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := stats.NewWalletMetrics(reg)

	m.ObserveCall("getBalance", time.Now(), nil)
	m.ObserveCall("getBalance", time.Now(), nil)
	m.ObserveCall("signTx", time.Now(), errors.New("boom"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("getBalance", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("signTx", "error")))

	var nilMetrics *stats.WalletMetrics
	require.NotPanics(t, func() { nilMetrics.ObserveCall("getBalance", time.Now(), nil) })
}

func TestDumpPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := stats.NewWalletMetrics(reg)
	m.Sessions.Set(3)

	path := t.TempDir() + "/" + stats.DumpFilename
	require.NoError(t, stats.DumpPrometheus(reg, path))
	require.FileExists(t, path)
}
