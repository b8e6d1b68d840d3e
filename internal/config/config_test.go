package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/config"
)

func TestInitConfig(t *testing.T) {
	datadir := t.TempDir()
	t.Setenv("CDW_DATADIR", datadir)
	t.Setenv("CDW_EXPLORER_REQUEST_TIMEOUT", "2500")

	require.NoError(t, config.InitConfig())
	require.Equal(t, datadir, config.GetDatadir())
	require.Equal(t, 9455, config.GetInt(config.WalletListeningPortKey))
	require.Equal(t, "cdw.storage", config.GetString(config.BridgeChannelIDKey))
	require.Equal(t, 2500*time.Millisecond, config.GetExplorerTimeout())
	require.Equal(t, time.Hour, config.GetSessionIdleTimeout())
	require.Equal(t, filepath.Join(datadir, config.DbLocation), config.GetDbDir())
	require.DirExists(t, config.GetDbDir())
	require.DirExists(t, filepath.Join(datadir, config.ProfilerLocation))
}

func TestInitConfigInMemory(t *testing.T) {
	t.Setenv("CDW_DATADIR", t.TempDir())
	t.Setenv("CDW_DB_TYPE", "inmemory")
	t.Setenv("CDW_STATS_INTERVAL", "0")

	require.NoError(t, config.InitConfig())
	require.Empty(t, config.GetDbDir())
	require.Zero(t, config.GetStatsInterval())
}

func TestInitConfigInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CDW_DB_TYPE", "postgres"},
		{"CDW_WALLET_LISTENING_PORT", "70000"},
		{"CDW_EXPLORER_REQUEST_TIMEOUT", "0"},
		{"CDW_EXPLORER_RATE_LIMIT", "-1"},
		{"CDW_SESSION_IDLE_TIMEOUT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv("CDW_DATADIR", t.TempDir())
			t.Setenv(tt.key, tt.value)
			require.Error(t, config.InitConfig())
		})
	}
}

func TestInitCLIConfig(t *testing.T) {
	require.NoError(t, config.InitCLIConfig())
	require.Equal(t, "localhost:9455", config.GetString(config.DaemonAddrKey))
	require.Equal(t, "cdw.storage", config.GetString(config.BridgeChannelIDKey))
	require.Equal(t, 15*time.Second, config.GetExplorerTimeout())

	t.Setenv("CDW_DAEMON_ADDR", "10.0.0.2:9000")
	t.Setenv("CDW_BRIDGE_CHANNEL_ID", "other")
	require.NoError(t, config.InitCLIConfig())
	require.Equal(t, "10.0.0.2:9000", config.GetString(config.DaemonAddrKey))
	require.Equal(t, "other", config.GetString(config.BridgeChannelIDKey))

	t.Setenv("CDW_EXPLORER_REQUEST_TIMEOUT", "0")
	require.Error(t, config.InitCLIConfig())
}
