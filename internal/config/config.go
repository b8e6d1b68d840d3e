package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the state of the daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch the store between those supported
	DBTypeKey = "DB_TYPE"
	// WalletListeningPortKey is the port where the HTTP wallet interface will listen on
	WalletListeningPortKey = "WALLET_LISTENING_PORT"
	// BridgeChannelIDKey is the channel shared by the bridge server and its clients
	BridgeChannelIDKey = "BRIDGE_CHANNEL_ID"
	// ExplorerRequestTimeoutKey are the milliseconds to wait for HTTP responses of chain backends before timeouts
	ExplorerRequestTimeoutKey = "EXPLORER_REQUEST_TIMEOUT"
	// ExplorerRateLimitKey is the max number of requests per second sent to chain backends
	ExplorerRateLimitKey = "EXPLORER_RATE_LIMIT"
	// BlockfrostURLKey overrides the public blockfrost endpoint of the active network
	BlockfrostURLKey = "BLOCKFROST_URL"
	// StatsIntervalKey defines interval in seconds for printing basic statistics, 0 disables them
	StatsIntervalKey = "STATS_INTERVAL"
	// SessionIdleTimeoutKey are the seconds a dApp session can go unused before being evicted
	SessionIdleTimeoutKey = "SESSION_IDLE_TIMEOUT"
	// DaemonAddrKey is the address <host:port> of the daemon the CLI connects to
	DaemonAddrKey = "DAEMON_ADDR"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	DbLocation       = "db"
	ProfilerLocation = "stats"
)

var (
	vip            *viper.Viper
	defaultDatadir = btcutil.AppDataDir("cardano-dev-wallet", false)

	supportedDBTypes = map[string]bool{DBBadger: true, DBInMemory: true}
)

const (
	defaultPort            = 9455
	defaultChannelID       = "cdw.storage"
	defaultExplorerTimeout = 15000
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("CDW")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(WalletListeningPortKey, defaultPort)
	vip.SetDefault(BridgeChannelIDKey, defaultChannelID)
	vip.SetDefault(ExplorerRequestTimeoutKey, defaultExplorerTimeout)
	vip.SetDefault(ExplorerRateLimitKey, 10)
	vip.SetDefault(StatsIntervalKey, 600)
	vip.SetDefault(SessionIdleTimeoutKey, 3600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

// InitCLIConfig loads the subset of the configuration used by the operator
// CLI. Unlike InitConfig it doesn't touch the datadir.
func InitCLIConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("CDW")
	vip.AutomaticEnv()

	vip.SetDefault(DaemonAddrKey, fmt.Sprintf("localhost:%d", defaultPort))
	vip.SetDefault(BridgeChannelIDKey, defaultChannelID)
	vip.SetDefault(ExplorerRequestTimeoutKey, defaultExplorerTimeout)

	if len(GetString(DaemonAddrKey)) <= 0 {
		return fmt.Errorf("missing daemon address")
	}
	if len(GetString(BridgeChannelIDKey)) <= 0 {
		return fmt.Errorf("missing bridge channel id")
	}
	if GetInt(ExplorerRequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", ExplorerRequestTimeoutKey)
	}
	return nil
}

func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the store, empty for in-memory stores.
func GetDbDir() string {
	if GetString(DBTypeKey) == DBInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetExplorerTimeout ...
func GetExplorerTimeout() time.Duration {
	return time.Duration(GetInt(ExplorerRequestTimeoutKey)) * time.Millisecond
}

// GetSessionIdleTimeout ...
func GetSessionIdleTimeout() time.Duration {
	return time.Duration(GetInt(SessionIdleTimeoutKey)) * time.Second
}

// GetStatsInterval ...
func GetStatsInterval() time.Duration {
	return time.Duration(GetInt(StatsIntervalKey)) * time.Second
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if dbType := GetString(DBTypeKey); !supportedDBTypes[dbType] {
		return fmt.Errorf("%s must be one of badger, inmemory, got %s", DBTypeKey, dbType)
	}

	port := GetInt(WalletListeningPortKey)
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be a valid port number", WalletListeningPortKey)
	}

	if len(GetString(BridgeChannelIDKey)) <= 0 {
		return fmt.Errorf("missing bridge channel id")
	}

	if GetInt(ExplorerRequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", ExplorerRequestTimeoutKey)
	}
	if GetInt(ExplorerRateLimitKey) < 0 {
		return fmt.Errorf("%s must not be negative", ExplorerRateLimitKey)
	}
	if GetInt(StatsIntervalKey) < 0 {
		return fmt.Errorf("%s must not be negative", StatsIntervalKey)
	}
	if GetInt(SessionIdleTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", SessionIdleTimeoutKey)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}
	if dbDir := GetDbDir(); dbDir != "" {
		if err := makeDirectoryIfNotExists(dbDir); err != nil {
			return err
		}
	}
	if GetInt(StatsIntervalKey) > 0 {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
