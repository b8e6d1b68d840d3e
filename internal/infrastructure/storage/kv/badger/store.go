package badgerstore

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	storeDir   = "state"
	gcInterval = 30 * time.Minute
)

type entry struct {
	Value []byte
}

// Store is a ports.Store persisted with badger. An empty directory makes it
// an in-memory store.
type Store struct {
	store *badgerhold.Store
	quit  chan struct{}
}

// NewStore opens the store under baseDbDir.
func NewStore(baseDbDir string, logger badger.Logger) (*Store, error) {
	var dir string
	if len(baseDbDir) > 0 {
		dir = filepath.Join(baseDbDir, storeDir)
	}

	quit := make(chan struct{})
	store, err := createDb(dir, logger, quit)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	return &Store{store, quit}, nil
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var e entry
	if err := s.store.Get(key, &e); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return e.Value, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.store.Upsert(key, &entry{value})
}

// Close stops the value log GC and closes the db.
func (s *Store) Close() {
	close(s.quit)
	s.store.Close()
}

func createDb(
	dbDir string, logger badger.Logger, quit <-chan struct{},
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(gcInterval)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil &&
						err != badger.ErrNoRewrite {
						log.Error(err)
					}
				case <-quit:
					return
				}
			}
		}()
	}

	return db, nil
}
