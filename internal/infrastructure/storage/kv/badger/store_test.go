package badgerstore_test

import (
	"context"
	"testing"

	badgerstore "github.com/mlabs-haskell/cardano-dev-wallet/internal/infrastructure/storage/kv/badger"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("in memory", testStore(""))
	t.Run("on disk", func(t *testing.T) {
		testStore(t.TempDir())(t)
	})
}

func testStore(dir string) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		store, err := badgerstore.NewStore(dir, nil)
		require.NoError(t, err)
		defer store.Close()

		value, err := store.Get(ctx, "mainnet/accounts")
		require.NoError(t, err)
		require.Nil(t, value)

		err = store.Set(ctx, "mainnet/accounts", []byte(`{"0":{}}`))
		require.NoError(t, err)
		err = store.Set(ctx, "mainnet/accounts/nextId", []byte("1"))
		require.NoError(t, err)

		value, err = store.Get(ctx, "mainnet/accounts")
		require.NoError(t, err)
		require.Equal(t, []byte(`{"0":{}}`), value)

		err = store.Set(ctx, "mainnet/accounts", []byte(`{}`))
		require.NoError(t, err)
		value, err = store.Get(ctx, "mainnet/accounts")
		require.NoError(t, err)
		require.Equal(t, []byte(`{}`), value)
	}
}
