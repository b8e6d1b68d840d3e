package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/infrastructure/storage/kv/inmemory"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	"github.com/stretchr/testify/require"
)

func TestHierarchicalStore(t *testing.T) {
	ctx := context.Background()
	backend := inmemory.NewStore()
	root := state.NewHierarchicalStore(backend)

	t.Run("prefixes compose", func(t *testing.T) {
		chained := root.WithPrefix("a").WithPrefix("b")
		joined := root.WithPrefix("a", "b")
		require.Equal(t, "a/b/k", chained.Key("k"))
		require.Equal(t, joined.Key("k"), chained.Key("k"))

		require.NoError(t, chained.Set(ctx, "k", []byte("1")))
		value, err := joined.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("1"), value)
	})

	t.Run("siblings don't collide", func(t *testing.T) {
		parent := root.WithPrefix("p")
		x, y := parent.WithPrefix("x"), parent.WithPrefix("y")
		_ = parent.WithPrefix("z")

		require.NoError(t, x.Set(ctx, "k", []byte("x")))
		require.NoError(t, y.Set(ctx, "k", []byte("y")))

		value, err := x.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, []byte("x"), value)
		value, err = parent.Get(ctx, "k")
		require.NoError(t, err)
		require.Nil(t, value)
	})
}

func TestActiveNetwork(t *testing.T) {
	ctx := context.Background()
	s := state.New(inmemory.NewStore())

	net, err := s.ActiveNetworkGet(ctx)
	require.NoError(t, err)
	require.Equal(t, ledger.Mainnet, net)

	require.NoError(t, s.ActiveNetworkSet(ctx, ledger.Preview))
	net, err = s.ActiveNetworkGet(ctx)
	require.NoError(t, err)
	require.Equal(t, ledger.Preview, net)
}

func TestRecords(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	s := state.New(store)
	net := ledger.Preprod

	id0, err := s.RootKeysAdd(ctx, net, domain.RootKey{Name: "k0", KeyBech32: "xprv0"})
	require.NoError(t, err)
	id1, err := s.RootKeysAdd(ctx, net, domain.RootKey{Name: "k1", KeyBech32: "xprv1"})
	require.NoError(t, err)
	require.Equal(t, "0", id0)
	require.Equal(t, "1", id1)

	keys, err := s.RootKeysGet(ctx, net)
	require.NoError(t, err)
	require.Equal(t, map[string]domain.RootKey{
		"0": {Name: "k0", KeyBech32: "xprv0"},
		"1": {Name: "k1", KeyBech32: "xprv1"},
	}, keys)

	t.Run("networks are isolated", func(t *testing.T) {
		keys, err := s.RootKeysGet(ctx, ledger.Mainnet)
		require.NoError(t, err)
		require.Empty(t, keys)
	})

	t.Run("update", func(t *testing.T) {
		require.NoError(t, s.RootKeysUpdate(ctx, net, id0, domain.RootKey{Name: "renamed", KeyBech32: "xprv0"}))
		keys, err := s.RootKeysGet(ctx, net)
		require.NoError(t, err)
		require.Equal(t, "renamed", keys[id0].Name)

		err = s.RootKeysUpdate(ctx, net, "42", domain.RootKey{})
		require.ErrorIs(t, err, domain.ErrRootKeyNotFound)
	})

	t.Run("ids are never reused", func(t *testing.T) {
		require.NoError(t, s.RootKeysDelete(ctx, net, id1))
		require.NoError(t, s.RootKeysDelete(ctx, net, id1))

		keys, err := s.RootKeysGet(ctx, net)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		require.Contains(t, keys, id0)

		id2, err := s.RootKeysAdd(ctx, net, domain.RootKey{Name: "k2"})
		require.NoError(t, err)
		require.Equal(t, "2", id2)
	})

	t.Run("storage layout", func(t *testing.T) {
		value, err := store.Get(ctx, "preprod/rootKeys/nextId")
		require.NoError(t, err)
		require.Equal(t, "3", string(value))
	})
}

func TestActiveRecords(t *testing.T) {
	ctx := context.Background()
	s := state.New(inmemory.NewStore())
	net := ledger.Preview

	active, err := s.ResolveActiveAccount(ctx, net)
	require.NoError(t, err)
	require.Nil(t, active)

	keyID, err := s.RootKeysAdd(ctx, net, domain.RootKey{Name: "key"})
	require.NoError(t, err)
	accID, err := s.AccountsAdd(ctx, net, domain.Account{Name: "acc", RootKeyID: keyID, AccountIndex: 3})
	require.NoError(t, err)

	require.NoError(t, s.AccountsSetActive(ctx, net, accID))
	id, err := s.AccountsGetActive(ctx, net)
	require.NoError(t, err)
	require.Equal(t, accID, id)

	active, err = s.ResolveActiveAccount(ctx, net)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, uint32(3), active.Account.AccountIndex)
	require.Equal(t, "key", active.RootKey.Name)

	t.Run("dangling root key", func(t *testing.T) {
		require.NoError(t, s.RootKeysDelete(ctx, net, keyID))
		active, err := s.ResolveActiveAccount(ctx, net)
		require.NoError(t, err)
		require.Nil(t, active)
	})

	t.Run("dangling active id", func(t *testing.T) {
		require.NoError(t, s.AccountsDelete(ctx, net, accID))
		id, err := s.AccountsGetActive(ctx, net)
		require.NoError(t, err)
		require.Equal(t, accID, id)

		active, err := s.ResolveActiveAccount(ctx, net)
		require.NoError(t, err)
		require.Nil(t, active)
	})

	t.Run("backends", func(t *testing.T) {
		backend, err := s.ResolveActiveBackend(ctx, net)
		require.NoError(t, err)
		require.Nil(t, backend)

		id, err := s.BackendsAdd(ctx, net, domain.NewIndexerBackend("bf", "previewAbc"))
		require.NoError(t, err)
		require.NoError(t, s.BackendsSetActive(ctx, net, id))

		backend, err = s.ResolveActiveBackend(ctx, net)
		require.NoError(t, err)
		require.Equal(t, domain.BackendKindIndexer, backend.Backend.Kind)

		require.NoError(t, s.BackendsSetActive(ctx, net, ""))
		backend, err = s.ResolveActiveBackend(ctx, net)
		require.NoError(t, err)
		require.Nil(t, backend)
	})
}

func TestOverrides(t *testing.T) {
	ctx := context.Background()
	s := state.New(inmemory.NewStore())

	overrides, err := s.OverridesGet(ctx, ledger.Mainnet)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultOverrides(), overrides)

	balance := "1000"
	overrides.Balance = &balance
	overrides.HiddenCollateral = []domain.UtxoRef{{TxHashHex: "ab", Index: 0}}
	require.NoError(t, s.OverridesSet(ctx, ledger.Mainnet, overrides))

	got, err := s.OverridesGet(ctx, ledger.Mainnet)
	require.NoError(t, err)
	require.Equal(t, overrides, got)
}

func TestCallLogs(t *testing.T) {
	ctx := context.Background()
	s := state.New(inmemory.NewStore())
	net := ledger.Mainnet

	idx, err := s.CallLogsPush(ctx, net, nil, "getBalance()")
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	idx2, err := s.CallLogsPush(ctx, net, nil, "getUtxos()")
	require.NoError(t, err)
	require.Equal(t, 1, idx2)
	_, err = s.CallLogsPush(ctx, net, &idx, `=> "1a000f4240"`)
	require.NoError(t, err)

	logs, err := s.CallLogsGet(ctx, net)
	require.NoError(t, err)
	require.Equal(t, []string{
		"[0] getBalance()",
		"[1] getUtxos()",
		`[0] => "1a000f4240"`,
	}, logs)

	require.NoError(t, s.CallLogsClear(ctx, net))
	logs, err = s.CallLogsGet(ctx, net)
	require.NoError(t, err)
	require.Empty(t, logs)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := state.New(inmemory.NewStore())

	events, unsubscribe := s.Subscribe(10)

	id, err := s.AccountsAdd(ctx, ledger.Preprod, domain.Account{Name: "acc"})
	require.NoError(t, err)
	require.NoError(t, s.AccountsSetActive(ctx, ledger.Preprod, id))
	require.NoError(t, s.ActiveNetworkSet(ctx, ledger.Preprod))

	expected := []state.Event{
		{Kind: state.EventAccountsChanged, Network: "preprod", ID: id},
		{Kind: state.EventActiveAccountChanged, Network: "preprod", ID: id},
		{Kind: state.EventActiveNetworkChanged, Network: "preprod"},
	}
	for _, want := range expected {
		select {
		case got := <-events:
			require.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}

	unsubscribe()
	unsubscribe()
	_, ok := <-events
	require.False(t, ok)
}
