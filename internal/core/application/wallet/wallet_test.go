package wallet_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/wallet"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/infrastructure/storage/kv/inmemory"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
	hdwallet "github.com/mlabs-haskell/cardano-dev-wallet/pkg/wallet"
)

const (
	testMnemonic = "test walk nut penalty hip pave soap entry language right filter choice"
	policyID     = "1d7f33bd23d85e1a25d87d86fac4f199c3197a2f7afeb662a0f34e1e"
	assetName    = "74657374"
)

var network = ledger.Preview

type testEnv struct {
	ctx        context.Context
	state      *state.State
	explorer   *mockExplorer
	entrypoint *wallet.Entrypoint
	account    *hdwallet.Account
	accountID  string
	metrics    *stats.WalletMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	ctx := context.Background()
	st := state.New(inmemory.NewStore())
	require.NoError(t, st.ActiveNetworkSet(ctx, network))

	w, err := hdwallet.NewWalletFromMnemonic(hdwallet.NewWalletFromMnemonicOpts{
		Mnemonic: strings.Fields(testMnemonic),
	})
	require.NoError(t, err)
	rootKey, err := w.RootKeyBech32()
	require.NoError(t, err)
	account, err := w.Account(0)
	require.NoError(t, err)

	keyID, err := st.RootKeysAdd(ctx, network, domain.RootKey{Name: "test", KeyBech32: rootKey})
	require.NoError(t, err)
	accountID, err := st.AccountsAdd(ctx, network, domain.Account{
		Name: "acc0", RootKeyID: keyID, AccountIndex: 0,
	})
	require.NoError(t, err)
	require.NoError(t, st.AccountsSetActive(ctx, network, accountID))

	backendID, err := st.BackendsAdd(ctx, network, domain.NewIndexerBackend("bf", "previewXYZ"))
	require.NoError(t, err)
	require.NoError(t, st.BackendsSetActive(ctx, network, backendID))

	exp := &mockExplorer{network: network}
	factory := func(domain.Backend, ledger.Network) (explorer.Service, error) {
		return exp, nil
	}
	metrics := stats.NewWalletMetrics(prometheus.NewRegistry())

	return &testEnv{
		ctx:        ctx,
		state:      st,
		explorer:   exp,
		entrypoint: wallet.NewEntrypoint(st, factory, metrics),
		account:    account,
		accountID:  accountID,
		metrics:    metrics,
	}
}

func (e *testEnv) address() ledger.Address {
	return e.account.BaseAddress(network)
}

func (e *testEnv) enable(t *testing.T) *wallet.WalletAPI {
	api, err := e.entrypoint.Enable(e.ctx)
	require.NoError(t, err)
	return api
}

func newUtxo(addr ledger.Address, i uint32, coin uint64, assets uint64) ledger.Utxo {
	value := ledger.NewValue(coin)
	if assets > 0 {
		value.AddAsset(policyID, assetName, assets)
	}
	return ledger.NewUtxo(
		ledger.TxIn{TxHash: fmt.Sprintf("%064x", i), Index: i},
		ledger.TxOut{Address: addr, Amount: value},
	)
}

func cborHex(t *testing.T, v interface{}) string {
	buf, err := ledger.Marshal(v)
	require.NoError(t, err)
	return hex.EncodeToString(buf)
}

func buildTx(t *testing.T, body map[uint64]interface{}) string {
	bodyBytes, err := ledger.Marshal(body)
	require.NoError(t, err)
	tx, err := ledger.Marshal([]interface{}{
		cbor.RawMessage(bodyBytes), map[uint64]interface{}{}, true, nil,
	})
	require.NoError(t, err)
	return hex.EncodeToString(tx)
}

func TestEntrypoint(t *testing.T) {
	e := newTestEnv(t)

	info := e.entrypoint.Info()
	require.Equal(t, "1", info.APIVersion)
	require.Equal(t, "Cardano Dev Wallet", info.Name)
	require.Empty(t, info.SupportedExtensions)

	enabled, err := e.entrypoint.IsEnabled(e.ctx)
	require.NoError(t, err)
	require.True(t, enabled)

	t.Run("refused on unconfigured network", func(t *testing.T) {
		require.NoError(t, e.state.ActiveNetworkSet(e.ctx, ledger.Preprod))
		defer e.state.ActiveNetworkSet(e.ctx, network)

		enabled, err := e.entrypoint.IsEnabled(e.ctx)
		require.NoError(t, err)
		require.False(t, enabled)

		_, err = e.entrypoint.Enable(e.ctx)
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindRefused))
	})

	t.Run("refused with dangling account", func(t *testing.T) {
		require.NoError(t, e.state.AccountsSetActive(e.ctx, network, "99"))
		defer e.state.AccountsSetActive(e.ctx, network, e.accountID)

		_, err := e.entrypoint.Enable(e.ctx)
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindRefused))
	})

	t.Run("backend errors are internal", func(t *testing.T) {
		factory := func(domain.Backend, ledger.Network) (explorer.Service, error) {
			return nil, errors.New("unreachable")
		}
		_, err := wallet.NewEntrypoint(e.state, factory, nil).Enable(e.ctx)
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindInternalError))
	})
}

func TestAddresses(t *testing.T) {
	e := newTestEnv(t)
	api := e.enable(t)

	id, err := api.GetNetworkID(e.ctx)
	require.NoError(t, err)
	require.Equal(t, uint8(0), id)

	change, err := api.GetChangeAddress(e.ctx)
	require.NoError(t, err)
	require.Equal(t, e.address().Hex(), change)

	used, err := api.GetUsedAddresses(e.ctx, nil)
	require.NoError(t, err)
	require.Equal(t, []string{change}, used)

	used, err = api.GetUsedAddresses(e.ctx, &explorer.Paginate{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Empty(t, used)

	unused, err := api.GetUnusedAddresses(e.ctx)
	require.NoError(t, err)
	require.Empty(t, unused)

	rewards, err := api.GetRewardAddresses(e.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{e.account.RewardAddress(network).Hex()}, rewards)

	extensions, err := api.GetExtensions(e.ctx)
	require.NoError(t, err)
	require.Empty(t, extensions)
}

func TestUtxosAndBalance(t *testing.T) {
	e := newTestEnv(t)
	addr := e.address()
	utxos := []ledger.Utxo{
		newUtxo(addr, 1, 2_000_000, 5),
		newUtxo(addr, 2, 3_000_000, 0),
		newUtxo(addr, 3, 5_000_000, 0),
	}
	e.explorer.On("GetUtxos", addr.Hex()).Return(utxos, nil)
	api := e.enable(t)

	t.Run("all", func(t *testing.T) {
		res, err := api.GetUtxos(e.ctx, nil, nil)
		require.NoError(t, err)
		require.Len(t, res, 3)

		res, err = api.GetUtxos(e.ctx, nil, &explorer.Paginate{Page: 1, Limit: 2})
		require.NoError(t, err)
		require.Len(t, res, 1)
		u, err := ledger.ParseUtxoHex(res[0])
		require.NoError(t, err)
		require.Equal(t, utxos[2].Input, u.Input)
	})

	t.Run("with amount", func(t *testing.T) {
		amount := cborHex(t, ledger.NewValue(4_000_000))
		res, err := api.GetUtxos(e.ctx, &amount, nil)
		require.NoError(t, err)
		require.Len(t, res, 2)

		target := ledger.NewValue(1)
		require.NoError(t, target.AddAsset(policyID, assetName, 6))
		amount = cborHex(t, target)
		res, err = api.GetUtxos(e.ctx, &amount, nil)
		require.NoError(t, err)
		require.Nil(t, res)

		bad := "zz"
		_, err = api.GetUtxos(e.ctx, &bad, nil)
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindInvalidRequest))
	})

	t.Run("balance", func(t *testing.T) {
		res, err := api.GetBalance(e.ctx)
		require.NoError(t, err)
		buf, err := hex.DecodeString(res)
		require.NoError(t, err)
		var balance ledger.Value
		require.NoError(t, ledger.Unmarshal(buf, &balance))
		require.Equal(t, uint64(10_000_000), balance.Coin)
		require.Equal(t, uint64(5), balance.Quantity(policyID, assetName))
	})

	t.Run("overrides", func(t *testing.T) {
		override := "42"
		require.NoError(t, e.state.OverridesSet(e.ctx, network, domain.Overrides{
			Balance:          &override,
			HiddenUtxos:      []domain.UtxoRef{{TxHashHex: utxos[0].Input.TxHash, Index: 1}},
			HiddenCollateral: []domain.UtxoRef{{TxHashHex: utxos[1].Input.TxHash, Index: 2}},
		}))
		defer e.state.OverridesSet(e.ctx, network, domain.DefaultOverrides())

		res, err := api.GetUtxos(e.ctx, nil, nil)
		require.NoError(t, err)
		require.Len(t, res, 2)

		balanceHex, err := api.GetBalance(e.ctx)
		require.NoError(t, err)
		buf, _ := hex.DecodeString(balanceHex)
		var balance ledger.Value
		require.NoError(t, ledger.Unmarshal(buf, &balance))
		require.Equal(t, uint64(42), balance.Coin)
		require.False(t, balance.HasAssets())

		collateral, err := api.GetCollateral(e.ctx, nil)
		require.NoError(t, err)
		require.Len(t, collateral, 1)
		u, err := ledger.ParseUtxoHex(collateral[0])
		require.NoError(t, err)
		require.Equal(t, utxos[2].Input, u.Input)
	})
}

func TestCollateral(t *testing.T) {
	e := newTestEnv(t)
	addr := e.address()
	e.explorer.On("GetUtxos", addr.Hex()).Return([]ledger.Utxo{
		newUtxo(addr, 1, 10_000_000, 1),
		newUtxo(addr, 2, 3_000_000, 0),
		newUtxo(addr, 3, 3_000_000, 0),
		newUtxo(addr, 4, 3_000_000, 0),
	}, nil)
	api := e.enable(t)

	checkCoin := func(res []string, min uint64) {
		var sum uint64
		for _, s := range res {
			u, err := ledger.ParseUtxoHex(s)
			require.NoError(t, err)
			require.False(t, u.Output.Amount.HasAssets())
			sum += u.Output.Amount.Coin
		}
		require.GreaterOrEqual(t, sum, min)
	}

	res, err := api.GetCollateral(e.ctx, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	checkCoin(res, 5_000_000)

	zero := cborHex(t, uint64(0))
	res, err = api.GetCollateral(e.ctx, &zero)
	require.NoError(t, err)
	checkCoin(res, 5_000_000)

	seven := cborHex(t, uint64(7_000_000))
	res, err = api.GetCollateral(e.ctx, &seven)
	require.NoError(t, err)
	require.Len(t, res, 3)

	tooMuch := cborHex(t, uint64(10_000_000))
	res, err = api.GetCollateral(e.ctx, &tooMuch)
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestSignTx(t *testing.T) {
	e := newTestEnv(t)
	addr := e.address()
	owned := newUtxo(addr, 1, 5_000_000, 0)
	e.explorer.On("GetUtxos", addr.Hex()).Return([]ledger.Utxo{owned}, nil)
	api := e.enable(t)

	foreign := bytes.Repeat([]byte{0x07}, ledger.KeyHashLength)
	reward := e.account.RewardAddress(network)

	t.Run("owned inputs and withdrawals", func(t *testing.T) {
		txHex := buildTx(t, map[uint64]interface{}{
			0: []ledger.TxIn{owned.Input},
			1: []interface{}{},
			2: uint64(170000),
			5: map[cbor.ByteString]uint64{cbor.ByteString(reward): 0},
		})
		signedHex, err := api.SignTx(e.ctx, txHex, false)
		require.NoError(t, err)
		require.NotEqual(t, txHex, signedHex)

		signed, err := ledger.ParseTransactionHex(signedHex)
		require.NoError(t, err)
		witnesses, err := signed.VKeyWitnesses()
		require.NoError(t, err)
		require.Len(t, witnesses, 2)

		original, err := ledger.ParseTransactionHex(txHex)
		require.NoError(t, err)
		require.Equal(t, original.Hash(), signed.Hash())
		for _, w := range witnesses {
			require.True(t, hdwallet.PublicKey(w.VKey).Verify(signed.Hash(), w.Signature))
		}
	})

	t.Run("unowned required signer", func(t *testing.T) {
		txHex := buildTx(t, map[uint64]interface{}{
			0:  []ledger.TxIn{owned.Input},
			1:  []interface{}{},
			2:  uint64(170000),
			14: [][]byte{foreign},
		})
		_, err := api.SignTx(e.ctx, txHex, false)
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindProofGeneration))

		signedHex, err := api.SignTx(e.ctx, txHex, true)
		require.NoError(t, err)
		signed, err := ledger.ParseTransactionHex(signedHex)
		require.NoError(t, err)
		witnesses, err := signed.VKeyWitnesses()
		require.NoError(t, err)
		require.Len(t, witnesses, 1)
		require.Equal(t, []byte(e.account.PaymentKey.PublicKey()), witnesses[0].VKey)
	})

	t.Run("only foreign signers", func(t *testing.T) {
		txHex := buildTx(t, map[uint64]interface{}{
			0:  []ledger.TxIn{{TxHash: strings.Repeat("cd", 32), Index: 0}},
			1:  []interface{}{},
			2:  uint64(170000),
			14: [][]byte{foreign},
		})
		signedHex, err := api.SignTx(e.ctx, txHex, true)
		require.NoError(t, err)
		require.Equal(t, txHex, signedHex)

		signed, err := ledger.ParseTransactionHex(signedHex)
		require.NoError(t, err)
		witnesses, err := signed.VKeyWitnesses()
		require.NoError(t, err)
		require.Empty(t, witnesses)
	})

	t.Run("invalid tx", func(t *testing.T) {
		_, err := api.SignTx(e.ctx, "00", false)
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindInvalidRequest))
	})
}

func TestSignData(t *testing.T) {
	e := newTestEnv(t)
	api := e.enable(t)
	payload := hex.EncodeToString([]byte("hello"))

	for _, addr := range []ledger.Address{e.address(), e.account.RewardAddress(network)} {
		sig, err := api.SignData(e.ctx, addr.Hex(), payload)
		require.NoError(t, err)
		signed, signer, err := hdwallet.VerifyDataSignature(*sig)
		require.NoError(t, err)
		require.Equal(t, []byte("hello"), signed)
		require.True(t, signer.Equal(addr))
	}

	foreign := ledger.NewBaseAddress(
		network.ID,
		bytes.Repeat([]byte{0x01}, ledger.KeyHashLength),
		e.account.StakeKeyHash(),
	)
	_, err := api.SignData(e.ctx, foreign.Hex(), payload)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindProofGeneration))

	_, err = api.SignData(e.ctx, "nope", payload)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindInvalidRequest))
}

func TestSubmitTx(t *testing.T) {
	e := newTestEnv(t)
	txHex := buildTx(t, map[uint64]interface{}{
		0: []ledger.TxIn{}, 1: []interface{}{}, 2: uint64(0),
	})
	e.explorer.On("SubmitTx", txHex).Return("txid", nil).Once()
	e.explorer.On("SubmitTx", mock.Anything).Return("", errors.New("rejected"))
	api := e.enable(t)

	txid, err := api.SubmitTx(e.ctx, txHex)
	require.NoError(t, err)
	require.Equal(t, "txid", txid)

	_, err = api.SubmitTx(e.ctx, txHex)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindInternalError))
}

func TestBackendFailures(t *testing.T) {
	e := newTestEnv(t)
	e.explorer.On("GetUtxos", e.address().Hex()).Return(nil, errors.New("connection refused"))
	api := e.enable(t)

	internal := func(t *testing.T, err error) {
		require.True(t, domain.IsErrorKind(err, domain.ErrorKindInternalError), err)
		require.Contains(t, err.Error(), "connection refused")
	}

	t.Run("utxos", func(t *testing.T) {
		_, err := api.GetUtxos(e.ctx, nil, nil)
		internal(t, err)
	})

	t.Run("balance", func(t *testing.T) {
		_, err := api.GetBalance(e.ctx)
		internal(t, err)
	})

	t.Run("collateral", func(t *testing.T) {
		_, err := api.GetCollateral(e.ctx, nil)
		internal(t, err)
	})

	t.Run("sign tx spending inputs", func(t *testing.T) {
		txHex := buildTx(t, map[uint64]interface{}{
			0: []ledger.TxIn{{TxHash: strings.Repeat("cd", 32), Index: 0}},
			1: []interface{}{},
			2: uint64(170000),
		})
		_, err := api.SignTx(e.ctx, txHex, true)
		internal(t, err)
	})

	logs, err := e.state.CallLogsGet(e.ctx, network)
	require.NoError(t, err)
	require.Len(t, logs, 8)
	require.True(t, strings.HasPrefix(logs[1], `[0] => {"code":"InternalError","info":`))
}

func TestUnknownBackendKind(t *testing.T) {
	e := newTestEnv(t)
	factory := wallet.NewBackendFactory(wallet.BackendFactoryOpts{})

	_, err := factory(domain.Backend{Kind: "carrier-pigeon", Name: "bird"}, network)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindInternalError))
	require.Contains(t, err.Error(), domain.ErrUnknownBackendKind.Error())

	backendID, err := e.state.BackendsAdd(e.ctx, network, domain.Backend{
		Kind: "carrier-pigeon", Name: "bird",
	})
	require.NoError(t, err)
	require.NoError(t, e.state.BackendsSetActive(e.ctx, network, backendID))

	_, err = wallet.NewEntrypoint(e.state, factory, nil).Enable(e.ctx)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindInternalError))
	require.Contains(t, err.Error(), domain.ErrUnknownBackendKind.Error())
}

func TestAccountChange(t *testing.T) {
	e := newTestEnv(t)
	api := e.enable(t)

	_, err := api.GetChangeAddress(e.ctx)
	require.NoError(t, err)

	otherID, err := e.state.AccountsAdd(e.ctx, network, domain.Account{
		Name: "acc1", RootKeyID: "0", AccountIndex: 1,
	})
	require.NoError(t, err)
	require.NoError(t, e.state.AccountsSetActive(e.ctx, network, otherID))

	_, err = api.GetChangeAddress(e.ctx)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindAccountChange))
	_, err = api.GetNetworkID(e.ctx)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindAccountChange))

	require.NoError(t, e.state.AccountsSetActive(e.ctx, network, e.accountID))
	require.NoError(t, e.state.ActiveNetworkSet(e.ctx, ledger.Mainnet))
	_, err = api.GetChangeAddress(e.ctx)
	require.True(t, domain.IsErrorKind(err, domain.ErrorKindAccountChange))

	logs, err := e.state.CallLogsGet(e.ctx, network)
	require.NoError(t, err)
	require.Len(t, logs, 6)
	require.Equal(t, "[0] getChangeAddress()", logs[0])
	require.True(t, strings.HasPrefix(logs[1], "[0] => \""))
	require.Equal(t, "[2] getChangeAddress()", logs[2])
	require.Contains(t, logs[3], "[2] => ")
	require.Contains(t, logs[3], "AccountChange")
	require.Equal(t, "[4] getNetworkId()", logs[4])

	// Calls made after the network switch are logged on the new one.
	logs, err = e.state.CallLogsGet(e.ctx, ledger.Mainnet)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "[0] getChangeAddress()", logs[0])
	require.Contains(t, logs[1], "[0] => ")
	require.Contains(t, logs[1], "AccountChange")

	require.Equal(t, 3.0, testutil.ToFloat64(
		e.metrics.CallsTotal.WithLabelValues("getChangeAddress", "error"),
	)+testutil.ToFloat64(e.metrics.CallsTotal.WithLabelValues("getChangeAddress", "ok")))
}

func TestCallLogs(t *testing.T) {
	e := newTestEnv(t)
	api := e.enable(t)

	bad := "zz"
	_, err := api.GetCollateral(e.ctx, &bad)
	require.Error(t, err)

	logs, err := e.state.CallLogsGet(e.ctx, network)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, `[0] getCollateral("zz")`, logs[0])
	require.True(t, strings.HasPrefix(logs[1], `[0] => {"code":"InvalidRequest","info":`))
}
