package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
	hdwallet "github.com/mlabs-haskell/cardano-dev-wallet/pkg/wallet"
)

const accountChangedInfo = "Account was changed by the user. Please reconnect to the Wallet"

// WalletAPI is the hex/CBOR facing wallet API. Every call is logged to the
// call logs of the active network and fails with AccountChange once the active
// network or account differs from the ones it was enabled for.
type WalletAPI struct {
	api       *API
	state     *state.State
	accountID string
	network   ledger.Network
	metrics   *stats.WalletMetrics
}

// NewWalletAPI ...
func NewWalletAPI(
	api *API, st *state.State, accountID string, metrics *stats.WalletMetrics,
) *WalletAPI {
	return &WalletAPI{api, st, accountID, api.Network(), metrics}
}

// AccountID returns the id of the account the API is bound to.
func (w *WalletAPI) AccountID() string {
	return w.accountID
}

func (w *WalletAPI) Network() ledger.Network {
	return w.network
}

// wrapCall runs op between the logging of the call and of its outcome, after
// making sure the session is still valid. Errors are returned as *APIError.
func wrapCall[T any](
	ctx context.Context, w *WalletAPI, fn string, args []interface{},
	op func() (T, error),
) (T, error) {
	start := time.Now()
	var zero T

	idx, err := w.logCall(ctx, fn, args)
	if err != nil {
		return zero, domain.ToAPIError(err)
	}

	res, err := func() (T, error) {
		if err := w.ensureAccountNotChanged(ctx); err != nil {
			return zero, err
		}
		return op()
	}()
	w.metrics.ObserveCall(fn, start, err)

	if err != nil {
		apiErr := domain.ToAPIError(err)
		log.WithError(apiErr).WithField("method", fn).Debug("wallet call failed")
		w.logResult(ctx, idx, apiErr)
		return zero, apiErr
	}
	w.logResult(ctx, idx, res)
	return res, nil
}

func (w *WalletAPI) logCall(
	ctx context.Context, fn string, args []interface{},
) (int, error) {
	strArgs := make([]string, 0, len(args))
	for _, arg := range args {
		strArgs = append(strArgs, toJSON(arg))
	}
	line := fmt.Sprintf("%s(%s)", fn, strings.Join(strArgs, ", "))
	net := w.logNetwork(ctx)
	log.WithField("network", net.Name).Debug(line)
	return w.state.CallLogsPush(ctx, net, nil, line)
}

func (w *WalletAPI) logResult(ctx context.Context, idx int, res interface{}) {
	line := "=> " + toJSON(res)
	if _, err := w.state.CallLogsPush(ctx, w.logNetwork(ctx), &idx, line); err != nil {
		log.WithError(err).Warn("failed to write call log")
	}
}

// logNetwork returns the currently active network, which may differ from the
// one the session was enabled for.
func (w *WalletAPI) logNetwork(ctx context.Context) ledger.Network {
	net, err := w.state.ActiveNetworkGet(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to read active network")
		return w.network
	}
	return net
}

func toJSON(v interface{}) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(buf)
}

func (w *WalletAPI) ensureAccountNotChanged(ctx context.Context) error {
	network, err := w.state.ActiveNetworkGet(ctx)
	if err != nil {
		return err
	}
	if network.Name != w.network.Name {
		return domain.NewAPIError(domain.ErrorKindAccountChange, accountChangedInfo)
	}
	accountID, err := w.state.AccountsGetActive(ctx, w.network)
	if err != nil {
		return err
	}
	if accountID != w.accountID {
		return domain.NewAPIError(domain.ErrorKindAccountChange, accountChangedInfo)
	}
	return nil
}

func invalidRequest(format string, args ...interface{}) error {
	return domain.NewAPIError(domain.ErrorKindInvalidRequest, format, args...)
}

func decodeHex(name, s string) ([]byte, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalidRequest("%s is not valid hex: %s", name, err)
	}
	return buf, nil
}

func encodeHex(v interface{}) (string, error) {
	buf, err := ledger.Marshal(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func encodeUtxos(utxos []ledger.Utxo) ([]string, error) {
	if utxos == nil {
		return nil, nil
	}
	res := make([]string, 0, len(utxos))
	for _, u := range utxos {
		s, err := u.Hex()
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func encodeAddresses(addrs []ledger.Address) []string {
	res := make([]string, 0, len(addrs))
	for _, a := range addrs {
		res = append(res, a.Hex())
	}
	return res
}

func (w *WalletAPI) GetNetworkID(ctx context.Context) (uint8, error) {
	return wrapCall(ctx, w, "getNetworkId", nil, func() (uint8, error) {
		return w.api.NetworkID(), nil
	})
}

func (w *WalletAPI) GetExtensions(ctx context.Context) ([]Extension, error) {
	return wrapCall(ctx, w, "getExtensions", nil, func() ([]Extension, error) {
		return w.api.Extensions(), nil
	})
}

// GetUtxos takes an optional CBOR hex value. A nil result means that no
// selection covers the amount.
func (w *WalletAPI) GetUtxos(
	ctx context.Context, amount *string, paginate *explorer.Paginate,
) ([]string, error) {
	args := []interface{}{amount, paginate}
	return wrapCall(ctx, w, "getUtxos", args, func() ([]string, error) {
		var target *ledger.Value
		if amount != nil {
			buf, err := decodeHex("amount", *amount)
			if err != nil {
				return nil, err
			}
			var v ledger.Value
			if err := ledger.Unmarshal(buf, &v); err != nil {
				return nil, invalidRequest("invalid amount: %s", err)
			}
			target = &v
		}
		utxos, err := w.api.Utxos(ctx, target, paginate)
		if err != nil {
			return nil, err
		}
		return encodeUtxos(utxos)
	})
}

func (w *WalletAPI) GetBalance(ctx context.Context) (string, error) {
	return wrapCall(ctx, w, "getBalance", nil, func() (string, error) {
		balance, err := w.api.Balance(ctx)
		if err != nil {
			return "", err
		}
		return encodeHex(balance)
	})
}

// GetCollateral takes an optional CBOR hex coin.
func (w *WalletAPI) GetCollateral(
	ctx context.Context, amount *string,
) ([]string, error) {
	args := []interface{}{amount}
	return wrapCall(ctx, w, "getCollateral", args, func() ([]string, error) {
		var target *uint64
		if amount != nil {
			buf, err := decodeHex("amount", *amount)
			if err != nil {
				return nil, err
			}
			var coin uint64
			if err := ledger.Unmarshal(buf, &coin); err != nil {
				return nil, invalidRequest("invalid amount: %s", err)
			}
			target = &coin
		}
		utxos, err := w.api.Collateral(ctx, target)
		if err != nil {
			return nil, err
		}
		return encodeUtxos(utxos)
	})
}

func (w *WalletAPI) GetChangeAddress(ctx context.Context) (string, error) {
	return wrapCall(ctx, w, "getChangeAddress", nil, func() (string, error) {
		return w.api.ChangeAddress().Hex(), nil
	})
}

func (w *WalletAPI) GetUsedAddresses(
	ctx context.Context, paginate *explorer.Paginate,
) ([]string, error) {
	args := []interface{}{paginate}
	return wrapCall(ctx, w, "getUsedAddresses", args, func() ([]string, error) {
		return encodeAddresses(w.api.UsedAddresses(paginate)), nil
	})
}

func (w *WalletAPI) GetUnusedAddresses(ctx context.Context) ([]string, error) {
	return wrapCall(ctx, w, "getUnusedAddresses", nil, func() ([]string, error) {
		return encodeAddresses(w.api.UnusedAddresses()), nil
	})
}

func (w *WalletAPI) GetRewardAddresses(ctx context.Context) ([]string, error) {
	return wrapCall(ctx, w, "getRewardAddresses", nil, func() ([]string, error) {
		return encodeAddresses(w.api.RewardAddresses()), nil
	})
}

// SignTx returns the CBOR hex of tx with the witnesses of the account added.
func (w *WalletAPI) SignTx(
	ctx context.Context, txHex string, partialSign bool,
) (string, error) {
	args := []interface{}{txHex, partialSign}
	return wrapCall(ctx, w, "signTx", args, func() (string, error) {
		tx, err := ledger.ParseTransactionHex(txHex)
		if err != nil {
			return "", invalidRequest("invalid tx: %s", err)
		}
		signed, err := w.api.SignTx(ctx, tx, partialSign)
		if err != nil {
			return "", err
		}
		return signed.Hex()
	})
}

// SignData takes a bech32 or hex address and a hex payload.
func (w *WalletAPI) SignData(
	ctx context.Context, address, payloadHex string,
) (*hdwallet.DataSignature, error) {
	args := []interface{}{address, payloadHex}
	return wrapCall(ctx, w, "signData", args, func() (*hdwallet.DataSignature, error) {
		addr, err := ledger.ParseAddress(address)
		if err != nil {
			return nil, invalidRequest("invalid address: %s", err)
		}
		payload, err := decodeHex("payload", payloadHex)
		if err != nil {
			return nil, err
		}
		return w.api.SignData(addr, payload)
	})
}

func (w *WalletAPI) SubmitTx(ctx context.Context, txHex string) (string, error) {
	args := []interface{}{txHex}
	return wrapCall(ctx, w, "submitTx", args, func() (string, error) {
		tx, err := ledger.ParseTransactionHex(txHex)
		if err != nil {
			return "", invalidRequest("invalid tx: %s", err)
		}
		return w.api.SubmitTx(ctx, tx)
	})
}
