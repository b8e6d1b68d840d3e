package wallet

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	hdwallet "github.com/mlabs-haskell/cardano-dev-wallet/pkg/wallet"
)

// Extension is a wallet API extension identified by its CIP number.
type Extension struct {
	CIP int `json:"cip"`
}

// API is the typed wallet API bound to one account, one backend and one
// network.
type API struct {
	account *hdwallet.Account
	backend explorer.Service
	network ledger.Network
	state   *state.State
}

// NewAPI returns an API for the given account. Overrides of the network are
// read from state at every call.
func NewAPI(
	account *hdwallet.Account, backend explorer.Service,
	network ledger.Network, st *state.State,
) *API {
	return &API{account, backend, network, st}
}

func (a *API) NetworkID() uint8 {
	return a.network.ID
}

func (a *API) Network() ledger.Network {
	return a.network
}

func (a *API) Extensions() []Extension {
	return []Extension{}
}

func (a *API) address() ledger.Address {
	return a.account.BaseAddress(a.network)
}

func (a *API) overrides(ctx context.Context) (domain.Overrides, error) {
	if a.state == nil {
		return domain.DefaultOverrides(), nil
	}
	return a.state.OverridesGet(ctx, a.network)
}

func (a *API) allUtxos(ctx context.Context) ([]ledger.Utxo, error) {
	utxos, err := a.backend.GetUtxos(ctx, a.address())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch utxos: %w", err)
	}
	return utxos, nil
}

func (a *API) visibleUtxos(
	ctx context.Context, hidden func(domain.Overrides, string) bool,
) ([]ledger.Utxo, error) {
	utxos, err := a.allUtxos(ctx)
	if err != nil {
		return nil, err
	}
	overrides, err := a.overrides(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]ledger.Utxo, 0, len(utxos))
	for _, u := range utxos {
		if hidden(overrides, u.Input.Key()) {
			continue
		}
		visible = append(visible, u)
	}
	return visible, nil
}

// Utxos returns the utxos of the account address. If amount is not nil, only
// a selection covering it is returned, or nil if none does. Pagination
// applies to the result.
func (a *API) Utxos(
	ctx context.Context, amount *ledger.Value, paginate *explorer.Paginate,
) ([]ledger.Utxo, error) {
	utxos, err := a.visibleUtxos(ctx, domain.Overrides.HidesUtxo)
	if err != nil {
		return nil, err
	}
	if amount != nil {
		utxos = explorer.SelectForTarget(utxos, *amount)
		if utxos == nil {
			return nil, nil
		}
	}
	return explorer.PaginateItems(utxos, paginate), nil
}

// Balance returns the sum of the visible utxos. The coin is replaced by the
// balance override, if set.
func (a *API) Balance(ctx context.Context) (ledger.Value, error) {
	utxos, err := a.visibleUtxos(ctx, domain.Overrides.HidesUtxo)
	if err != nil {
		return ledger.Value{}, err
	}
	balance, err := ledger.SumUtxos(utxos)
	if err != nil {
		return ledger.Value{}, err
	}

	overrides, err := a.overrides(ctx)
	if err != nil {
		return ledger.Value{}, err
	}
	coin, err := overrides.BalanceCoin()
	if err != nil {
		return ledger.Value{}, err
	}
	if coin != nil {
		balance.Coin = *coin
	}
	return balance, nil
}

// Collateral selects pure-ada utxos covering max(amount, 5 ada), or nil if
// none do.
func (a *API) Collateral(
	ctx context.Context, amount *uint64,
) ([]ledger.Utxo, error) {
	utxos, err := a.visibleUtxos(ctx, domain.Overrides.HidesCollateral)
	if err != nil {
		return nil, err
	}
	return explorer.SelectPureAdaForTarget(
		utxos, explorer.CollateralTarget(amount),
	), nil
}

func (a *API) ChangeAddress() ledger.Address {
	return a.address()
}

func (a *API) UsedAddresses(paginate *explorer.Paginate) []ledger.Address {
	return explorer.PaginateItems([]ledger.Address{a.address()}, paginate)
}

func (a *API) UnusedAddresses() []ledger.Address {
	return []ledger.Address{}
}

func (a *API) RewardAddresses() []ledger.Address {
	return []ledger.Address{a.account.RewardAddress(a.network)}
}

// RequiredSigners returns the distinct key hashes that must witness tx: the
// declared required signers, the owners of the spent and collateral inputs
// found among the account utxos, and the stake credentials of withdrawals.
func (a *API) RequiredSigners(
	ctx context.Context, tx *ledger.Transaction,
) ([][]byte, error) {
	hashes := make([][]byte, 0)
	seen := make(map[string]struct{})
	add := func(h []byte) {
		k := hex.EncodeToString(h)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		hashes = append(hashes, h)
	}

	declared, err := tx.RequiredSigners()
	if err != nil {
		return nil, err
	}
	for _, h := range declared {
		add(h)
	}

	inputs, err := tx.Inputs()
	if err != nil {
		return nil, err
	}
	collateral, err := tx.CollateralInputs()
	if err != nil {
		return nil, err
	}
	if len(inputs)+len(collateral) > 0 {
		utxos, err := a.allUtxos(ctx)
		if err != nil {
			return nil, err
		}
		owners := make(map[string]ledger.Address, len(utxos))
		for _, u := range utxos {
			owners[u.Input.Key()] = u.Output.Address
		}
		for _, in := range append(inputs, collateral...) {
			addr, ok := owners[in.Key()]
			if !ok {
				continue
			}
			if h, ok := addr.PaymentKeyHash(); ok {
				add(h)
			}
		}
	}

	withdrawals, err := tx.Withdrawals()
	if err != nil {
		return nil, err
	}
	for _, addr := range withdrawals {
		if h, ok := addr.StakeKeyHash(); ok {
			add(h)
		}
	}
	return hashes, nil
}

func (a *API) keyFor(hash []byte) *hdwallet.PrivateKey {
	switch {
	case bytes.Equal(hash, a.account.PaymentKeyHash()):
		return a.account.PaymentKey
	case bytes.Equal(hash, a.account.StakeKeyHash()):
		return a.account.StakeKey
	}
	return nil
}

// SignTx returns a copy of tx witnessed by every required key the account
// owns. Unless partialSign is set, a required key the account doesn't own
// makes it fail with a ProofGeneration error.
func (a *API) SignTx(
	ctx context.Context, tx *ledger.Transaction, partialSign bool,
) (*ledger.Transaction, error) {
	signed := tx.Clone()
	txHash := signed.Hash()

	required, err := a.RequiredSigners(ctx, signed)
	if err != nil {
		return nil, err
	}

	witnesses := make([]ledger.VKeyWitness, 0, len(required))
	for _, h := range required {
		key := a.keyFor(h)
		if key == nil {
			if partialSign {
				continue
			}
			return nil, domain.NewAPIError(
				domain.ErrorKindProofGeneration,
				"unknown key hash %x", h,
			)
		}
		witnesses = append(witnesses, hdwallet.SignTxHash(key, txHash))
	}

	if len(witnesses) == 0 {
		return signed, nil
	}
	if err := signed.AddVKeyWitnesses(witnesses...); err != nil {
		return nil, err
	}
	return signed, nil
}

// SignData signs payload with the key the address credential maps to.
func (a *API) SignData(
	address ledger.Address, payload []byte,
) (*hdwallet.DataSignature, error) {
	var key *hdwallet.PrivateKey
	if address.IsReward() {
		if h, ok := address.StakeKeyHash(); ok {
			key = a.keyFor(h)
		}
	} else if h, ok := address.PaymentKeyHash(); ok {
		key = a.keyFor(h)
	}
	if key == nil {
		return nil, domain.NewAPIError(
			domain.ErrorKindProofGeneration,
			"address %s is not owned by the wallet", address,
		)
	}
	return hdwallet.SignData(key, address, payload)
}

// SubmitTx ...
func (a *API) SubmitTx(
	ctx context.Context, tx *ledger.Transaction,
) (string, error) {
	txHex, err := tx.Hex()
	if err != nil {
		return "", err
	}
	return a.backend.SubmitTx(ctx, txHex)
}
