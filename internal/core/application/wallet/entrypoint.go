package wallet

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/stats"
	hdwallet "github.com/mlabs-haskell/cardano-dev-wallet/pkg/wallet"
)

const (
	APIVersion = "1"
	Name       = "Cardano Dev Wallet"
	Icon       = "data:image/svg+xml;base64," +
		"PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCAzMiAzMiI+" +
		"PGNpcmNsZSBjeD0iMTYiIGN5PSIxNiIgcj0iMTUiIGZpbGw9IiMwMDMzYWQiLz48L3N2Zz4="
)

// Info describes the wallet to dApps.
type Info struct {
	APIVersion          string      `json:"apiVersion"`
	Name                string      `json:"name"`
	Icon                string      `json:"icon"`
	SupportedExtensions []Extension `json:"supportedExtensions"`
}

// Entrypoint builds wallet API sessions out of the active records of the
// state.
type Entrypoint struct {
	state   *state.State
	factory BackendFactory
	metrics *stats.WalletMetrics
}

// NewEntrypoint ...
func NewEntrypoint(
	st *state.State, factory BackendFactory, metrics *stats.WalletMetrics,
) *Entrypoint {
	return &Entrypoint{st, factory, metrics}
}

func (e *Entrypoint) Info() Info {
	return Info{
		APIVersion:          APIVersion,
		Name:                Name,
		Icon:                Icon,
		SupportedExtensions: []Extension{},
	}
}

// IsEnabled reports whether both an account and a backend are active on the
// active network. It has no side effects.
func (e *Entrypoint) IsEnabled(ctx context.Context) (bool, error) {
	network, err := e.state.ActiveNetworkGet(ctx)
	if err != nil {
		return false, err
	}
	account, err := e.state.ResolveActiveAccount(ctx, network)
	if err != nil {
		return false, err
	}
	backend, err := e.state.ResolveActiveBackend(ctx, network)
	if err != nil {
		return false, err
	}
	return account != nil && backend != nil, nil
}

// Enable returns a WalletAPI bound to the active network, account and
// backend. It fails with Refused if no account or backend is active.
func (e *Entrypoint) Enable(ctx context.Context) (*WalletAPI, error) {
	network, err := e.state.ActiveNetworkGet(ctx)
	if err != nil {
		return nil, domain.ToAPIError(err)
	}

	active, err := e.state.ResolveActiveAccount(ctx, network)
	if err != nil {
		return nil, domain.ToAPIError(err)
	}
	if active == nil {
		return nil, domain.NewAPIError(
			domain.ErrorKindRefused, "no active account on %s", network,
		)
	}
	w, err := hdwallet.NewWalletFromRootKey(active.RootKey.KeyBech32)
	if err != nil {
		return nil, domain.NewAPIError(
			domain.ErrorKindInternalError,
			"invalid root key %q: %s", active.RootKey.Name, err,
		)
	}
	account, err := w.Account(active.Account.AccountIndex)
	if err != nil {
		return nil, domain.NewAPIError(
			domain.ErrorKindInternalError,
			"invalid account %q: %s", active.Account.Name, err,
		)
	}

	activeBackend, err := e.state.ResolveActiveBackend(ctx, network)
	if err != nil {
		return nil, domain.ToAPIError(err)
	}
	if activeBackend == nil {
		return nil, domain.NewAPIError(
			domain.ErrorKindRefused, "no active backend on %s", network,
		)
	}
	backend, err := e.factory(activeBackend.Backend, network)
	if err != nil {
		return nil, domain.ToAPIError(err)
	}

	log.WithFields(log.Fields{
		"network": network.Name,
		"account": active.Account.Name,
		"backend": activeBackend.Backend.Name,
	}).Info("wallet enabled")

	api := NewAPI(account, backend, network, e.state)
	return NewWalletAPI(api, e.state, active.ID, e.metrics), nil
}
