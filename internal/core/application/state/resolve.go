package state

import (
	"context"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// ActiveAccount is the active account together with the root key it's
// derived from.
type ActiveAccount struct {
	ID      string
	Account domain.Account
	RootKey domain.RootKey
}

// ActiveBackend ...
type ActiveBackend struct {
	ID      string
	Backend domain.Backend
}

// ResolveActiveAccount returns the active account of the network, or nil if
// none is set or the active id or its root key id don't resolve.
func (s *State) ResolveActiveAccount(
	ctx context.Context, net ledger.Network,
) (*ActiveAccount, error) {
	id, err := s.AccountsGetActive(ctx, net)
	if err != nil || id == "" {
		return nil, err
	}
	accounts, err := s.AccountsGet(ctx, net)
	if err != nil {
		return nil, err
	}
	account, ok := accounts[id]
	if !ok {
		return nil, nil
	}
	rootKeys, err := s.RootKeysGet(ctx, net)
	if err != nil {
		return nil, err
	}
	rootKey, ok := rootKeys[account.RootKeyID]
	if !ok {
		return nil, nil
	}
	return &ActiveAccount{ID: id, Account: account, RootKey: rootKey}, nil
}

// ResolveActiveBackend returns the active backend of the network, or nil if
// none is set or the active id doesn't resolve.
func (s *State) ResolveActiveBackend(
	ctx context.Context, net ledger.Network,
) (*ActiveBackend, error) {
	id, err := s.BackendsGetActive(ctx, net)
	if err != nil || id == "" {
		return nil, err
	}
	backends, err := s.BackendsGet(ctx, net)
	if err != nil {
		return nil, err
	}
	backend, ok := backends[id]
	if !ok {
		return nil, nil
	}
	return &ActiveBackend{ID: id, Backend: backend}, nil
}
