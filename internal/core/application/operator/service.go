package operator

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/state"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/application/wallet"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	hdwallet "github.com/mlabs-haskell/cardano-dev-wallet/pkg/wallet"
)

// maxConcurrentQueries bounds the backend queries run in parallel.
const maxConcurrentQueries = 4

// Service implements the management operations over the wallet state: root
// keys, accounts, backends, overrides and call logs of every network.
type Service struct {
	state   *state.State
	factory wallet.BackendFactory
}

func NewService(st *state.State, factory wallet.BackendFactory) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("missing state")
	}
	if factory == nil {
		return nil, fmt.Errorf("missing backend factory")
	}
	return &Service{st, factory}, nil
}

func (s *Service) GetNetwork(ctx context.Context) (ledger.Network, error) {
	return s.state.ActiveNetworkGet(ctx)
}

// SetNetwork switches the active network by name.
func (s *Service) SetNetwork(ctx context.Context, name string) (ledger.Network, error) {
	net, err := ledger.ParseNetworkName(name)
	if err != nil {
		return ledger.Network{}, err
	}
	if err := s.state.ActiveNetworkSet(ctx, net); err != nil {
		return ledger.Network{}, err
	}
	log.Infof("active network set to %s", net)
	return net, nil
}

// GenerateSeed returns a new mnemonic of the given number of words.
func (s *Service) GenerateSeed(words int) ([]string, error) {
	switch words {
	case 12, 15, 18, 21, 24:
	default:
		return nil, ErrInvalidWordsCount
	}
	return hdwallet.NewMnemonic(hdwallet.NewMnemonicOpts{
		EntropySize: words / 3 * 32,
	})
}

// VerifyDataSignature checks a signature produced by signData and returns the
// payload and signer it carries.
func (s *Service) VerifyDataSignature(
	ctx context.Context, net ledger.Network, sig hdwallet.DataSignature,
) (*SignedData, error) {
	payload, address, err := hdwallet.VerifyDataSignature(sig)
	if err != nil {
		return nil, err
	}
	data := &SignedData{
		Payload: hex.EncodeToString(payload),
		Address: address.String(),
	}

	accounts, err := s.ListAccounts(ctx, net)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Address == data.Address || a.RewardAddress == data.Address {
			data.AccountID = a.ID
			break
		}
	}
	return data, nil
}

func (s *Service) ListRootKeys(
	ctx context.Context, net ledger.Network,
) ([]RootKeyInfo, error) {
	keys, err := s.state.RootKeysGet(ctx, net)
	if err != nil {
		return nil, err
	}
	list := make([]RootKeyInfo, 0, len(keys))
	for _, id := range sortedIDs(keys) {
		list = append(list, RootKeyInfo{ID: id, Name: keys[id].Name})
	}
	return list, nil
}

// AddRootKey stores the root key obtained from material, either a mnemonic
// or a bech32 xprv key.
func (s *Service) AddRootKey(
	ctx context.Context, net ledger.Network, name, material string,
) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	w, err := hdwallet.NewWalletFromKeyMaterial(material)
	if err != nil {
		return "", err
	}
	key, err := w.RootKeyBech32()
	if err != nil {
		return "", err
	}
	id, err := s.state.RootKeysAdd(ctx, net, domain.RootKey{Name: name, KeyBech32: key})
	if err != nil {
		return "", err
	}
	log.WithField("network", net.Name).Infof("root key %s added", id)
	return id, nil
}

func (s *Service) RenameRootKey(
	ctx context.Context, net ledger.Network, id, name string,
) error {
	if err := validateName(name); err != nil {
		return err
	}
	keys, err := s.state.RootKeysGet(ctx, net)
	if err != nil {
		return err
	}
	key, ok := keys[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRootKeyNotFound, id)
	}
	key.Name = name
	return s.state.RootKeysUpdate(ctx, net, id, key)
}

// DeleteRootKey deletes the root key and the accounts derived from it.
func (s *Service) DeleteRootKey(
	ctx context.Context, net ledger.Network, id string,
) error {
	accounts, err := s.state.AccountsGet(ctx, net)
	if err != nil {
		return err
	}
	for _, accountID := range sortedIDs(accounts) {
		if accounts[accountID].RootKeyID != id {
			continue
		}
		if err := s.DeleteAccount(ctx, net, accountID); err != nil {
			return err
		}
	}
	if err := s.state.RootKeysDelete(ctx, net, id); err != nil {
		return err
	}
	log.WithField("network", net.Name).Infof("root key %s deleted", id)
	return nil
}

// ListAccounts returns all accounts, reporting the ones whose root key was
// deleted as dangling.
func (s *Service) ListAccounts(
	ctx context.Context, net ledger.Network,
) ([]AccountInfo, error) {
	accounts, err := s.state.AccountsGet(ctx, net)
	if err != nil {
		return nil, err
	}
	keys, err := s.state.RootKeysGet(ctx, net)
	if err != nil {
		return nil, err
	}
	activeID, err := s.state.AccountsGetActive(ctx, net)
	if err != nil {
		return nil, err
	}

	wallets := make(map[string]*hdwallet.Wallet)
	list := make([]AccountInfo, 0, len(accounts))
	for _, id := range sortedIDs(accounts) {
		account := accounts[id]
		info := AccountInfo{
			ID:             id,
			Account:        account,
			Active:         id == activeID,
			DerivationPath: hdwallet.AccountDerivationPath(account.AccountIndex).String(),
		}

		key, ok := keys[account.RootKeyID]
		if !ok {
			info.Dangling = true
			list = append(list, info)
			continue
		}
		w, ok := wallets[account.RootKeyID]
		if !ok {
			if w, err = hdwallet.NewWalletFromRootKey(key.KeyBech32); err != nil {
				return nil, err
			}
			wallets[account.RootKeyID] = w
		}
		derived, err := w.Account(account.AccountIndex)
		if err != nil {
			return nil, err
		}
		info.Address = derived.BaseAddress(net).String()
		info.RewardAddress = derived.RewardAddress(net).String()
		list = append(list, info)
	}
	return list, nil
}

func (s *Service) AddAccount(
	ctx context.Context, net ledger.Network,
	name, rootKeyID string, index uint32,
) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if index > hdwallet.MaxHardenedValue {
		return "", hdwallet.ErrOutOfRangeDerivationPathAccount
	}
	keys, err := s.state.RootKeysGet(ctx, net)
	if err != nil {
		return "", err
	}
	if _, ok := keys[rootKeyID]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrRootKeyNotFound, rootKeyID)
	}
	id, err := s.state.AccountsAdd(ctx, net, domain.Account{
		Name: name, RootKeyID: rootKeyID, AccountIndex: index,
	})
	if err != nil {
		return "", err
	}
	log.WithField("network", net.Name).Infof("account %s added", id)
	return id, nil
}

// AddAccountFromPath adds the account at the given m/1852'/1815'/account'
// derivation path.
func (s *Service) AddAccountFromPath(
	ctx context.Context, net ledger.Network, name, rootKeyID, path string,
) (string, error) {
	parsed, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return "", err
	}
	index, err := parsed.AccountIndex()
	if err != nil {
		return "", err
	}
	return s.AddAccount(ctx, net, name, rootKeyID, index)
}

func (s *Service) RenameAccount(
	ctx context.Context, net ledger.Network, id, name string,
) error {
	if err := validateName(name); err != nil {
		return err
	}
	accounts, err := s.state.AccountsGet(ctx, net)
	if err != nil {
		return err
	}
	account, ok := accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	account.Name = name
	return s.state.AccountsUpdate(ctx, net, id, account)
}

// DeleteAccount deletes the account, deactivating it first if needed.
func (s *Service) DeleteAccount(
	ctx context.Context, net ledger.Network, id string,
) error {
	activeID, err := s.state.AccountsGetActive(ctx, net)
	if err != nil {
		return err
	}
	if activeID == id {
		if err := s.state.AccountsSetActive(ctx, net, ""); err != nil {
			return err
		}
	}
	return s.state.AccountsDelete(ctx, net, id)
}

// ActivateAccount makes the account the active one. An empty id deactivates
// the current one.
func (s *Service) ActivateAccount(
	ctx context.Context, net ledger.Network, id string,
) error {
	if id != "" {
		accounts, err := s.state.AccountsGet(ctx, net)
		if err != nil {
			return err
		}
		account, ok := accounts[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
		keys, err := s.state.RootKeysGet(ctx, net)
		if err != nil {
			return err
		}
		if _, ok := keys[account.RootKeyID]; !ok {
			return fmt.Errorf("%w: %s", ErrDanglingAccount, id)
		}
	}
	if err := s.state.AccountsSetActive(ctx, net, id); err != nil {
		return err
	}
	log.WithField("network", net.Name).Infof("active account set to %q", id)
	return nil
}

func (s *Service) ListBackends(
	ctx context.Context, net ledger.Network,
) ([]BackendInfo, error) {
	backends, err := s.state.BackendsGet(ctx, net)
	if err != nil {
		return nil, err
	}
	activeID, err := s.state.BackendsGetActive(ctx, net)
	if err != nil {
		return nil, err
	}
	list := make([]BackendInfo, 0, len(backends))
	for _, id := range sortedIDs(backends) {
		list = append(list, BackendInfo{
			ID: id, Backend: backends[id], Active: id == activeID,
		})
	}
	return list, nil
}

// AddBackend stores the backend after making sure it can serve the network.
func (s *Service) AddBackend(
	ctx context.Context, net ledger.Network, backend domain.Backend,
) (string, error) {
	if _, err := s.factory(backend, net); err != nil {
		return "", err
	}
	id, err := s.state.BackendsAdd(ctx, net, backend)
	if err != nil {
		return "", err
	}
	log.WithField("network", net.Name).Infof("%s backend %s added", backend.Kind, id)
	return id, nil
}

func (s *Service) RenameBackend(
	ctx context.Context, net ledger.Network, id, name string,
) error {
	if err := validateName(name); err != nil {
		return err
	}
	backends, err := s.state.BackendsGet(ctx, net)
	if err != nil {
		return err
	}
	backend, ok := backends[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrBackendNotFound, id)
	}
	backend.Name = name
	return s.state.BackendsUpdate(ctx, net, id, backend)
}

func (s *Service) DeleteBackend(
	ctx context.Context, net ledger.Network, id string,
) error {
	activeID, err := s.state.BackendsGetActive(ctx, net)
	if err != nil {
		return err
	}
	if activeID == id {
		if err := s.state.BackendsSetActive(ctx, net, ""); err != nil {
			return err
		}
	}
	return s.state.BackendsDelete(ctx, net, id)
}

func (s *Service) ActivateBackend(
	ctx context.Context, net ledger.Network, id string,
) error {
	if id != "" {
		backends, err := s.state.BackendsGet(ctx, net)
		if err != nil {
			return err
		}
		if _, ok := backends[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrBackendNotFound, id)
		}
	}
	if err := s.state.BackendsSetActive(ctx, net, id); err != nil {
		return err
	}
	log.WithField("network", net.Name).Infof("active backend set to %q", id)
	return nil
}

// PingBackend checks that the endpoints of the backend are healthy.
func (s *Service) PingBackend(
	ctx context.Context, net ledger.Network, id string,
) error {
	backends, err := s.state.BackendsGet(ctx, net)
	if err != nil {
		return err
	}
	backend, ok := backends[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrBackendNotFound, id)
	}
	svc, err := s.factory(backend, net)
	if err != nil {
		return err
	}
	pinger, ok := svc.(explorer.Pinger)
	if !ok {
		return ErrBackendNotPinger
	}
	return pinger.Ping(ctx)
}

// Balances queries the active backend for the balance of every non-dangling
// account.
func (s *Service) Balances(
	ctx context.Context, net ledger.Network,
) ([]AccountBalance, error) {
	active, err := s.state.ResolveActiveBackend(ctx, net)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, ErrNoActiveBackend
	}
	backend, err := s.factory(active.Backend, net)
	if err != nil {
		return nil, err
	}
	accounts, err := s.ListAccounts(ctx, net)
	if err != nil {
		return nil, err
	}

	lock := &sync.Mutex{}
	balances := make([]AccountBalance, 0, len(accounts))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentQueries)
	for _, account := range accounts {
		if account.Dangling {
			continue
		}
		account := account
		eg.Go(func() error {
			addr, err := ledger.ParseAddress(account.Address)
			if err != nil {
				return err
			}
			utxos, err := backend.GetUtxos(gctx, addr)
			if err != nil {
				return fmt.Errorf("account %s: %w", account.ID, err)
			}
			balance, err := ledger.SumUtxos(utxos)
			if err != nil {
				return fmt.Errorf("account %s: %w", account.ID, err)
			}
			lock.Lock()
			defer lock.Unlock()
			balances = append(balances, AccountBalance{
				AccountID: account.ID,
				Address:   account.Address,
				Balance:   balance,
			})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(balances, func(i, j int) bool {
		return lessID(balances[i].AccountID, balances[j].AccountID)
	})
	return balances, nil
}

func (s *Service) GetOverrides(
	ctx context.Context, net ledger.Network,
) (domain.Overrides, error) {
	return s.state.OverridesGet(ctx, net)
}

// SetBalanceOverride sets the lovelace reported as balance. A nil balance
// removes the override.
func (s *Service) SetBalanceOverride(
	ctx context.Context, net ledger.Network, balance *string,
) error {
	overrides, err := s.state.OverridesGet(ctx, net)
	if err != nil {
		return err
	}
	overrides.Balance = balance
	if _, err := overrides.BalanceCoin(); err != nil {
		return err
	}
	return s.state.OverridesSet(ctx, net, overrides)
}

// SetUtxoHidden hides or shows the utxo from utxo queries, or from collateral
// selection if collateral is set.
func (s *Service) SetUtxoHidden(
	ctx context.Context, net ledger.Network,
	ref domain.UtxoRef, collateral, hidden bool,
) error {
	overrides, err := s.state.OverridesGet(ctx, net)
	if err != nil {
		return err
	}
	refs := &overrides.HiddenUtxos
	if collateral {
		refs = &overrides.HiddenCollateral
	}

	filtered := make([]domain.UtxoRef, 0, len(*refs))
	for _, r := range *refs {
		if r.Key() != ref.Key() {
			filtered = append(filtered, r)
		}
	}
	if hidden {
		filtered = append(filtered, ref)
	}
	*refs = filtered
	return s.state.OverridesSet(ctx, net, overrides)
}

func (s *Service) CallLogs(
	ctx context.Context, net ledger.Network,
) ([]string, error) {
	return s.state.CallLogsGet(ctx, net)
}

func (s *Service) ClearCallLogs(ctx context.Context, net ledger.Network) error {
	return s.state.CallLogsClear(ctx, net)
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) <= 0 {
		return domain.ErrNullName
	}
	return nil
}

func sortedIDs[T any](records map[string]T) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	return ids
}

// lessID orders numeric ids by value.
func lessID(a, b string) bool {
	x, errX := strconv.ParseUint(a, 10, 64)
	y, errY := strconv.ParseUint(b, 10, 64)
	if errX != nil || errY != nil {
		return a < b
	}
	return x < y
}
