package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/ports"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// Storage keys.
const (
	keyActiveNetwork = "activeNetwork"
	keyRootKeys      = "rootKeys"
	keyAccounts      = "accounts"
	keyBackends      = "backends"
	keyOverrides     = "overrides"
	keyCallLogs      = "callLogs"
	keyNextID        = "nextId"
	keyActiveID      = "activeId"
)

// DefaultNetwork is the active network of a fresh state.
var DefaultNetwork = ledger.Mainnet

// State is the wallet's network-scoped persistent state. Every collection,
// active pointer, overrides and call logs live under the namespace of a
// network, which is always given explicitly.
//
// Read-modify-write sequences are serialized within the process only.
type State struct {
	root   *HierarchicalStore
	lock   sync.Mutex
	events *broker

	rootKeys collection[domain.RootKey]
	accounts collection[domain.Account]
	backends collection[domain.Backend]
}

// New returns a State persisted on the given store.
func New(store ports.Store) *State {
	s := &State{
		root:   NewHierarchicalStore(store),
		events: newBroker(),
	}
	s.rootKeys = collection[domain.RootKey]{s, keyRootKeys, EventRootKeysChanged, ""}
	s.accounts = collection[domain.Account]{
		s, keyAccounts, EventAccountsChanged, EventActiveAccountChanged,
	}
	s.backends = collection[domain.Backend]{
		s, keyBackends, EventBackendsChanged, EventActiveBackendChanged,
	}
	return s
}

// Subscribe returns a channel notifying every mutation of the state and a
// function to unsubscribe.
func (s *State) Subscribe(buffer int) (<-chan Event, func()) {
	return s.events.subscribe(buffer)
}

func (s *State) network(net ledger.Network) *HierarchicalStore {
	return s.root.WithPrefix(net.Name)
}

// ActiveNetworkGet returns the active network, DefaultNetwork if never set.
func (s *State) ActiveNetworkGet(ctx context.Context) (ledger.Network, error) {
	var name string
	found, err := getJSON(ctx, s.root, keyActiveNetwork, &name)
	if err != nil {
		return ledger.Network{}, err
	}
	if !found {
		return DefaultNetwork, nil
	}
	return ledger.ParseNetworkName(name)
}

// ActiveNetworkSet ...
func (s *State) ActiveNetworkSet(ctx context.Context, net ledger.Network) error {
	if err := setJSON(ctx, s.root, keyActiveNetwork, net.Name); err != nil {
		return err
	}
	s.events.publish(Event{Kind: EventActiveNetworkChanged, Network: net.Name})
	return nil
}

// RootKeysGet ...
func (s *State) RootKeysGet(
	ctx context.Context, net ledger.Network,
) (map[string]domain.RootKey, error) {
	return s.rootKeys.get(ctx, net)
}

// RootKeysAdd ...
func (s *State) RootKeysAdd(
	ctx context.Context, net ledger.Network, v domain.RootKey,
) (string, error) {
	return s.rootKeys.add(ctx, net, v)
}

// RootKeysUpdate ...
func (s *State) RootKeysUpdate(
	ctx context.Context, net ledger.Network, id string, v domain.RootKey,
) error {
	return s.rootKeys.update(ctx, net, id, v, domain.ErrRootKeyNotFound)
}

// RootKeysDelete removes the root key. Dependent accounts are left untouched.
func (s *State) RootKeysDelete(
	ctx context.Context, net ledger.Network, id string,
) error {
	return s.rootKeys.delete(ctx, net, id)
}

// AccountsGet ...
func (s *State) AccountsGet(
	ctx context.Context, net ledger.Network,
) (map[string]domain.Account, error) {
	return s.accounts.get(ctx, net)
}

// AccountsAdd ...
func (s *State) AccountsAdd(
	ctx context.Context, net ledger.Network, v domain.Account,
) (string, error) {
	return s.accounts.add(ctx, net, v)
}

// AccountsUpdate ...
func (s *State) AccountsUpdate(
	ctx context.Context, net ledger.Network, id string, v domain.Account,
) error {
	return s.accounts.update(ctx, net, id, v, domain.ErrAccountNotFound)
}

// AccountsDelete ...
func (s *State) AccountsDelete(
	ctx context.Context, net ledger.Network, id string,
) error {
	return s.accounts.delete(ctx, net, id)
}

// AccountsGetActive returns the active account id, "" if none was set. The id
// may not resolve, see ResolveActiveAccount.
func (s *State) AccountsGetActive(
	ctx context.Context, net ledger.Network,
) (string, error) {
	return s.accounts.getActive(ctx, net)
}

// AccountsSetActive ...
func (s *State) AccountsSetActive(
	ctx context.Context, net ledger.Network, id string,
) error {
	return s.accounts.setActive(ctx, net, id)
}

// BackendsGet ...
func (s *State) BackendsGet(
	ctx context.Context, net ledger.Network,
) (map[string]domain.Backend, error) {
	return s.backends.get(ctx, net)
}

// BackendsAdd ...
func (s *State) BackendsAdd(
	ctx context.Context, net ledger.Network, v domain.Backend,
) (string, error) {
	return s.backends.add(ctx, net, v)
}

// BackendsUpdate ...
func (s *State) BackendsUpdate(
	ctx context.Context, net ledger.Network, id string, v domain.Backend,
) error {
	return s.backends.update(ctx, net, id, v, domain.ErrBackendNotFound)
}

// BackendsDelete ...
func (s *State) BackendsDelete(
	ctx context.Context, net ledger.Network, id string,
) error {
	return s.backends.delete(ctx, net, id)
}

// BackendsGetActive returns the active backend id, "" if none was set.
func (s *State) BackendsGetActive(
	ctx context.Context, net ledger.Network,
) (string, error) {
	return s.backends.getActive(ctx, net)
}

// BackendsSetActive ...
func (s *State) BackendsSetActive(
	ctx context.Context, net ledger.Network, id string,
) error {
	return s.backends.setActive(ctx, net, id)
}

// OverridesGet returns the overrides of the network, DefaultOverrides if never
// set.
func (s *State) OverridesGet(
	ctx context.Context, net ledger.Network,
) (domain.Overrides, error) {
	overrides := domain.DefaultOverrides()
	if _, err := getJSON(ctx, s.network(net), keyOverrides, &overrides); err != nil {
		return domain.Overrides{}, err
	}
	return overrides, nil
}

// OverridesSet ...
func (s *State) OverridesSet(
	ctx context.Context, net ledger.Network, overrides domain.Overrides,
) error {
	if err := setJSON(ctx, s.network(net), keyOverrides, overrides); err != nil {
		return err
	}
	s.events.publish(Event{Kind: EventOverridesChanged, Network: net.Name})
	return nil
}

// CallLogsGet ...
func (s *State) CallLogsGet(
	ctx context.Context, net ledger.Network,
) ([]string, error) {
	logs := make([]string, 0)
	if _, err := getJSON(ctx, s.network(net), keyCallLogs, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// CallLogsPush appends line prefixed with "[idx] ". A nil idx allocates the
// next ordinal, which is returned.
func (s *State) CallLogsPush(
	ctx context.Context, net ledger.Network, idx *int, line string,
) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	logs, err := s.CallLogsGet(ctx, net)
	if err != nil {
		return 0, err
	}
	i := len(logs)
	if idx != nil {
		i = *idx
	}
	logs = append(logs, fmt.Sprintf("[%d] %s", i, line))
	if err := setJSON(ctx, s.network(net), keyCallLogs, logs); err != nil {
		return 0, err
	}
	s.events.publish(Event{Kind: EventCallLogsChanged, Network: net.Name})
	return i, nil
}

// CallLogsClear ...
func (s *State) CallLogsClear(ctx context.Context, net ledger.Network) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := setJSON(ctx, s.network(net), keyCallLogs, []string{}); err != nil {
		return err
	}
	s.events.publish(Event{Kind: EventCallLogsChanged, Network: net.Name})
	return nil
}

// collection is a map of records keyed by monotonic string ids, with its own
// id counter and an optional active pointer.
type collection[T any] struct {
	state       *State
	key         string
	event       EventKind
	activeEvent EventKind
}

func (c collection[T]) store(net ledger.Network) *HierarchicalStore {
	return c.state.network(net)
}

func (c collection[T]) get(
	ctx context.Context, net ledger.Network,
) (map[string]T, error) {
	records := make(map[string]T)
	if _, err := getJSON(ctx, c.store(net), c.key, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c collection[T]) add(
	ctx context.Context, net ledger.Network, v T,
) (string, error) {
	c.state.lock.Lock()
	defer c.state.lock.Unlock()

	store := c.store(net).WithPrefix(c.key)
	var nextID uint64
	if _, err := getJSON(ctx, store, keyNextID, &nextID); err != nil {
		return "", err
	}
	records, err := c.get(ctx, net)
	if err != nil {
		return "", err
	}

	id := strconv.FormatUint(nextID, 10)
	records[id] = v
	if err := setJSON(ctx, c.store(net), c.key, records); err != nil {
		return "", err
	}
	if err := setJSON(ctx, store, keyNextID, nextID+1); err != nil {
		return "", err
	}
	c.state.events.publish(Event{Kind: c.event, Network: net.Name, ID: id})
	return id, nil
}

func (c collection[T]) update(
	ctx context.Context, net ledger.Network, id string, v T, errNotFound error,
) error {
	c.state.lock.Lock()
	defer c.state.lock.Unlock()

	records, err := c.get(ctx, net)
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return fmt.Errorf("%w: %s", errNotFound, id)
	}
	records[id] = v
	if err := setJSON(ctx, c.store(net), c.key, records); err != nil {
		return err
	}
	c.state.events.publish(Event{Kind: c.event, Network: net.Name, ID: id})
	return nil
}

func (c collection[T]) delete(
	ctx context.Context, net ledger.Network, id string,
) error {
	c.state.lock.Lock()
	defer c.state.lock.Unlock()

	records, err := c.get(ctx, net)
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return nil
	}
	delete(records, id)
	if err := setJSON(ctx, c.store(net), c.key, records); err != nil {
		return err
	}
	c.state.events.publish(Event{Kind: c.event, Network: net.Name, ID: id})
	return nil
}

func (c collection[T]) getActive(
	ctx context.Context, net ledger.Network,
) (string, error) {
	var id *string
	store := c.store(net).WithPrefix(c.key)
	if _, err := getJSON(ctx, store, keyActiveID, &id); err != nil {
		return "", err
	}
	if id == nil {
		return "", nil
	}
	return *id, nil
}

func (c collection[T]) setActive(
	ctx context.Context, net ledger.Network, id string,
) error {
	var value *string
	if id != "" {
		value = &id
	}
	store := c.store(net).WithPrefix(c.key)
	if err := setJSON(ctx, store, keyActiveID, value); err != nil {
		return err
	}
	c.state.events.publish(Event{Kind: c.activeEvent, Network: net.Name, ID: id})
	return nil
}

func getJSON(
	ctx context.Context, store *HierarchicalStore, key string, v interface{},
) (bool, error) {
	buf, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", store.Key(key), err)
	}
	if buf == nil {
		return false, nil
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", store.Key(key), err)
	}
	return true, nil
}

func setJSON(
	ctx context.Context, store *HierarchicalStore, key string, v interface{},
) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, key, buf); err != nil {
		return fmt.Errorf("set %s: %w", store.Key(key), err)
	}
	return nil
}
