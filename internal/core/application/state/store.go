package state

import (
	"context"
	"strings"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/ports"
)

// KeySeparator joins the segments of a storage key.
const KeySeparator = "/"

// HierarchicalStore scopes a ports.Store under a key prefix.
type HierarchicalStore struct {
	store  ports.Store
	prefix []string
}

// NewHierarchicalStore returns a store with an empty prefix.
func NewHierarchicalStore(store ports.Store) *HierarchicalStore {
	return &HierarchicalStore{store: store}
}

// WithPrefix returns a store scoped under the given segments, appended to the
// current prefix. No I/O is performed.
func (h *HierarchicalStore) WithPrefix(segments ...string) *HierarchicalStore {
	prefix := make([]string, 0, len(h.prefix)+len(segments))
	prefix = append(prefix, h.prefix...)
	prefix = append(prefix, segments...)
	return &HierarchicalStore{store: h.store, prefix: prefix}
}

// Key returns the full storage key of key.
func (h *HierarchicalStore) Key(key string) string {
	if len(h.prefix) <= 0 {
		return key
	}
	return strings.Join(h.prefix, KeySeparator) + KeySeparator + key
}

// Get ...
func (h *HierarchicalStore) Get(ctx context.Context, key string) ([]byte, error) {
	return h.store.Get(ctx, h.Key(key))
}

// Set ...
func (h *HierarchicalStore) Set(ctx context.Context, key string, value []byte) error {
	return h.store.Set(ctx, h.Key(key), value)
}
