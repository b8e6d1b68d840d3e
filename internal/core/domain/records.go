package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RootKey is a user-named root private key, bech32 encoded.
type RootKey struct {
	Name      string `json:"name"`
	KeyBech32 string `json:"keyBech32"`
}

// Account is a named account index under a RootKey. RootKeyID may dangle
// after the root key is deleted.
type Account struct {
	Name         string `json:"name"`
	RootKeyID    string `json:"keyId"`
	AccountIndex uint32 `json:"accountIdx"`
}

// BackendKind tags the variants of Backend.
type BackendKind string

const (
	// BackendKindIndexer is a Blockfrost project.
	BackendKindIndexer BackendKind = "indexer"
	// BackendKindNode is a pair of Ogmios and Kupo endpoints.
	BackendKindNode BackendKind = "node"
)

// Backend is a tagged union: ProjectID is set for indexer backends while
// OgmiosURL and KupoURL are set for node backends.
type Backend struct {
	Kind      BackendKind `json:"type"`
	Name      string      `json:"name"`
	ProjectID string      `json:"projectId,omitempty"`
	OgmiosURL string      `json:"ogmiosUrl,omitempty"`
	KupoURL   string      `json:"kupoUrl,omitempty"`
}

// NewIndexerBackend ...
func NewIndexerBackend(name, projectID string) Backend {
	return Backend{Kind: BackendKindIndexer, Name: name, ProjectID: projectID}
}

// NewNodeBackend ...
func NewNodeBackend(name, ogmiosURL, kupoURL string) Backend {
	return Backend{
		Kind: BackendKindNode, Name: name, OgmiosURL: ogmiosURL, KupoURL: kupoURL,
	}
}

// Validate checks the fields required by the backend's variant.
func (b Backend) Validate() error {
	if len(strings.TrimSpace(b.Name)) <= 0 {
		return ErrNullName
	}
	switch b.Kind {
	case BackendKindIndexer:
		if len(b.ProjectID) <= 0 {
			return ErrMissingProjectID
		}
	case BackendKindNode:
		if len(b.OgmiosURL) <= 0 || len(b.KupoURL) <= 0 {
			return ErrMissingNodeEndpoints
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackendKind, b.Kind)
	}
	return nil
}

// UtxoRef identifies a utxo. Two refs are equal if both fields are.
type UtxoRef struct {
	TxHashHex string `json:"txHashHex"`
	Index     uint32 `json:"idx"`
}

// Key returns the canonical string form hash#index.
func (r UtxoRef) Key() string {
	return fmt.Sprintf("%s#%d", strings.ToLower(r.TxHashHex), r.Index)
}

// Overrides alter what the wallet API reports, for testing dApps. They never
// affect signing or submission.
type Overrides struct {
	Balance          *string   `json:"balance"`
	HiddenUtxos      []UtxoRef `json:"hiddenUtxos"`
	HiddenCollateral []UtxoRef `json:"hiddenCollateral"`
}

// DefaultOverrides returns overrides that alter nothing.
func DefaultOverrides() Overrides {
	return Overrides{
		HiddenUtxos:      make([]UtxoRef, 0),
		HiddenCollateral: make([]UtxoRef, 0),
	}
}

// BalanceCoin returns the overridden balance, if any.
func (o Overrides) BalanceCoin() (*uint64, error) {
	if o.Balance == nil {
		return nil, nil
	}
	coin, err := strconv.ParseUint(strings.TrimSpace(*o.Balance), 10, 64)
	if err != nil {
		return nil, ErrInvalidBalanceOverride
	}
	return &coin, nil
}

// HidesUtxo returns whether the utxo with the given key is hidden.
func (o Overrides) HidesUtxo(key string) bool {
	return containsRef(o.HiddenUtxos, key)
}

// HidesCollateral returns whether the utxo with the given key is hidden from
// collateral selection.
func (o Overrides) HidesCollateral(key string) bool {
	return containsRef(o.HiddenCollateral, key)
}

func containsRef(refs []UtxoRef, key string) bool {
	for _, r := range refs {
		if r.Key() == key {
			return true
		}
	}
	return false
}
