package operator

import (
	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// RootKeyInfo never carries the key itself.
type RootKeyInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AccountInfo is an account record with the addresses derived from it.
// Dangling accounts have no addresses.
type AccountInfo struct {
	ID string `json:"id"`
	domain.Account
	Active         bool   `json:"active"`
	Dangling       bool   `json:"dangling"`
	DerivationPath string `json:"derivationPath"`
	Address        string `json:"address,omitempty"`
	RewardAddress  string `json:"rewardAddress,omitempty"`
}

// BackendInfo ...
type BackendInfo struct {
	ID string `json:"id"`
	domain.Backend
	Active bool `json:"active"`
}

// AccountBalance is the balance of an account as reported by the active
// backend.
type AccountBalance struct {
	AccountID string       `json:"accountId"`
	Address   string       `json:"address"`
	Balance   ledger.Value `json:"balance"`
}

// SignedData is the content of a verified data signature. AccountID is set
// when the signing address belongs to an account of the network.
type SignedData struct {
	Payload   string `json:"payload"`
	Address   string `json:"address"`
	AccountID string `json:"accountId,omitempty"`
}
