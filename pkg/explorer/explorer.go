package explorer

import (
	"context"
	"errors"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

var (
	// ErrNetworkMismatch is returned when the network of a backend differs
	// from the one it's meant to serve.
	ErrNetworkMismatch = errors.New("backend network mismatch")
	// ErrUnknownProjectNetwork is returned when the network can't be inferred
	// from a project id.
	ErrUnknownProjectNetwork = errors.New(
		"can't determine network because the project id doesn't start with " +
			"any of the recognized network names: mainnet, preview, preprod",
	)
)

// Service is representation of a chain backend that allows to fetch the
// unspents of an address and to submit transactions for a given network.
type Service interface {
	// GetUtxos fetches all the unspents locked by the given address.
	GetUtxos(ctx context.Context, addr ledger.Address) ([]ledger.Utxo, error)
	// GetNetwork returns the network the backend serves.
	GetNetwork() ledger.Network
	// SubmitTx broadcasts the given CBOR hex-encoded signed transaction and
	// returns its id.
	SubmitTx(ctx context.Context, txHex string) (string, error)
}

// Pinger is implemented by backends that can tell whether their endpoints
// are reachable and healthy.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Paginate is a zero-indexed client-side page selector.
type Paginate struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PaginateItems returns the page of items selected by p, or all items when p
// is nil.
func PaginateItems[T any](items []T, p *Paginate) []T {
	if p == nil {
		return items
	}
	if p.Page < 0 || p.Limit <= 0 {
		return items[:0]
	}
	// Page*Limit can't overflow past this point.
	if p.Page > len(items)/p.Limit {
		return items[:0]
	}
	start := p.Page * p.Limit
	if start >= len(items) {
		return items[:0]
	}
	end := len(items)
	if p.Limit < end-start {
		end = start + p.Limit
	}
	return items[start:end]
}
