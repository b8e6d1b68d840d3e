package wallet

import (
	"fmt"

	"github.com/mlabs-haskell/cardano-dev-wallet/internal/core/domain"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer/blockfrost"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer/kupo"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/httputil"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// BackendFactory builds the chain backend described by a backend record for
// the given network.
type BackendFactory func(
	backend domain.Backend, network ledger.Network,
) (explorer.Service, error)

// BackendFactoryOpts ...
type BackendFactoryOpts struct {
	Client *httputil.Client
	// BlockfrostURLs overrides the public blockfrost endpoint per network name.
	BlockfrostURLs map[string]string
}

// NewBackendFactory returns a BackendFactory dispatching on the backend kind.
// Unknown kinds and misconfigurations are reported as internal errors.
func NewBackendFactory(opts BackendFactoryOpts) BackendFactory {
	return func(
		backend domain.Backend, network ledger.Network,
	) (explorer.Service, error) {
		svc, err := newBackend(opts, backend, network)
		if err != nil {
			return nil, domain.NewAPIError(
				domain.ErrorKindInternalError,
				"failed to connect to backend %q: %s", backend.Name, err,
			)
		}
		return svc, nil
	}
}

func newBackend(
	opts BackendFactoryOpts, backend domain.Backend, network ledger.Network,
) (explorer.Service, error) {
	if err := backend.Validate(); err != nil {
		return nil, err
	}

	switch backend.Kind {
	case domain.BackendKindIndexer:
		return blockfrost.NewService(blockfrost.ServiceOpts{
			ProjectID: backend.ProjectID,
			Network:   network,
			BaseURL:   opts.BlockfrostURLs[network.Name],
			Client:    opts.Client,
		})
	case domain.BackendKindNode:
		return kupo.NewService(kupo.ServiceOpts{
			KupoURL:   backend.KupoURL,
			OgmiosURL: backend.OgmiosURL,
			Network:   network,
			Client:    opts.Client,
		})
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackendKind, backend.Kind)
	}
}
