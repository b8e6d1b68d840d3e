package blockfrost

import (
	"fmt"
	"strings"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/httputil"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

const (
	// PageSize is the max number of items returned by a paginated endpoint.
	PageSize = 100

	projectIDHeader = "project_id"
)

var baseURLs = map[string]string{
	ledger.Mainnet.Name: "https://cardano-mainnet.blockfrost.io/api/v0",
	ledger.Preprod.Name: "https://cardano-preprod.blockfrost.io/api/v0",
	ledger.Preview.Name: "https://cardano-preview.blockfrost.io/api/v0",
}

// ServiceOpts is the struct given to NewService.
type ServiceOpts struct {
	ProjectID string
	// Network is the network the caller expects the project to serve.
	Network ledger.Network
	// BaseURL overrides the public endpoint of the project's network.
	BaseURL string
	Client  *httputil.Client
}

func (o ServiceOpts) validate() error {
	if len(o.ProjectID) <= 0 {
		return fmt.Errorf("missing project id")
	}
	if o.Client == nil {
		return fmt.Errorf("missing http client")
	}
	return nil
}

type blockfrost struct {
	projectID string
	network   ledger.Network
	baseURL   string
	client    *httputil.Client
}

// NewService returns a new blockfrost service as an explorer.Service
// interface. The network is inferred from the project id and must match the
// declared one.
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	network, err := NetworkFromProjectID(opts.ProjectID)
	if err != nil {
		return nil, err
	}
	if network.Name != opts.Network.Name {
		return nil, fmt.Errorf(
			"%w: project id is for %s, expected %s",
			explorer.ErrNetworkMismatch, network, opts.Network,
		)
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = baseURLs[network.Name]
	}
	return &blockfrost{
		projectID: opts.ProjectID,
		network:   network,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    opts.Client,
	}, nil
}

// NetworkFromProjectID infers the network from the conventional prefix of
// blockfrost project ids.
func NetworkFromProjectID(projectID string) (ledger.Network, error) {
	for _, n := range ledger.Networks {
		if strings.HasPrefix(projectID, n.Name) {
			return n, nil
		}
	}
	return ledger.Network{}, explorer.ErrUnknownProjectNetwork
}

func (b *blockfrost) GetNetwork() ledger.Network {
	return b.network
}

func (b *blockfrost) header() map[string]string {
	return map[string]string{projectIDHeader: b.projectID}
}
