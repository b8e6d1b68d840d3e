package kupo

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/httputil"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// ServiceOpts is the struct given to NewService.
type ServiceOpts struct {
	// KupoURL is the endpoint used for utxo queries.
	KupoURL string
	// OgmiosURL is the endpoint used for tx submission.
	OgmiosURL string
	Network   ledger.Network
	Client    *httputil.Client
}

func (o ServiceOpts) validate() error {
	if err := validateEndpoint(o.KupoURL); err != nil {
		return fmt.Errorf("kupo url: %w", err)
	}
	if err := validateEndpoint(o.OgmiosURL); err != nil {
		return fmt.Errorf("ogmios url: %w", err)
	}
	if len(o.Network.Name) <= 0 {
		return fmt.Errorf("missing network")
	}
	if o.Client == nil {
		return fmt.Errorf("missing http client")
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	if len(endpoint) <= 0 {
		return fmt.Errorf("missing endpoint")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must be an http(s) url")
	}
	return nil
}

// node queries a Kupo indexer for utxos and submits through Ogmios.
type node struct {
	kupoURL   string
	ogmiosURL string
	network   ledger.Network
	client    *httputil.Client
}

// NewService returns the Kupo/Ogmios implementation of the explorer.Service
// interface.
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &node{
		kupoURL:   strings.TrimSuffix(opts.KupoURL, "/"),
		ogmiosURL: opts.OgmiosURL,
		network:   opts.Network,
		client:    opts.Client,
	}, nil
}

func (n *node) GetNetwork() ledger.Network {
	return n.network
}
