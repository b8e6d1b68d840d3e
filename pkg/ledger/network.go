package ledger

import (
	"fmt"
	"strings"
)

// Network identifies one of the supported Cardano networks.
type Network struct {
	Name string `json:"name"`
	ID   uint8  `json:"id"`
}

var (
	// Mainnet ...
	Mainnet = Network{Name: "mainnet", ID: 1}
	// Preprod ...
	Preprod = Network{Name: "preprod", ID: 0}
	// Preview ...
	Preview = Network{Name: "preview", ID: 0}

	// Networks lists the supported networks in display order.
	Networks = []Network{Mainnet, Preprod, Preview}
)

// ParseNetworkName returns the network matching the given case-insensitive
// name.
func ParseNetworkName(name string) (Network, error) {
	for _, n := range Networks {
		if strings.EqualFold(n.Name, name) {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
}

// IsMainnet returns whether the network uses mainnet addresses.
func (n Network) IsMainnet() bool {
	return n.ID == Mainnet.ID
}

func (n Network) String() string {
	return n.Name
}
