package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

const (
	// HardenedKeyStart is the index of the first hardened child key.
	HardenedKeyStart uint32 = 0x80000000
	// MaxHardenedValue is the max value for hardened indexes of derivation
	// paths.
	MaxHardenedValue = math.MaxUint32 - HardenedKeyStart

	// Purpose is the CIP-1852 purpose.
	Purpose = 1852
	// CoinType is the registered coin type of ada.
	CoinType = 1815

	// ExternalChain is the role of payment keys.
	ExternalChain uint32 = 0
	// StakingChain is the role of staking keys.
	StakingChain uint32 = 2
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet path
type DerivationPath []uint32

var (
	// DefaultBaseDerivationPath m/1852'/1815'
	DefaultBaseDerivationPath = DerivationPath{
		HardenedKeyStart + Purpose,
		HardenedKeyStart + CoinType,
	}
)

// AccountDerivationPath returns m/1852'/1815'/account'.
func AccountDerivationPath(account uint32) DerivationPath {
	return append(
		append(DerivationPath{}, DefaultBaseDerivationPath...),
		HardenedKeyStart+account,
	)
}

// AccountIndex returns the account index of a m/1852'/1815'/account' path.
func (path DerivationPath) AccountIndex() (uint32, error) {
	if len(path) != len(DefaultBaseDerivationPath)+1 {
		return 0, ErrNotAccountDerivationPath
	}
	for i, elem := range DefaultBaseDerivationPath {
		if path[i] != elem {
			return 0, ErrNotAccountDerivationPath
		}
	}
	account := path[len(path)-1]
	if account < HardenedKeyStart {
		return 0, ErrOutOfRangeDerivationPathAccount
	}
	return account - HardenedKeyStart, nil
}

// ParseDerivationPath converts a derivation path string to the
// internal binary representation
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	var path DerivationPath

	elems := strings.Split(strPath, "/")
	switch {
	case strPath == "":
		return nil, ErrNullDerivationPath
	case containsEmptyString(elems):
		return nil, ErrMalformedDerivationPath
	case len(elems) < 2:
		return nil, ErrMalformedDerivationPath
	default:
		if strings.TrimSpace(elems[0]) == "m" {
			elems = elems[1:]
		}
	}

	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= HardenedKeyStart {
			component -= HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if s == "" {
			return true
		}
	}
	return false
}
