package wallet

import (
	"errors"
	"strings"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

var (
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic is null")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidRootKey ...
	ErrInvalidRootKey = errors.New("root key is invalid")
	// ErrNullKeyMaterial ...
	ErrNullKeyMaterial = errors.New("key material must not be null")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrNotAccountDerivationPath ...
	ErrNotAccountDerivationPath = errors.New(
		"path must have the form m/1852'/1815'/account'",
	)
	// ErrOutOfRangeDerivationPathAccount ...
	ErrOutOfRangeDerivationPathAccount = errors.New(
		"account index must be in hardened range",
	)
	// ErrUnknownAddress is returned when asked to sign for an address whose
	// credential doesn't belong to the account.
	ErrUnknownAddress = errors.New("address does not belong to the account")
	// ErrInvalidDataSignature ...
	ErrInvalidDataSignature = errors.New("invalid data signature")
)

// Wallet holds a root key from which accounts are derived.
type Wallet struct {
	rootKey *PrivateKey
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method
type NewWalletFromMnemonicOpts struct {
	Mnemonic   []string
	Passphrase string
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !isMnemonicValid(o.Mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// NewWalletFromMnemonic derives the Icarus root key of the given mnemonic.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	entropy, err := entropyFromMnemonic(opts.Mnemonic)
	if err != nil {
		return nil, err
	}
	return &Wallet{NewRootKeyFromEntropy(entropy, []byte(opts.Passphrase))}, nil
}

// NewWalletFromRootKey parses a bech32 xprv root key.
func NewWalletFromRootKey(rootKey string) (*Wallet, error) {
	key, err := ParseRootKeyBech32(rootKey)
	if err != nil {
		return nil, err
	}
	return &Wallet{key}, nil
}

// NewWalletFromKeyMaterial accepts either a bech32 root key or a space
// separated mnemonic.
func NewWalletFromKeyMaterial(material string) (*Wallet, error) {
	material = strings.TrimSpace(material)
	if len(material) <= 0 {
		return nil, ErrNullKeyMaterial
	}
	if strings.HasPrefix(material, RootKeyHrp+"1") {
		return NewWalletFromRootKey(material)
	}
	return NewWalletFromMnemonic(NewWalletFromMnemonicOpts{
		Mnemonic: strings.Fields(material),
	})
}

// RootKeyBech32 returns the root key encoded as bech32 xprv.
func (w *Wallet) RootKeyBech32() (string, error) {
	return w.rootKey.Bech32()
}

// Account derives the account at m/1852'/1815'/index'.
func (w *Wallet) Account(index uint32) (*Account, error) {
	if index > MaxHardenedValue {
		return nil, ErrOutOfRangeDerivationPathAccount
	}
	accountKey := w.rootKey.DerivePath(AccountDerivationPath(index))
	return &Account{
		Index:      index,
		PaymentKey: accountKey.Derive(ExternalChain).Derive(0),
		StakeKey:   accountKey.Derive(StakingChain).Derive(0),
	}, nil
}

// Account holds the payment and stake keys of a derived account.
type Account struct {
	Index      uint32
	PaymentKey *PrivateKey
	StakeKey   *PrivateKey
}

// PaymentKeyHash ...
func (a *Account) PaymentKeyHash() []byte {
	return a.PaymentKey.PublicKey().Hash()
}

// StakeKeyHash ...
func (a *Account) StakeKeyHash() []byte {
	return a.StakeKey.PublicKey().Hash()
}

// BaseAddress returns the base address built from the account payment and
// stake keys.
func (a *Account) BaseAddress(network ledger.Network) ledger.Address {
	return ledger.NewBaseAddress(
		network.ID, a.PaymentKeyHash(), a.StakeKeyHash(),
	)
}

// RewardAddress ...
func (a *Account) RewardAddress(network ledger.Network) ledger.Address {
	return ledger.NewRewardAddress(network.ID, a.StakeKeyHash())
}
