package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// KeyHashLength is the length in bytes of a blake2b-224 key hash.
const KeyHashLength = 28

// Shelley address header types.
const (
	AddressTypeBase       byte = 0x00
	AddressTypeEnterprise byte = 0x06
	AddressTypeReward     byte = 0x0e
	AddressTypeByron      byte = 0x08
)

// Address is the raw binary form of a ledger address.
type Address []byte

// NewBaseAddress returns a base address for the given payment and stake key
// hashes.
func NewBaseAddress(networkID uint8, paymentKeyHash, stakeKeyHash []byte) Address {
	addr := make(Address, 0, 1+2*KeyHashLength)
	addr = append(addr, AddressTypeBase<<4|networkID&0x0f)
	addr = append(addr, paymentKeyHash...)
	return append(addr, stakeKeyHash...)
}

// NewRewardAddress returns a reward (stake) address for the given stake key
// hash.
func NewRewardAddress(networkID uint8, stakeKeyHash []byte) Address {
	addr := make(Address, 0, 1+KeyHashLength)
	addr = append(addr, AddressTypeReward<<4|networkID&0x0f)
	return append(addr, stakeKeyHash...)
}

// ParseAddress accepts either a bech32 or a hex-encoded address.
func ParseAddress(s string) (Address, error) {
	if strings.HasPrefix(s, "addr") || strings.HasPrefix(s, "stake") {
		_, data, err := bech32.DecodeNoLimit(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
		}
		buf, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
		}
		return validateAddress(buf)
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	return validateAddress(buf)
}

func validateAddress(buf []byte) (Address, error) {
	if len(buf) < 1+KeyHashLength {
		return nil, fmt.Errorf("%w: too short", ErrInvalidAddress)
	}
	return Address(buf), nil
}

// Type returns the header type nibble.
func (a Address) Type() byte {
	return a[0] >> 4
}

// NetworkID returns the header network nibble.
func (a Address) NetworkID() uint8 {
	return a[0] & 0x0f
}

// PaymentKeyHash returns the payment credential when it is a key hash.
func (a Address) PaymentKeyHash() ([]byte, bool) {
	if t := a.Type(); t > AddressTypeEnterprise+1 || t%2 != 0 {
		return nil, false
	}
	return a[1 : 1+KeyHashLength], true
}

// StakeKeyHash returns the stake credential when it is a key hash, both for
// base addresses and reward addresses.
func (a Address) StakeKeyHash() ([]byte, bool) {
	switch a.Type() {
	case AddressTypeBase, AddressTypeBase + 1:
		if len(a) < 1+2*KeyHashLength {
			return nil, false
		}
		return a[1+KeyHashLength : 1+2*KeyHashLength], true
	case AddressTypeReward:
		return a[1 : 1+KeyHashLength], true
	}
	return nil, false
}

// IsReward returns whether the address is a reward address.
func (a Address) IsReward() bool {
	t := a.Type()
	return t == AddressTypeReward || t == AddressTypeReward+1
}

// Hex ...
func (a Address) Hex() string {
	return hex.EncodeToString(a)
}

// Bech32 encodes the address with the hrp mandated by its type and network.
func (a Address) Bech32() (string, error) {
	hrp := "addr"
	if a.IsReward() {
		hrp = "stake"
	}
	if a.NetworkID() != Mainnet.ID {
		hrp += "_test"
	}
	conv, err := bech32.ConvertBits(a, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// String returns the bech32 form, or hex for addresses that can't be encoded
// as bech32 (byron).
func (a Address) String() string {
	if a.Type() == AddressTypeByron {
		return a.Hex()
	}
	s, err := a.Bech32()
	if err != nil {
		return a.Hex()
	}
	return s
}

// Equal ...
func (a Address) Equal(other Address) bool {
	return bytes.Equal(a, other)
}
