package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"math/bits"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

// LovelaceUnit is the unit name of the base coin.
const LovelaceUnit = "lovelace"

// PolicyIDLength is the length in hex chars of a minting policy id.
const PolicyIDLength = 56

// MultiAsset maps a hex policy id to the quantities of its hex asset names.
type MultiAsset map[string]map[string]uint64

// Value is an amount of lovelace optionally carrying native assets.
type Value struct {
	Coin   uint64     `json:"coin"`
	Assets MultiAsset `json:"assets,omitempty"`
}

// NewValue returns a pure-ADA value.
func NewValue(coin uint64) Value {
	return Value{Coin: coin}
}

// HasAssets returns whether any native asset has a non-zero quantity.
func (v Value) HasAssets() bool {
	for _, assets := range v.Assets {
		for _, qty := range assets {
			if qty > 0 {
				return true
			}
		}
	}
	return false
}

// Quantity returns the amount of the given asset held by the value.
func (v Value) Quantity(policyID, assetName string) uint64 {
	assets, ok := v.Assets[policyID]
	if !ok {
		return 0
	}
	return assets[assetName]
}

// Add returns the sum of v and other. Neither operand is modified.
func (v Value) Add(other Value) (Value, error) {
	coin, err := addQuantity(v.Coin, other.Coin)
	if err != nil {
		return Value{}, fmt.Errorf("coin: %w", err)
	}
	sum := Value{Coin: coin}
	for _, val := range []Value{v, other} {
		for policyID, assets := range val.Assets {
			for name, qty := range assets {
				if err := sum.AddAsset(policyID, name, qty); err != nil {
					return Value{}, err
				}
			}
		}
	}
	return sum, nil
}

// AddAsset increments the quantity of the given asset in place. The value is
// left untouched on overflow.
func (v *Value) AddAsset(policyID, assetName string, qty uint64) error {
	total, err := addQuantity(v.Quantity(policyID, assetName), qty)
	if err != nil {
		return fmt.Errorf("asset %s%s: %w", policyID, assetName, err)
	}
	if v.Assets == nil {
		v.Assets = make(MultiAsset)
	}
	if _, ok := v.Assets[policyID]; !ok {
		v.Assets[policyID] = make(map[string]uint64)
	}
	v.Assets[policyID][assetName] = total
	return nil
}

func addQuantity(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrValueOverflow
	}
	return sum, nil
}

// Covers returns whether v holds at least the coin of target and, for every
// asset of target, at least the same quantity.
func (v Value) Covers(target Value) bool {
	if v.Coin < target.Coin {
		return false
	}
	for policyID, assets := range target.Assets {
		for name, qty := range assets {
			if v.Quantity(policyID, name) < qty {
				return false
			}
		}
	}
	return true
}

// AddUnit adds qty of the given blockfrost-style unit, either "lovelace" or
// the concatenation of policy id and asset name in hex.
func (v *Value) AddUnit(unit string, qty uint64) error {
	if strings.EqualFold(unit, LovelaceUnit) {
		coin, err := addQuantity(v.Coin, qty)
		if err != nil {
			return fmt.Errorf("coin: %w", err)
		}
		v.Coin = coin
		return nil
	}
	if len(unit) < PolicyIDLength {
		return fmt.Errorf("%w: unit %s too short", ErrInvalidValue, unit)
	}
	policyID, assetName := unit[:PolicyIDLength], unit[PolicyIDLength:]
	if _, err := hex.DecodeString(policyID); err != nil {
		return fmt.Errorf("%w: policy id %s", ErrInvalidValue, policyID)
	}
	return v.AddAsset(strings.ToLower(policyID), strings.ToLower(assetName), qty)
}

// Units returns the list of asset units held by the value, sorted.
func (v Value) Units() []string {
	units := make([]string, 0)
	for policyID, assets := range v.Assets {
		for name, qty := range assets {
			if qty > 0 {
				units = append(units, policyID+name)
			}
		}
	}
	sort.Strings(units)
	return units
}

// FormatADA renders an amount of lovelace as ADA.
func FormatADA(lovelace uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lovelace), -6).StringFixed(6)
}

// SumUtxos returns the total value of the given list of utxos.
func SumUtxos(utxos []Utxo) (Value, error) {
	total := Value{}
	for _, u := range utxos {
		var err error
		if total, err = total.Add(u.Output.Amount); err != nil {
			return Value{}, err
		}
	}
	return total, nil
}

type multiAssetCBOR map[cbor.ByteString]map[cbor.ByteString]uint64

type valueCBOR struct {
	_      struct{} `cbor:",toarray"`
	Coin   uint64
	Assets multiAssetCBOR
}

// MarshalCBOR encodes a pure-ADA value as a plain uint and any other value as
// [coin, multiasset].
func (v Value) MarshalCBOR() ([]byte, error) {
	if !v.HasAssets() {
		return encMode.Marshal(v.Coin)
	}
	assets := make(multiAssetCBOR)
	for policyID, names := range v.Assets {
		policy, err := hex.DecodeString(policyID)
		if err != nil {
			return nil, fmt.Errorf("%w: policy id %s", ErrInvalidValue, policyID)
		}
		m := make(map[cbor.ByteString]uint64)
		for name, qty := range names {
			if qty == 0 {
				continue
			}
			assetName, err := hex.DecodeString(name)
			if err != nil {
				return nil, fmt.Errorf("%w: asset name %s", ErrInvalidValue, name)
			}
			m[cbor.ByteString(assetName)] = qty
		}
		if len(m) > 0 {
			assets[cbor.ByteString(policy)] = m
		}
	}
	return encMode.Marshal(valueCBOR{Coin: v.Coin, Assets: assets})
}

// UnmarshalCBOR ...
func (v *Value) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return ErrInvalidValue
	}
	if data[0]>>5 == 0 {
		var coin uint64
		if err := cbor.Unmarshal(data, &coin); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidValue, err)
		}
		*v = Value{Coin: coin}
		return nil
	}

	var raw valueCBOR
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidValue, err)
	}
	val := Value{Coin: raw.Coin}
	for policy, names := range raw.Assets {
		for name, qty := range names {
			if err := val.AddAsset(
				hex.EncodeToString([]byte(policy)),
				hex.EncodeToString([]byte(name)),
				qty,
			); err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidValue, err)
			}
		}
	}
	*v = val
	return nil
}
