package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// TxIn references a transaction output by hash and index. Two TxIn are equal
// when both fields are.
type TxIn struct {
	TxHash string `json:"txHash"`
	Index  uint32 `json:"outputIndex"`
}

// Key returns the canonical string form hash#index.
func (i TxIn) Key() string {
	return fmt.Sprintf("%s#%d", strings.ToLower(i.TxHash), i.Index)
}

type txInCBOR struct {
	_      struct{} `cbor:",toarray"`
	TxHash []byte
	Index  uint32
}

// MarshalCBOR ...
func (i TxIn) MarshalCBOR() ([]byte, error) {
	hash, err := hex.DecodeString(i.TxHash)
	if err != nil {
		return nil, fmt.Errorf("%w: tx hash %s", ErrInvalidUtxo, i.TxHash)
	}
	return encMode.Marshal(txInCBOR{TxHash: hash, Index: i.Index})
}

// UnmarshalCBOR ...
func (i *TxIn) UnmarshalCBOR(data []byte) error {
	var raw txInCBOR
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUtxo, err)
	}
	*i = TxIn{TxHash: hex.EncodeToString(raw.TxHash), Index: raw.Index}
	return nil
}

// TxOut is a transaction output. Only the legacy array form is produced when
// encoding, while both array and map forms are accepted when decoding.
type TxOut struct {
	Address   Address
	Amount    Value
	DatumHash []byte
}

type txOutCBOR struct {
	_         struct{} `cbor:",toarray"`
	Address   []byte
	Amount    Value
	DatumHash []byte `cbor:",omitempty"`
}

type txOutMapCBOR struct {
	Address   []byte          `cbor:"0,keyasint"`
	Amount    Value           `cbor:"1,keyasint"`
	Datum     cbor.RawMessage `cbor:"2,keyasint,omitempty"`
	ScriptRef cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// MarshalCBOR ...
func (o TxOut) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(txOutCBOR{
		Address:   o.Address,
		Amount:    o.Amount,
		DatumHash: o.DatumHash,
	})
}

// UnmarshalCBOR ...
func (o *TxOut) UnmarshalCBOR(data []byte) error {
	if isCBORMap(data) {
		var raw txOutMapCBOR
		if err := cbor.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidUtxo, err)
		}
		*o = TxOut{Address: raw.Address, Amount: raw.Amount}
		return nil
	}

	var raw txOutCBOR
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUtxo, err)
	}
	*o = TxOut{Address: raw.Address, Amount: raw.Amount, DatumHash: raw.DatumHash}
	return nil
}

// Utxo couples an output with the input that references it.
type Utxo struct {
	_      struct{} `cbor:",toarray"`
	Input  TxIn
	Output TxOut
}

// NewUtxo ...
func NewUtxo(in TxIn, out TxOut) Utxo {
	return Utxo{Input: in, Output: out}
}

// ParseUtxoHex decodes a hex-encoded CBOR utxo.
func ParseUtxoHex(s string) (Utxo, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return Utxo{}, fmt.Errorf("%w: %s", ErrInvalidUtxo, err)
	}
	var u Utxo
	if err := cbor.Unmarshal(buf, &u); err != nil {
		return Utxo{}, err
	}
	return u, nil
}

// Hex returns the CBOR encoding of the utxo in hex.
func (u Utxo) Hex() (string, error) {
	buf, err := encMode.Marshal(u)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
