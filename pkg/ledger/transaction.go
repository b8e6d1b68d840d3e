package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// Transaction body and witness set map keys.
const (
	bodyKeyInputs          = 0
	bodyKeyWithdrawals     = 5
	bodyKeyCollateral      = 13
	bodyKeyRequiredSigners = 14

	witnessKeyVKeys = 0
)

// VKeyWitness is a public key with its signature over the tx hash.
type VKeyWitness struct {
	_         struct{} `cbor:",toarray"`
	VKey      []byte
	Signature []byte
}

// Transaction keeps the CBOR encoded parts of a transaction. The body is
// never re-encoded so that its hash stays stable.
type Transaction struct {
	body       cbor.RawMessage
	witnessSet cbor.RawMessage
	isValid    *bool
	auxData    cbor.RawMessage
}

// ParseTransactionHex decodes a hex-encoded CBOR transaction.
func ParseTransactionHex(s string) (*Transaction, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}
	return ParseTransaction(buf)
}

// ParseTransaction decodes a CBOR transaction, accepting both the 3 elements
// (pre-Alonzo) and the 4 elements forms.
func ParseTransaction(buf []byte) (*Transaction, error) {
	var parts []cbor.RawMessage
	if err := cbor.Unmarshal(buf, &parts); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransaction, err)
	}

	tx := &Transaction{}
	switch len(parts) {
	case 3:
		tx.body, tx.witnessSet, tx.auxData = parts[0], parts[1], parts[2]
	case 4:
		var isValid bool
		if err := cbor.Unmarshal(parts[2], &isValid); err != nil {
			return nil, fmt.Errorf("%w: validity flag: %s", ErrInvalidTransaction, err)
		}
		tx.body, tx.witnessSet, tx.isValid, tx.auxData =
			parts[0], parts[1], &isValid, parts[3]
	default:
		return nil, fmt.Errorf(
			"%w: expected 3 or 4 elements, got %d", ErrInvalidTransaction, len(parts),
		)
	}
	if !isCBORMap(tx.body) {
		return nil, fmt.Errorf("%w: body must be a map", ErrInvalidTransaction)
	}
	if !isCBORMap(tx.witnessSet) {
		return nil, fmt.Errorf("%w: witness set must be a map", ErrInvalidTransaction)
	}
	return tx, nil
}

// Bytes returns the CBOR encoding of the transaction.
func (t *Transaction) Bytes() ([]byte, error) {
	parts := []interface{}{t.body, t.witnessSet}
	if t.isValid != nil {
		parts = append(parts, *t.isValid)
	}
	parts = append(parts, t.auxData)
	return encMode.Marshal(parts)
}

// Hex ...
func (t *Transaction) Hex() (string, error) {
	buf, err := t.Bytes()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns the blake2b-256 hash of the body bytes.
func (t *Transaction) Hash() []byte {
	h := blake2b.Sum256(t.body)
	return h[:]
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	clone := &Transaction{
		body:       append(cbor.RawMessage{}, t.body...),
		witnessSet: append(cbor.RawMessage{}, t.witnessSet...),
		auxData:    append(cbor.RawMessage{}, t.auxData...),
	}
	if t.isValid != nil {
		isValid := *t.isValid
		clone.isValid = &isValid
	}
	return clone
}

func (t *Transaction) bodyMap() (map[uint64]cbor.RawMessage, error) {
	var body map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(t.body, &body); err != nil {
		return nil, fmt.Errorf("%w: body: %s", ErrInvalidTransaction, err)
	}
	return body, nil
}

// Inputs returns the spent inputs.
func (t *Transaction) Inputs() ([]TxIn, error) {
	return t.txIns(bodyKeyInputs)
}

// CollateralInputs returns the collateral inputs, if any.
func (t *Transaction) CollateralInputs() ([]TxIn, error) {
	return t.txIns(bodyKeyCollateral)
}

func (t *Transaction) txIns(key uint64) ([]TxIn, error) {
	body, err := t.bodyMap()
	if err != nil {
		return nil, err
	}
	raw, ok := body[key]
	if !ok {
		return nil, nil
	}
	raw, _ = stripSetTag(raw)
	var ins []TxIn
	if err := cbor.Unmarshal(raw, &ins); err != nil {
		return nil, fmt.Errorf("%w: inputs: %s", ErrInvalidTransaction, err)
	}
	return ins, nil
}

// RequiredSigners returns the key hashes declared as required signers.
func (t *Transaction) RequiredSigners() ([][]byte, error) {
	body, err := t.bodyMap()
	if err != nil {
		return nil, err
	}
	raw, ok := body[bodyKeyRequiredSigners]
	if !ok {
		return nil, nil
	}
	raw, _ = stripSetTag(raw)
	var signers [][]byte
	if err := cbor.Unmarshal(raw, &signers); err != nil {
		return nil, fmt.Errorf(
			"%w: required signers: %s", ErrInvalidTransaction, err,
		)
	}
	return signers, nil
}

// Withdrawals returns the reward addresses withdrawn from.
func (t *Transaction) Withdrawals() ([]Address, error) {
	body, err := t.bodyMap()
	if err != nil {
		return nil, err
	}
	raw, ok := body[bodyKeyWithdrawals]
	if !ok {
		return nil, nil
	}
	var withdrawals map[cbor.ByteString]uint64
	if err := cbor.Unmarshal(raw, &withdrawals); err != nil {
		return nil, fmt.Errorf("%w: withdrawals: %s", ErrInvalidTransaction, err)
	}
	addresses := make([]Address, 0, len(withdrawals))
	for addr := range withdrawals {
		addresses = append(addresses, Address(addr))
	}
	return addresses, nil
}

func (t *Transaction) witnessMap() (map[uint64]cbor.RawMessage, error) {
	var ws map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(t.witnessSet, &ws); err != nil {
		return nil, fmt.Errorf("%w: witness set: %s", ErrInvalidTransaction, err)
	}
	if ws == nil {
		ws = make(map[uint64]cbor.RawMessage)
	}
	return ws, nil
}

// VKeyWitnesses returns the vkey witnesses already attached.
func (t *Transaction) VKeyWitnesses() ([]VKeyWitness, error) {
	ws, err := t.witnessMap()
	if err != nil {
		return nil, err
	}
	witnesses, _, err := decodeVKeyWitnesses(ws)
	return witnesses, err
}

func decodeVKeyWitnesses(
	ws map[uint64]cbor.RawMessage,
) ([]VKeyWitness, bool, error) {
	raw, ok := ws[witnessKeyVKeys]
	if !ok {
		return nil, false, nil
	}
	raw, tagged := stripSetTag(raw)
	var witnesses []VKeyWitness
	if err := cbor.Unmarshal(raw, &witnesses); err != nil {
		return nil, false, fmt.Errorf(
			"%w: vkey witnesses: %s", ErrInvalidTransaction, err,
		)
	}
	return witnesses, tagged, nil
}

// AddVKeyWitnesses merges the given witnesses into the witness set, skipping
// those whose public key is already present. The vkey witnesses entry is left
// out when there is nothing to store.
func (t *Transaction) AddVKeyWitnesses(witnesses ...VKeyWitness) error {
	ws, err := t.witnessMap()
	if err != nil {
		return err
	}
	existing, tagged, err := decodeVKeyWitnesses(ws)
	if err != nil {
		return err
	}

	merged := append([]VKeyWitness{}, existing...)
	for _, w := range witnesses {
		found := false
		for _, e := range merged {
			if bytes.Equal(e.VKey, w.VKey) {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, w)
		}
	}

	if len(merged) == 0 {
		delete(ws, witnessKeyVKeys)
	} else {
		raw, err := encMode.Marshal(merged)
		if err != nil {
			return err
		}
		ws[witnessKeyVKeys] = withSetTag(raw, tagged)
	}

	witnessSet, err := encMode.Marshal(ws)
	if err != nil {
		return err
	}
	t.witnessSet = witnessSet
	return nil
}

// HashKey returns the blake2b-224 hash of a public key.
func HashKey(pubkey []byte) []byte {
	h, _ := blake2b.New(KeyHashLength, nil)
	h.Write(pubkey)
	return h.Sum(nil)
}
