package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// COSE labels and values used by message signing.
const (
	coseHeaderAlg     = 1
	coseAlgEdDSA      = -8
	coseKeyType       = 1
	coseKeyTypeOKP    = 1
	coseKeyAlg        = 3
	coseKeyCurve      = -1
	coseKeyCurveEd    = 6
	coseKeyX          = -2
	coseSigContext    = "Signature1"
	coseHeaderAddress = "address"
	coseHeaderHashed  = "hashed"
)

// DataSignature is a detached COSE_Sign1 signature with its COSE_Key, both
// hex encoded.
type DataSignature struct {
	Signature string `json:"signature"`
	Key       string `json:"key"`
}

// SignTxHash returns a vkey witness for the given transaction hash.
func SignTxHash(key *PrivateKey, txHash []byte) ledger.VKeyWitness {
	return ledger.VKeyWitness{
		VKey:      key.PublicKey(),
		Signature: key.Sign(txHash),
	}
}

type coseSign1 struct {
	_           struct{} `cbor:",toarray"`
	Protected   []byte
	Unprotected map[string]bool
	Payload     []byte
	Signature   []byte
}

func sigStructure(protected, payload []byte) ([]byte, error) {
	return ledger.Marshal([]interface{}{
		coseSigContext, protected, []byte{}, payload,
	})
}

// SignData signs payload for the given address, without hashing it and
// without external aad.
func SignData(
	key *PrivateKey, address ledger.Address, payload []byte,
) (*DataSignature, error) {
	protected, err := ledger.Marshal(map[interface{}]interface{}{
		coseHeaderAlg:     coseAlgEdDSA,
		coseHeaderAddress: []byte(address),
	})
	if err != nil {
		return nil, err
	}
	toSign, err := sigStructure(protected, payload)
	if err != nil {
		return nil, err
	}

	sign1, err := ledger.Marshal(coseSign1{
		Protected:   protected,
		Unprotected: map[string]bool{coseHeaderHashed: false},
		Payload:     payload,
		Signature:   key.Sign(toSign),
	})
	if err != nil {
		return nil, err
	}
	coseKey, err := ledger.Marshal(map[int]interface{}{
		coseKeyType:  coseKeyTypeOKP,
		coseKeyAlg:   coseAlgEdDSA,
		coseKeyCurve: coseKeyCurveEd,
		coseKeyX:     []byte(key.PublicKey()),
	})
	if err != nil {
		return nil, err
	}

	return &DataSignature{
		Signature: hex.EncodeToString(sign1),
		Key:       hex.EncodeToString(coseKey),
	}, nil
}

// VerifyDataSignature checks a DataSignature and returns the signed payload
// and the signing address.
func VerifyDataSignature(sig DataSignature) ([]byte, ledger.Address, error) {
	sign1Bytes, err := hex.DecodeString(sig.Signature)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDataSignature, err)
	}
	keyBytes, err := hex.DecodeString(sig.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDataSignature, err)
	}

	var sign1 coseSign1
	if err := cbor.Unmarshal(sign1Bytes, &sign1); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDataSignature, err)
	}
	var coseKey map[int]cbor.RawMessage
	if err := cbor.Unmarshal(keyBytes, &coseKey); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDataSignature, err)
	}
	var pubkey []byte
	if err := cbor.Unmarshal(coseKey[coseKeyX], &pubkey); err != nil {
		return nil, nil, fmt.Errorf("%w: public key: %s", ErrInvalidDataSignature, err)
	}
	var protected map[interface{}]cbor.RawMessage
	if err := cbor.Unmarshal(sign1.Protected, &protected); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDataSignature, err)
	}
	var address []byte
	if err := cbor.Unmarshal(protected[coseHeaderAddress], &address); err != nil {
		return nil, nil, fmt.Errorf("%w: address: %s", ErrInvalidDataSignature, err)
	}

	toVerify, err := sigStructure(sign1.Protected, sign1.Payload)
	if err != nil {
		return nil, nil, err
	}
	if !PublicKey(pubkey).Verify(toVerify, sign1.Signature) {
		return nil, nil, ErrInvalidDataSignature
	}
	return sign1.Payload, ledger.Address(address), nil
}
