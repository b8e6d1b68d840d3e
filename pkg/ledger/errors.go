package ledger

import "errors"

var (
	// ErrUnknownNetwork ...
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrInvalidAddress is returned when an address can't be parsed either as
	// bech32 or as hex bytes.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidValue ...
	ErrInvalidValue = errors.New("invalid value")
	// ErrValueOverflow is returned when a sum of quantities doesn't fit 64 bits.
	ErrValueOverflow = errors.New("value overflows uint64")
	// ErrInvalidTransaction is returned when a transaction is not a valid CBOR
	// array of body, witness set, validity flag and auxiliary data.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidUtxo ...
	ErrInvalidUtxo = errors.New("invalid utxo")
)
