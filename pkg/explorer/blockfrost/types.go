package blockfrost

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

// Amount is a quantity of a given unit.
type Amount struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

type addressUtxo struct {
	Address     string   `json:"address"`
	TxHash      string   `json:"tx_hash"`
	OutputIndex uint32   `json:"output_index"`
	Amount      []Amount `json:"amount"`
	DataHash    *string  `json:"data_hash"`
}

type apiError struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// AmountToValue converts a list of blockfrost amounts to a value.
func AmountToValue(amounts []Amount) (ledger.Value, error) {
	value := ledger.Value{}
	for _, a := range amounts {
		qty, err := strconv.ParseUint(a.Quantity, 10, 64)
		if err != nil {
			return ledger.Value{}, fmt.Errorf(
				"%w: quantity %s of %s", ledger.ErrInvalidValue, a.Quantity, a.Unit,
			)
		}
		if err := value.AddUnit(a.Unit, qty); err != nil {
			return ledger.Value{}, err
		}
	}
	return value, nil
}

func (u addressUtxo) toUtxo() (ledger.Utxo, error) {
	addr, err := ledger.ParseAddress(u.Address)
	if err != nil {
		return ledger.Utxo{}, err
	}
	value, err := AmountToValue(u.Amount)
	if err != nil {
		return ledger.Utxo{}, err
	}
	out := ledger.TxOut{Address: addr, Amount: value}
	if u.DataHash != nil {
		if out.DatumHash, err = hex.DecodeString(*u.DataHash); err != nil {
			return ledger.Utxo{}, fmt.Errorf("%w: data hash", ledger.ErrInvalidUtxo)
		}
	}
	return ledger.NewUtxo(
		ledger.TxIn{TxHash: u.TxHash, Index: u.OutputIndex}, out,
	), nil
}
