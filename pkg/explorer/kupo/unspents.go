package kupo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

type match struct {
	TransactionID string      `json:"transaction_id"`
	OutputIndex   uint32      `json:"output_index"`
	Address       string      `json:"address"`
	Value         matchValue  `json:"value"`
	DatumHash     *string     `json:"datum_hash"`
	SpentAt       interface{} `json:"spent_at"`
}

type matchValue struct {
	Coins  uint64            `json:"coins"`
	Assets map[string]uint64 `json:"assets"`
}

func (v matchValue) toValue() (ledger.Value, error) {
	value := ledger.NewValue(v.Coins)
	for unit, qty := range v.Assets {
		policyID, assetName, _ := strings.Cut(unit, ".")
		if err := value.AddUnit(policyID+assetName, qty); err != nil {
			return ledger.Value{}, err
		}
	}
	return value, nil
}

func (m match) toUtxo() (ledger.Utxo, error) {
	addr, err := ledger.ParseAddress(m.Address)
	if err != nil {
		return ledger.Utxo{}, err
	}
	value, err := m.Value.toValue()
	if err != nil {
		return ledger.Utxo{}, err
	}
	return ledger.NewUtxo(
		ledger.TxIn{TxHash: m.TransactionID, Index: m.OutputIndex},
		ledger.TxOut{Address: addr, Amount: value},
	), nil
}

func (n *node) GetUtxos(
	ctx context.Context, addr ledger.Address,
) ([]ledger.Utxo, error) {
	url := fmt.Sprintf("%s/matches/%s?unspent", n.kupoURL, addr.String())
	status, resp, err := n.client.NewHTTPRequest(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("error on retrieving utxos: kupo: status %d: %s", status, resp)
	}

	var matches []match
	if err := json.Unmarshal([]byte(resp), &matches); err != nil {
		return nil, fmt.Errorf("error on retrieving utxos: %w", err)
	}

	utxos := make([]ledger.Utxo, 0, len(matches))
	for _, m := range matches {
		if m.SpentAt != nil {
			continue
		}
		utxo, err := m.toUtxo()
		if err != nil {
			return nil, fmt.Errorf("error on parsing utxo: %w", err)
		}
		utxos = append(utxos, utxo)
	}
	return utxos, nil
}
