package blockfrost

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

func (b *blockfrost) GetUtxos(
	ctx context.Context, addr ledger.Address,
) ([]ledger.Utxo, error) {
	utxos := make([]ledger.Utxo, 0)
	for page := 1; ; page++ {
		items, err := b.getUtxosPage(ctx, addr, page)
		if err != nil {
			return nil, fmt.Errorf("error on retrieving utxos: %w", err)
		}
		for _, item := range items {
			utxo, err := item.toUtxo()
			if err != nil {
				return nil, fmt.Errorf("error on parsing utxo: %w", err)
			}
			utxos = append(utxos, utxo)
		}
		if len(items) < PageSize {
			return utxos, nil
		}
	}
}

func (b *blockfrost) getUtxosPage(
	ctx context.Context, addr ledger.Address, page int,
) ([]addressUtxo, error) {
	url := fmt.Sprintf(
		"%s/addresses/%s/utxos?page=%d&count=%d",
		b.baseURL, addr.String(), page, PageSize,
	)
	status, resp, err := b.client.NewHTTPRequest(
		ctx, http.MethodGet, url, "", b.header(),
	)
	if err != nil {
		return nil, err
	}
	// Addresses never seen on chain are reported as not found.
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, parseError(status, resp)
	}

	var items []addressUtxo
	if err := json.Unmarshal([]byte(resp), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func parseError(status int, resp string) error {
	var apiErr apiError
	if err := json.Unmarshal([]byte(resp), &apiErr); err != nil || apiErr.Message == "" {
		return fmt.Errorf("blockfrost: status %d: %s", status, resp)
	}
	return fmt.Errorf("blockfrost: %s: %s", apiErr.Error, apiErr.Message)
}
