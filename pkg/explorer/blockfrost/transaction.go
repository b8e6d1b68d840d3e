package blockfrost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
)

func (b *blockfrost) SubmitTx(ctx context.Context, txHex string) (string, error) {
	tx, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("invalid tx hex: %w", err)
	}

	url := fmt.Sprintf("%s/tx/submit", b.baseURL)
	header := b.header()
	header["Content-Type"] = "application/cbor"

	status, resp, err := b.client.NewHTTPRequest(
		ctx, http.MethodPost, url, string(tx), header,
	)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", parseError(status, resp)
	}

	var txid string
	if err := json.Unmarshal([]byte(resp), &txid); err != nil {
		return "", err
	}
	return txid, nil
}
