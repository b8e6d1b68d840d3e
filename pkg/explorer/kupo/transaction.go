package kupo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      string      `json:"id"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("ogmios: %d: %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("ogmios: %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     string          `json:"id"`
}

func (n *node) call(
	ctx context.Context, method string, params interface{}, result interface{},
) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      uuid.New().String(),
	})
	if err != nil {
		return err
	}

	_, resp, err := n.client.NewHTTPRequest(
		ctx, http.MethodPost, n.ogmiosURL, string(body),
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return err
	}

	var res rpcResponse
	if err := json.Unmarshal([]byte(resp), &res); err != nil {
		return fmt.Errorf("ogmios: invalid response: %s", resp)
	}
	if res.Error != nil {
		return res.Error
	}
	return json.Unmarshal(res.Result, result)
}

func (n *node) SubmitTx(ctx context.Context, txHex string) (string, error) {
	params := map[string]interface{}{
		"transaction": map[string]string{"cbor": txHex},
	}
	var result struct {
		Transaction struct {
			ID string `json:"id"`
		} `json:"transaction"`
	}
	if err := n.call(ctx, "submitTransaction", params, &result); err != nil {
		return "", err
	}
	return result.Transaction.ID, nil
}

// Ping queries the tip of the chain known to Ogmios.
func (n *node) Ping(ctx context.Context) error {
	var tip struct {
		Slot uint64 `json:"slot"`
		ID   string `json:"id"`
	}
	if err := n.call(ctx, "queryNetwork/tip", nil, &tip); err != nil {
		return err
	}
	log.Debugf("ogmios tip at slot %d (%s)", tip.Slot, tip.ID)
	return nil
}
