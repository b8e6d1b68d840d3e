package kupo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/explorer/kupo"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/httputil"
	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
	"github.com/stretchr/testify/require"
)

const policyID = "1d7f33bd23d85e1a25d87d86fac4f199c3197a2f7afeb662a0f34e1e"

var testAddress = ledger.NewBaseAddress(
	ledger.Preview.ID,
	bytes.Repeat([]byte{0x01}, ledger.KeyHashLength),
	bytes.Repeat([]byte{0x02}, ledger.KeyHashLength),
)

func newTestService(t *testing.T, kupoHandler, ogmiosHandler http.HandlerFunc) explorer.Service {
	kupoSrv := httptest.NewServer(kupoHandler)
	t.Cleanup(kupoSrv.Close)
	ogmiosSrv := httptest.NewServer(ogmiosHandler)
	t.Cleanup(ogmiosSrv.Close)

	svc, err := kupo.NewService(kupo.ServiceOpts{
		KupoURL:   kupoSrv.URL,
		OgmiosURL: ogmiosSrv.URL,
		Network:   ledger.Preview,
		Client:    httputil.NewClient(httputil.ClientOpts{Name: "node"}),
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceValidation(t *testing.T) {
	client := httputil.NewClient(httputil.ClientOpts{})
	_, err := kupo.NewService(kupo.ServiceOpts{
		KupoURL: "localhost:1442", OgmiosURL: "http://localhost:1337",
		Network: ledger.Preview, Client: client,
	})
	require.Error(t, err)
	_, err = kupo.NewService(kupo.ServiceOpts{
		KupoURL: "http://localhost:1442", Network: ledger.Preview, Client: client,
	})
	require.Error(t, err)
}

func TestGetUtxos(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != fmt.Sprintf("/matches/%s", testAddress) || !r.URL.Query().Has("unspent") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"transaction_id": fmt.Sprintf("%064x", 1),
				"output_index":   0,
				"address":        testAddress.String(),
				"value": map[string]interface{}{
					"coins":  3_000_000,
					"assets": map[string]uint64{policyID + ".74657374": 9, policyID: 1},
				},
				"spent_at": nil,
			},
			{
				"transaction_id": fmt.Sprintf("%064x", 2),
				"output_index":   1,
				"address":        testAddress.String(),
				"value":          map[string]interface{}{"coins": 1_000_000},
				"spent_at":       map[string]interface{}{"slot_no": 10},
			},
		})
	}, nil)

	utxos, err := svc.GetUtxos(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	require.Equal(t, uint64(3_000_000), utxos[0].Output.Amount.Coin)
	require.Equal(t, uint64(9), utxos[0].Output.Amount.Quantity(policyID, "74657374"))
	require.Equal(t, uint64(1), utxos[0].Output.Amount.Quantity(policyID, ""))
}

func TestSubmitTx(t *testing.T) {
	txid := fmt.Sprintf("%064x", 7)

	svc := newTestService(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params struct {
				Transaction struct {
					CBOR string `json:"cbor"`
				} `json:"transaction"`
			} `json:"params"`
			ID string `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Params.Transaction.CBOR != "84a0" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"error":   map[string]interface{}{"code": 3005, "message": "invalid tx"},
				"id":      req.ID,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  req.Method,
			"result":  map[string]interface{}{"transaction": map[string]string{"id": txid}},
			"id":      req.ID,
		})
	})

	res, err := svc.SubmitTx(context.Background(), "84a0")
	require.NoError(t, err)
	require.Equal(t, txid, res)

	_, err = svc.SubmitTx(context.Background(), "84")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid tx")
}

func TestPing(t *testing.T) {
	healthy := true
	svc := newTestService(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     string `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "queryNetwork/tip" || !healthy {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"error":   map[string]interface{}{"code": -32601, "message": "unavailable"},
				"id":      req.ID,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"result":  map[string]interface{}{"slot": 1234, "id": fmt.Sprintf("%064x", 3)},
			"id":      req.ID,
		})
	})

	pinger, ok := svc.(explorer.Pinger)
	require.True(t, ok)
	require.NoError(t, pinger.Ping(context.Background()))

	healthy = false
	require.Error(t, pinger.Ping(context.Background()))
}
