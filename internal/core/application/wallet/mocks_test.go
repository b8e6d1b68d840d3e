package wallet_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"
)

type mockExplorer struct {
	mock.Mock
	network ledger.Network
}

func (m *mockExplorer) GetUtxos(
	ctx context.Context, addr ledger.Address,
) ([]ledger.Utxo, error) {
	args := m.Called(addr.Hex())

	var res []ledger.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]ledger.Utxo)
	}
	return res, args.Error(1)
}

func (m *mockExplorer) GetNetwork() ledger.Network {
	return m.network
}

func (m *mockExplorer) SubmitTx(ctx context.Context, txHex string) (string, error) {
	args := m.Called(txHex)
	return args.String(0), args.Error(1)
}
