package explorer

import "github.com/mlabs-haskell/cardano-dev-wallet/pkg/ledger"

// DefaultCollateralAmount is the minimum amount of lovelace selected as
// collateral.
const DefaultCollateralAmount uint64 = 5_000_000

// SelectForTarget scans utxos in order, accumulating them until their sum
// covers the coin and every asset of target. It returns nil if the whole
// list doesn't cover the target. A sum overflowing uint64 covers any target.
func SelectForTarget(utxos []ledger.Utxo, target ledger.Value) []ledger.Utxo {
	selected := make([]ledger.Utxo, 0)
	sum := ledger.Value{}

	for _, u := range utxos {
		selected = append(selected, u)
		next, err := sum.Add(u.Output.Amount)
		if err != nil {
			return selected
		}
		sum = next
		if sum.Covers(target) {
			return selected
		}
	}
	return nil
}

// SelectPureAdaForTarget works like SelectForTarget but only considers utxos
// holding no native assets and accumulates only coins.
func SelectPureAdaForTarget(utxos []ledger.Utxo, target uint64) []ledger.Utxo {
	selected := make([]ledger.Utxo, 0)
	var sum uint64

	for _, u := range utxos {
		if u.Output.Amount.HasAssets() {
			continue
		}
		selected = append(selected, u)
		if sum+u.Output.Amount.Coin < sum {
			return selected
		}
		sum += u.Output.Amount.Coin
		if sum >= target {
			return selected
		}
	}
	return nil
}

// CollateralTarget returns the max between the requested amount and
// DefaultCollateralAmount.
func CollateralTarget(amount *uint64) uint64 {
	if amount == nil || *amount < DefaultCollateralAmount {
		return DefaultCollateralAmount
	}
	return *amount
}
