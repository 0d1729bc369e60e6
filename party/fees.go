package party

import (
	"github.com/quorumnet/partyd/types"
)

// MinimumStakeAmount is the smallest stake accepted per currency. Currencies
// absent from the table cannot be staked.
func MinimumStakeAmount(c types.Currency) (types.Amount, bool) {
	switch c {
	case types.CurrencyNative:
		return types.MustFromFractional(1.0, types.CurrencyNative), true
	case types.CurrencyBitcoin:
		return types.FromBitcoinSats(10_000), true
	case types.CurrencyEthereum:
		return types.MustFromFractional(0.005, types.CurrencyEthereum), true
	default:
		return types.Amount{}, false
	}
}

// MeetsMinimumStake reports whether amt clears the stake table.
func MeetsMinimumStake(amt types.Amount) bool {
	min, ok := MinimumStakeAmount(amt.Currency)
	if !ok {
		return false
	}
	return amt.GTE(min)
}

// ExpectedFeeAmount is the fixed outgoing transaction fee assumed per
// currency. Bitcoin and Ethereum fees differ between mainnet and the test
// environments; the Ethereum figure is a 21k-gas transfer at a pinned gas
// price.
func ExpectedFeeAmount(c types.Currency, network types.Network) (types.Amount, bool) {
	switch c {
	case types.CurrencyNative:
		return types.MustFromFractional(0.0001, types.CurrencyNative), true
	case types.CurrencyBitcoin:
		sats := int64(2_000)
		if network.IsMain() {
			sats = 850
		}
		return types.FromBitcoinSats(sats), true
	case types.CurrencyEthereum:
		gasPriceWei := "12793670539"
		if network.IsMain() {
			gasPriceWei = "16511746820"
		}
		gasPrice, err := types.FromEthString(gasPriceWei)
		if err != nil {
			return types.Amount{}, false
		}
		return gasPrice.MulInt(21_000), true
	default:
		return types.Amount{}, false
	}
}

// MinimumSwapAmount is the floor below which an incoming amount is not
// treated as a swap request at all.
func MinimumSwapAmount(amt types.Amount) bool {
	switch amt.Currency {
	case types.CurrencyNative:
		return amt.Value >= 10_000
	case types.CurrencyBitcoin:
		return amt.Value >= 2_000
	case types.CurrencyEthereum:
		wei, err := types.FromEthString("1000000000000")
		if err != nil {
			return false
		}
		return amt.GTE(wei)
	default:
		return false
	}
}
