package chainclient

import (
	"github.com/quorumnet/partyd/types"
)

// EstimatedSetupFee is the minimum proposer balance required to deploy the
// on-chain side of a multisig party. Currencies whose custody address is pure
// key material need no funding and return false.
func EstimatedSetupFee(c types.Currency) (types.Amount, bool) {
	switch c {
	case types.CurrencySolana:
		return types.MustFromFractional(0.05, types.CurrencySolana), true
	case types.CurrencyEthereum:
		return types.MustFromFractional(0.015, types.CurrencyEthereum), true
	default:
		return types.Amount{}, false
	}
}
