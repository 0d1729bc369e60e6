package pricing_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/testutil"
	"github.com/quorumnet/partyd/types"
)

func bitcoinPair(t *testing.T) pricing.CentralPricePair {
	pairs := pricing.CalculateCentralPrices(
		map[types.Currency]float64{types.CurrencyBitcoin: 60_000.0},
		map[types.Currency]types.Amount{
			types.CurrencyNative:  types.MustFromFractional(10.0, types.CurrencyNative),
			types.CurrencyBitcoin: types.MustFromFractional(0.1, types.CurrencyBitcoin),
		},
		1000, 0, 0,
	)
	require.Contains(t, pairs, types.CurrencyBitcoin)
	return pairs[types.CurrencyBitcoin]
}

func TestFulfillTakerOrderBidPartialLevel(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	pair := bitcoinPair(t)
	dest := testutil.GenRandomAddress(r, types.CurrencyBitcoin)
	fee := types.FromBitcoinSats(850)

	bids := pair.Bids()
	require.NotEmpty(t, bids)

	// An order small enough to sit inside the first bid level.
	order := uint64(112_475)
	expected := uint64(float64(order) / bids[0].Price)

	f := pair.FulfillTakerOrder(order, false, 2000, nil, dest, fee)
	require.NotNil(t, f)
	require.Equal(t, order, f.OrderAmount)
	require.Equal(t, expected, f.FulfilledAmount)
	require.False(t, f.IsAskFulfillmentFromExternalDeposit)
	require.Equal(t, int64(2000), f.EventTime)
	require.Equal(t, dest, f.Destination)

	typed := f.FulfilledCurrencyAmount()
	require.Equal(t, types.CurrencyBitcoin, typed.Currency)
	require.Equal(t, int64(expected), typed.Value)
}

func TestFulfillTakerOrderBelowFeeRejected(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	pair := bitcoinPair(t)
	dest := testutil.GenRandomAddress(r, types.CurrencyBitcoin)

	// The same order rejected when the fee floor exceeds the fill.
	f := pair.FulfillTakerOrder(112_475, false, 2000, nil, dest, types.FromBitcoinSats(2_000))
	require.Nil(t, f)

	// A zero order cannot fill anything.
	f = pair.FulfillTakerOrder(0, false, 2000, nil, dest, types.FromBitcoinSats(850))
	require.Nil(t, f)
}

func TestFulfillTakerOrderExhaustsCurve(t *testing.T) {
	r := rand.New(rand.NewSource(12))
	pair := bitcoinPair(t)
	dest := testutil.GenRandomAddress(r, types.CurrencyBitcoin)

	var bidDepth uint64
	for _, pv := range pair.Bids() {
		bidDepth += pv.Volume
	}

	// An order far beyond the curve's depth fulfills exactly the depth.
	f := pair.FulfillTakerOrder(1<<50, false, 2000, nil, dest, types.FromBitcoinSats(850))
	require.NotNil(t, f)
	require.Equal(t, bidDepth, f.FulfilledAmount)
}

func TestFulfillTakerOrderAskSide(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	pair := bitcoinPair(t)
	dest := testutil.GenRandomAddress(r, types.CurrencyNative)
	fee := types.MustFromFractional(0.0001, types.CurrencyNative)

	var askDepth uint64
	for _, pv := range pair.Asks() {
		askDepth += pv.Volume
	}

	ref := &types.ExternalTxRef{Identifier: "ff01", Currency: types.CurrencyBitcoin}
	f := pair.FulfillTakerOrder(50_000, true, 2000, ref, dest, fee)
	require.NotNil(t, f)
	require.True(t, f.IsAskFulfillmentFromExternalDeposit)
	require.Equal(t, ref, f.TxIDRef)
	require.Positive(t, f.FulfilledAmount)
	require.LessOrEqual(t, f.FulfilledAmount, askDepth)
}

func FuzzFulfillTakerOrderBounded(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		pair := bitcoinPair(t)
		dest := testutil.GenRandomAddress(r, types.CurrencyBitcoin)
		fee := types.FromBitcoinSats(850)

		var depth uint64
		for _, pv := range pair.Bids() {
			depth += pv.Volume
		}

		order := uint64(r.Int63n(1 << 40))
		res := pair.FulfillTakerOrder(order, false, 2000, nil, dest, fee)
		if res == nil {
			return
		}
		require.LessOrEqual(t, res.FulfilledAmount, depth)
		require.GreaterOrEqual(t, int64(res.FulfilledAmount), fee.I64())
	})
}
