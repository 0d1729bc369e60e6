package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/types"
)

func samplePairs(t *testing.T) map[types.Currency]pricing.CentralPricePair {
	pairs := pricing.CalculateCentralPrices(
		map[types.Currency]float64{
			types.CurrencyBitcoin:  60_000.0,
			types.CurrencyEthereum: 3_000.0,
		},
		map[types.Currency]types.Amount{
			types.CurrencyNative:   types.MustFromFractional(10.0, types.CurrencyNative),
			types.CurrencyBitcoin:  types.FromBitcoinSats(100_000),
			types.CurrencyEthereum: types.MustFromFractional(0.5, types.CurrencyEthereum),
		},
		1000, 0, 0,
	)
	require.Len(t, pairs, 2)
	return pairs
}

func TestCalculateCentralPrices(t *testing.T) {
	pairs := samplePairs(t)

	btc := pairs[types.CurrencyBitcoin]
	// 10 native against 0.001 BTC implies 10000 native per BTC, so only
	// $6 per native. The $100 floor clamps the valuation and reprices the
	// ask to 600 native per BTC.
	require.InDelta(t, 10_000.0, btc.ReserveRatioPair, 1e-9)
	require.InDelta(t, 100.0, btc.MinAskEstimated, 1e-9)
	require.InDelta(t, 600.0, btc.MinAsk, 1e-9)
	require.InDelta(t, 660.0, btc.MinBid, 1e-9)
	require.Greater(t, btc.MinBid, btc.MinAsk)
	require.InDelta(t, 60_000.0/660.0, btc.MinBidEstimated, 1e-9)

	eth := pairs[types.CurrencyEthereum]
	require.InDelta(t, 20.0, eth.ReserveRatioPair, 1e-9)
	require.InDelta(t, 150.0, eth.MinAskEstimated, 1e-9)
	require.Greater(t, eth.MinBid, eth.MinAsk)
}

func TestCalculateCentralPricesUnclampedRatio(t *testing.T) {
	// Reserve ratio of 100 native per BTC at $60k implies $600 per native,
	// above the floor, so the ask is the raw reserve ratio.
	pairs := pricing.CalculateCentralPrices(
		map[types.Currency]float64{types.CurrencyBitcoin: 60_000.0},
		map[types.Currency]types.Amount{
			types.CurrencyNative:  types.MustFromFractional(10.0, types.CurrencyNative),
			types.CurrencyBitcoin: types.MustFromFractional(0.1, types.CurrencyBitcoin),
		},
		1000, 0, 0,
	)
	btc := pairs[types.CurrencyBitcoin]
	require.InDelta(t, 100.0, btc.ReserveRatioPair, 1e-9)
	require.InDelta(t, 600.0, btc.MinAskEstimated, 1e-9)
	require.InDelta(t, 100.0, btc.MinAsk, 1e-9)
	require.InDelta(t, 110.0, btc.MinBid, 1e-9)
}

func TestCalculateCentralPricesSkipsMissing(t *testing.T) {
	// No native reserve yields nothing.
	empty := pricing.CalculateCentralPrices(
		map[types.Currency]float64{types.CurrencyBitcoin: 60_000.0},
		map[types.Currency]types.Amount{
			types.CurrencyBitcoin: types.FromBitcoinSats(100_000),
		},
		1000, 0, 0,
	)
	require.Empty(t, empty)

	// A currency without a quote is skipped, not errored.
	partial := pricing.CalculateCentralPrices(
		map[types.Currency]float64{types.CurrencyBitcoin: 60_000.0},
		map[types.Currency]types.Amount{
			types.CurrencyNative:  types.MustFromFractional(10.0, types.CurrencyNative),
			types.CurrencyBitcoin: types.FromBitcoinSats(100_000),
			types.CurrencyMonero:  types.FromInt64(5_000_000, types.CurrencyMonero),
		},
		1000, 0, 0,
	)
	require.Len(t, partial, 1)
	require.Contains(t, partial, types.CurrencyBitcoin)
}

func TestSchedulesOrientation(t *testing.T) {
	pairs := samplePairs(t)
	btc := pairs[types.CurrencyBitcoin]

	asks := btc.Asks()
	require.NotEmpty(t, asks)
	for i := 1; i < len(asks); i++ {
		require.Less(t, asks[i].Price, asks[i-1].Price)
	}
	// In USD terms the native asset gets more expensive with ask depth.
	asksUSD := btc.AsksUSD()
	for i := 1; i < len(asksUSD); i++ {
		require.Greater(t, asksUSD[i].Price, asksUSD[i-1].Price)
	}

	bids := btc.Bids()
	require.NotEmpty(t, bids)
	for i := 1; i < len(bids); i++ {
		require.Greater(t, bids[i].Price, bids[i-1].Price)
	}
	bidsUSD := btc.BidsUSD()
	for i := 1; i < len(bidsUSD); i++ {
		require.Less(t, bidsUSD[i].Price, bidsUSD[i-1].Price)
	}
}

func TestRecalculateNoQuoteChange(t *testing.T) {
	pairs := samplePairs(t)
	updated := pricing.RecalculateNoQuoteChange(pairs, map[types.Currency]types.Amount{
		types.CurrencyNative:  types.MustFromFractional(20.0, types.CurrencyNative),
		types.CurrencyBitcoin: types.FromBitcoinSats(100_000),
	}, 2000)

	require.Len(t, updated, 1)
	btc := updated[types.CurrencyBitcoin]
	require.InDelta(t, 60_000.0, btc.PairQuotePriceEstimate, 1e-9)
	require.InDelta(t, 20_000.0, btc.ReserveRatioPair, 1e-9)
	require.Equal(t, int64(2000), btc.Time)
}
