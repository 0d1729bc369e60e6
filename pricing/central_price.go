package pricing

import (
	"github.com/quorumnet/partyd/types"
)

const (
	DefaultDivisions       = 40
	DefaultScale           = 20.0
	DefaultReserveFraction = 0.1

	// DefaultMinimumUSDFloor is the USD valuation per native unit below which
	// the engine will not price its own asset, regardless of reserve
	// imbalance.
	DefaultMinimumUSDFloor = 100.0

	// DefaultBidScaleFactor keeps min bid strictly above min ask so the
	// spread accrues to the reserve.
	DefaultBidScaleFactor = 1.1
)

// CentralPricePair holds the resolved bid/ask anchor prices for one foreign
// currency against the native asset. Prices are denominated native-per-foreign
// (e.g. native units per whole BTC, both in minor units); the estimated
// fields restate them in USD per native unit for observability.
type CentralPricePair struct {
	MinAsk          float64 `json:"min_ask"`
	MinAskEstimated float64 `json:"min_ask_estimated"`
	MinBid          float64 `json:"min_bid"`
	MinBidEstimated float64 `json:"min_bid_estimated"`

	Time int64 `json:"time"`

	BaseCurrency        types.Currency `json:"base_currency"`
	PairQuoteCurrency   types.Currency `json:"pair_quote_currency"`
	PricingEstimatePair types.Currency `json:"pricing_estimate_pair"`

	// ReserveRatioPair is the raw native/foreign reserve ratio before the
	// USD floor is applied.
	ReserveRatioPair float64 `json:"reserve_ratio_pair"`

	BaseVolume             types.Amount `json:"base_volume"`
	PairQuoteVolume        types.Amount `json:"pair_quote_volume"`
	PairQuotePriceEstimate float64      `json:"pair_quote_price_estimate"`
}

// Bids is the schedule of foreign-currency volume the party will pay native
// for. Ten percent of the foreign reserve is held back from the curve.
func (c *CentralPricePair) Bids() []PriceVolume {
	pv, _ := c.BidsCounted()
	return pv
}

// BidsCounted is Bids plus the number of levels dropped from the schedule.
func (c *CentralPricePair) BidsCounted() ([]PriceVolume, int) {
	return GenerateCounted(curveVolume(c.PairQuoteVolume), c.MinBid, DefaultDivisions, c.MinBid*0.9, DefaultScale/2.0)
}

// BidsUSD restates Bids with prices in USD per native unit.
func (c *CentralPricePair) BidsUSD() []PriceVolume {
	return c.toUSD(c.Bids())
}

// Asks is the schedule of native volume offered for the foreign currency.
// The width is negative so deeper levels yield fewer native units per foreign
// unit, a rising USD valuation as depth is consumed.
func (c *CentralPricePair) Asks() []PriceVolume {
	pv, _ := c.AsksCounted()
	return pv
}

// AsksCounted is Asks plus the number of levels dropped from the schedule.
func (c *CentralPricePair) AsksCounted() ([]PriceVolume, int) {
	return GenerateCounted(curveVolume(c.BaseVolume), c.MinAsk, DefaultDivisions, -1.0*c.MinAsk, c.MinAsk*3.0)
}

// curveVolume holds back the reserve fraction and floors at zero so a
// reserve driven negative by pending deltas yields an empty schedule.
func curveVolume(reserve types.Amount) uint64 {
	v := float64(reserve.I64()) * (1.0 - DefaultReserveFraction)
	if v <= 0 {
		return 0
	}
	return uint64(v)
}

// AsksUSD restates Asks with prices in USD per native unit.
func (c *CentralPricePair) AsksUSD() []PriceVolume {
	return c.toUSD(c.Asks())
}

func (c *CentralPricePair) toUSD(curve []PriceVolume) []PriceVolume {
	out := make([]PriceVolume, 0, len(curve))
	for _, pv := range curve {
		out = append(out, PriceVolume{
			Price:  c.PairQuotePriceEstimate / pv.Price,
			Volume: pv.Volume,
		})
	}
	return out
}

// CalculateCentralPrices derives a CentralPricePair per foreign currency from
// oracle USD quotes and current reserve balances. Currencies with no USD
// quote are skipped; an absent native reserve yields no pairs at all.
func CalculateCentralPrices(
	externalPricesQuotePair map[types.Currency]float64,
	reserveVolumes map[types.Currency]types.Amount,
	time int64,
	enforcedBaseMinUSD float64,
	bidScaleFactor float64,
) map[types.Currency]CentralPricePair {
	if enforcedBaseMinUSD == 0 {
		enforcedBaseMinUSD = DefaultMinimumUSDFloor
	}
	if bidScaleFactor == 0 {
		bidScaleFactor = DefaultBidScaleFactor
	}

	ret := make(map[types.Currency]CentralPricePair)
	coreVol, ok := reserveVolumes[types.CurrencyNative]
	if !ok {
		return ret
	}

	for currency, vol := range reserveVolumes {
		if currency == types.CurrencyNative {
			continue
		}
		quotePairUSDPrice, ok := externalPricesQuotePair[currency]
		if !ok {
			continue
		}

		// Native per foreign as implied purely by the reserve balances.
		reserveRatioPair := coreVol.ToFractional() / vol.ToFractional()

		// (USD/foreign) / (native/foreign) = USD per native.
		ratioUSDNativePrice := quotePairUSDPrice / reserveRatioPair

		askAdjustedRatioUSD := ratioUSDNativePrice
		if ratioUSDNativePrice < enforcedBaseMinUSD {
			askAdjustedRatioUSD = enforcedBaseMinUSD
		}

		// Back to native-per-foreign using the floored USD valuation.
		askAdjustedRatioPair := (1.0 / askAdjustedRatioUSD) * quotePairUSDPrice

		bidAdjusted := bidScaleFactor * askAdjustedRatioPair
		bidAdjustedUSD := quotePairUSDPrice / bidAdjusted

		ret[currency] = CentralPricePair{
			MinAsk:                 askAdjustedRatioPair,
			MinAskEstimated:        askAdjustedRatioUSD,
			MinBid:                 bidAdjusted,
			MinBidEstimated:        bidAdjustedUSD,
			Time:                   time,
			BaseCurrency:           types.CurrencyNative,
			PairQuoteCurrency:      currency,
			PricingEstimatePair:    types.CurrencyUSD,
			ReserveRatioPair:       reserveRatioPair,
			BaseVolume:             coreVol,
			PairQuoteVolume:        vol,
			PairQuotePriceEstimate: quotePairUSDPrice,
		}
	}
	return ret
}

// RecalculateNoQuoteChange rebuilds every pair from fresh reserve volumes
// while reusing each existing pair's last oracle quote.
func RecalculateNoQuoteChange(
	existing map[types.Currency]CentralPricePair,
	reserveVolumes map[types.Currency]types.Amount,
	time int64,
) map[types.Currency]CentralPricePair {
	quotes := make(map[types.Currency]float64, len(existing))
	for k, v := range existing {
		quotes[k] = v.PairQuotePriceEstimate
	}
	return CalculateCentralPrices(quotes, reserveVolumes, time, 0, 0)
}
