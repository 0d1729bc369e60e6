package pricing

import (
	"math"
)

// DustLimit is the minimum volume, in native minor units, below which no
// liquidity level is offered.
const DustLimit = 2500

// PriceVolume is one level of a bid or ask schedule. Price is denominated in
// native units per foreign unit, Volume in the minor units of the side's
// offering currency.
type PriceVolume struct {
	Price  float64 `json:"price"`
	Volume uint64  `json:"volume"`
}

// Generate builds a geometric liquidity schedule around centerPrice. Level i
// is priced at centerPrice + (i+1)*priceWidth/divisions, with volumes decaying
// geometrically by scale so the summed volume equals availableVolume exactly,
// unless the dust collapse below engages.
func Generate(availableVolume uint64, centerPrice float64, divisions int, priceWidth float64, scale float64) []PriceVolume {
	pv, _ := GenerateCounted(availableVolume, centerPrice, divisions, priceWidth, scale)
	return pv
}

// GenerateCounted is Generate plus the number of levels discarded for having
// an invalid price or volume. A persistently high drop count indicates a
// misconfigured curve and is surfaced through metrics by callers.
func GenerateCounted(availableVolume uint64, centerPrice float64, divisions int, priceWidth float64, scale float64) ([]PriceVolume, int) {
	if availableVolume < DustLimit {
		return nil, 0
	}

	divisionsF := float64(divisions)
	ratio := math.Pow(1.0/scale, 1.0/(divisionsF-1.0))
	firstTerm := float64(availableVolume) * scale / (1.0 - math.Pow(ratio, divisionsF))

	dropped := 0
	priceVolumes := make([]PriceVolume, 0, divisions)
	for i := 0; i < divisions; i++ {
		priceOffset := float64(i + 1)
		price := centerPrice + priceOffset*(priceWidth/divisionsF)
		if math.IsNaN(price) || math.IsInf(price, 0) || math.Signbit(price) || price == 0 {
			dropped++
			continue
		}
		multiplier := math.Sqrt(math.Pow(ratio, float64(divisions-i)))
		volume := toVolume(firstTerm * multiplier)
		priceVolumes = append(priceVolumes, PriceVolume{Price: price, Volume: volume})
	}

	priceVolumes, dustTriggered := normalizeVolumes(availableVolume, priceVolumes)

	if !dustTriggered {
		var adjustedTotal uint64
		for _, pv := range priceVolumes {
			adjustedTotal += pv.Volume
		}
		// Rounding during normalization leaves a residual of at most a few
		// units; spread it one unit at a time so the sum lands exactly on
		// availableVolume.
		adjustment := int64(availableVolume) - int64(adjustedTotal)
		for i := range priceVolumes {
			if adjustment == 0 {
				break
			}
			if adjustment > 0 && priceVolumes[i].Volume > 0 {
				priceVolumes[i].Volume++
				adjustment--
			} else if adjustment < 0 && priceVolumes[i].Volume > 1 {
				priceVolumes[i].Volume--
				adjustment++
			}
		}
	}

	final := priceVolumes[:0]
	for _, pv := range priceVolumes {
		if pv.Volume == 0 || pv.Volume > availableVolume {
			dropped++
			continue
		}
		final = append(final, pv)
	}
	return final, dropped
}

// normalizeVolumes rescales raw geometric volumes so they sum to
// availableVolume. If any rescaled level would fall under DustLimit the whole
// schedule collapses to floor(availableVolume/DustLimit) levels of exactly
// DustLimit, keeping each level's original price, so every offered level
// remains independently fillable.
func normalizeVolumes(availableVolume uint64, priceVolumes []PriceVolume) ([]PriceVolume, bool) {
	var currentTotal uint64
	for _, pv := range priceVolumes {
		currentTotal += pv.Volume
	}
	if currentTotal == 0 {
		return priceVolumes, false
	}

	for i := range priceVolumes {
		scaled := float64(priceVolumes[i].Volume) / float64(currentTotal) * float64(availableVolume)
		priceVolumes[i].Volume = toVolume(math.Round(scaled))
	}

	dustTrigger := false
	for _, pv := range priceVolumes {
		if pv.Volume < DustLimit {
			dustTrigger = true
			break
		}
	}
	if !dustTrigger {
		return priceVolumes, false
	}

	divs := int(availableVolume / DustLimit)
	collapsed := make([]PriceVolume, 0, divs)
	for i, pv := range priceVolumes {
		if i >= divs {
			break
		}
		collapsed = append(collapsed, PriceVolume{Price: pv.Price, Volume: DustLimit})
	}
	return collapsed, true
}

func toVolume(f float64) uint64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(f)
}
