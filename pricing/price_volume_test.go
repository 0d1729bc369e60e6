package pricing_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/testutil"
)

func TestGenerateConservesVolume(t *testing.T) {
	levels := pricing.Generate(1_000_000, 100.0, 40, 300.0, 20.0)
	require.Len(t, levels, 40)

	var total uint64
	last := 100.0
	for _, pv := range levels {
		total += pv.Volume
		require.Greater(t, pv.Price, 100.0)
		require.LessOrEqual(t, pv.Price, 400.0)
		require.Greater(t, pv.Price, last)
		last = pv.Price
	}
	require.Equal(t, uint64(1_000_000), total)
}

func TestGenerateBelowDustReturnsEmpty(t *testing.T) {
	require.Empty(t, pricing.Generate(pricing.DustLimit-1, 100.0, 40, 300.0, 20.0))
	require.Empty(t, pricing.Generate(0, 100.0, 40, 300.0, 20.0))
}

func TestGenerateDustCollapse(t *testing.T) {
	// Ten dust units spread over forty levels forces every normalized level
	// under the floor, collapsing the schedule to equal dust-sized levels.
	available := uint64(10 * pricing.DustLimit)
	levels := pricing.Generate(available, 100.0, 40, 300.0, 20.0)
	require.Len(t, levels, 10)
	for _, pv := range levels {
		require.Equal(t, uint64(pricing.DustLimit), pv.Volume)
	}
}

func TestGenerateCountsInvalidPrices(t *testing.T) {
	// A wide negative width pushes all but the first level to or below zero.
	levels, dropped := pricing.GenerateCounted(1_000_000, 10.0, 40, -200.0, 20.0)
	require.Len(t, levels, 1)
	require.Equal(t, 39, dropped)
	for _, pv := range levels {
		require.Greater(t, pv.Price, 0.0)
	}
}

func FuzzGenerateBounded(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		available := uint64(r.Int63n(100_000_000))
		center := r.Float64() * 1000
		width := (r.Float64() - 0.5) * 2 * center
		levels := pricing.Generate(available, center, 40, width, 20.0)

		var total uint64
		for _, pv := range levels {
			require.Greater(t, pv.Price, 0.0)
			require.Positive(t, pv.Volume)
			require.LessOrEqual(t, pv.Volume, available)
			total += pv.Volume
		}
		require.LessOrEqual(t, total, available)
	})
}
