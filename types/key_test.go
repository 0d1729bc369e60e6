package types_test

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/testutil"
	"github.com/quorumnet/partyd/types"
)

func TestSortPublicKeysDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(41))
	keys := make([]types.PublicKey, 0, 8)
	for i := 0; i < 8; i++ {
		keys = append(keys, testutil.GenRandomPublicKey(r))
	}

	sorted := types.SortPublicKeys(keys)
	require.Len(t, sorted, len(keys))
	require.True(t, sort.SliceIsSorted(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i], sorted[j]) < 0
	}))

	// Every member derives the same ordering regardless of input order.
	shuffled := make([]types.PublicKey, len(keys))
	copy(shuffled, keys)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	require.Equal(t, sorted, types.SortPublicKeys(shuffled))

	// The input slice is left untouched.
	require.Equal(t, keys[:1], types.SortPublicKeys(keys[:1]))
}
