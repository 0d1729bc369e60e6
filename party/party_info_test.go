package party_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/testutil"
	"github.com/quorumnet/partyd/types"
)

func TestComputeThreshold(t *testing.T) {
	cases := map[int]int64{1: 1, 2: 1, 3: 2, 4: 2, 5: 2, 6: 3, 9: 4}
	for n, want := range cases {
		require.Equal(t, want, party.ComputeThreshold(n), "n=%d", n)
	}
}

func TestAddInstanceEqualMembers(t *testing.T) {
	r := rand.New(rand.NewSource(40))
	members := []types.PublicKey{
		testutil.GenRandomPublicKey(r),
		testutil.GenRandomPublicKey(r),
		testutil.GenRandomPublicKey(r),
	}
	addr := testutil.GenRandomAddress(r, types.CurrencyBitcoin)
	now := time.Now().UnixMilli()

	var meta party.PartyMetadata
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address:      addr,
		Threshold:    party.Weighting{Value: party.ComputeThreshold(len(members)), Basis: int64(len(members))},
		Proposer:     members[0],
		State:        party.PartyStateActive,
		CreationTime: now,
	}, members)

	require.True(t, meta.HasInstance(types.CurrencyBitcoin))
	require.False(t, meta.HasInstance(types.CurrencyEthereum))
	require.Len(t, meta.Memberships, 3)
	for _, mem := range meta.Memberships {
		require.Len(t, mem.Participate, 1)
		require.Equal(t, addr, mem.Participate[0].Address)
		require.Equal(t, party.Weighting{Value: 1, Basis: 3}, mem.Participate[0].Weight)
	}
	require.ElementsMatch(t, members, meta.MembersOf(addr))

	// A second instance over a superset membership extends the matrix
	// without duplicating existing members.
	extra := testutil.GenRandomPublicKey(r)
	ethAddr := testutil.GenRandomAddress(r, types.CurrencyEthereum)
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address:      ethAddr,
		Threshold:    party.Weighting{Value: party.ComputeThreshold(4), Basis: 4},
		Proposer:     members[0],
		State:        party.PartyStateActive,
		CreationTime: now,
	}, append(append([]types.PublicKey{}, members...), extra))

	require.Len(t, meta.Memberships, 4)
	require.Len(t, meta.MembersOf(ethAddr), 4)
	require.Len(t, meta.MembersOf(addr), 3)

	byCur := meta.AddressesByCurrency()
	require.Equal(t, []types.Address{addr}, byCur[types.CurrencyBitcoin])
	require.Equal(t, []types.Address{ethAddr}, byCur[types.CurrencyEthereum])
}

func TestRetireInstance(t *testing.T) {
	r := rand.New(rand.NewSource(41))
	member := testutil.GenRandomPublicKey(r)
	addr := testutil.GenRandomAddress(r, types.CurrencyBitcoin)

	var meta party.PartyMetadata
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address: addr,
		State:   party.PartyStateActive,
	}, []types.PublicKey{member})

	require.False(t, meta.RetireInstance(testutil.GenRandomAddress(r, types.CurrencyBitcoin), 5))
	require.True(t, meta.RetireInstance(addr, 5))

	inst, ok := meta.InstanceOfAddress(addr)
	require.True(t, ok)
	require.Equal(t, party.PartyStateRetired, inst.State)
	require.Equal(t, int64(5), inst.LastUpdateTime)
	require.Empty(t, meta.AddressesByCurrency()[types.CurrencyBitcoin])
}
