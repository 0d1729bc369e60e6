package store_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/store"
	"github.com/quorumnet/partyd/store/bbolt"
	"github.com/quorumnet/partyd/testutil"
	"github.com/quorumnet/partyd/types"
)

func createPartyStore(r *rand.Rand, t *testing.T) *store.PartyStore {
	s, err := bbolt.NewBboltStore(bbolt.Options{
		Path: testutil.RandomFilePath(r, t, "partyd.db"),
	})
	require.NoError(t, err)
	return store.NewPartyStore(s)
}

func genPartyData(r *rand.Rand) *party.InternalData {
	key := testutil.GenRandomPublicKey(r)
	var meta party.PartyMetadata
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address:   testutil.GenRandomAddress(r, types.CurrencyBitcoin),
		Threshold: party.Weighting{Value: 2, Basis: 3},
		Proposer:  key,
		State:     party.PartyStateActive,
	}, []types.PublicKey{key, testutil.GenRandomPublicKey(r), testutil.GenRandomPublicKey(r)})

	return &party.InternalData{
		PartyKey:      key,
		Metadata:      meta,
		SelfInitiated: true,
		AddressEvents: []party.AddressEvent{
			party.NewExternalEvent(testutil.GenRandomExternalTx(r, types.CurrencyBitcoin, true)),
		},
	}
}

// FuzzPartyStore tests saving and loading party records round trip.
func FuzzPartyStore(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		ps := createPartyStore(r, t)
		defer func() {
			require.NoError(t, ps.Close())
		}()

		// A fresh store yields empty metadata, not an error.
		meta, err := ps.GetMetadata()
		require.NoError(t, err)
		require.Empty(t, meta.Instances)

		d := genPartyData(r)
		exists, err := ps.HasPartyData(d.PartyKey)
		require.NoError(t, err)
		require.False(t, exists)

		require.NoError(t, ps.SavePartyData(d))
		require.NoError(t, ps.SaveMetadata(&d.Metadata))

		loaded, err := ps.GetPartyData(d.PartyKey)
		require.NoError(t, err)
		require.Equal(t, d.PartyKey, loaded.PartyKey)
		require.True(t, loaded.SelfInitiated)
		require.Len(t, loaded.AddressEvents, 1)
		require.Equal(t, d.AddressEvents[0].Identifier(), loaded.AddressEvents[0].Identifier())

		loadedMeta, err := ps.GetMetadata()
		require.NoError(t, err)
		require.Len(t, loadedMeta.Instances, 1)
		require.Len(t, loadedMeta.Memberships, 3)
		require.Equal(t, d.Metadata.Instances[0].Address, loadedMeta.Instances[0].Address)

		list, err := ps.ListPartyData()
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, ps.DeletePartyData(d.PartyKey))
		exists, err = ps.HasPartyData(d.PartyKey)
		require.NoError(t, err)
		require.False(t, exists)
	})
}
