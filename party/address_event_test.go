package party_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/testutil"
	"github.com/quorumnet/partyd/types"
)

func TestAddressEventTimeExternal(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ext := testutil.GenRandomExternalTx(r, types.CurrencyBitcoin, true)
	ext.Timestamp = 12345
	e := party.NewExternalEvent(ext)

	tm, ok := e.Time(nil)
	require.True(t, ok)
	require.Equal(t, int64(12345), tm)
}

func TestAddressEventTimeAveragesSeedObservations(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	seedA := testutil.GenRandomPublicKey(r)
	seedB := testutil.GenRandomPublicKey(r)
	other := testutil.GenRandomPublicKey(r)

	tx := testutil.GenRandomLedgerTx(r)
	tx.Time = 9999
	e := party.NewInternalEvent(&party.TransactionWithObservations{
		Tx: tx,
		Observations: []types.ObservationProof{
			{ObserverKey: seedA, Time: 1000, Accepted: true, Live: true},
			{ObserverKey: seedB, Time: 2000, Accepted: true, Live: true},
			// Non-seed and non-live observations do not contribute.
			{ObserverKey: other, Time: 50_000, Accepted: true, Live: true},
			{ObserverKey: seedA, Time: 70_000, Accepted: true, Live: false},
		},
	})

	tm, ok := e.Time([]types.PublicKey{seedA, seedB})
	require.True(t, ok)
	require.Equal(t, int64(1500), tm)

	// Without seeds the transaction's own time is used.
	tm, ok = e.Time(nil)
	require.True(t, ok)
	require.Equal(t, int64(9999), tm)
}

func TestAddressEventTimeFallsBackWithoutQualifyingObservations(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	seed := testutil.GenRandomPublicKey(r)
	stranger := testutil.GenRandomPublicKey(r)

	tx := testutil.GenRandomLedgerTx(r)
	tx.Time = 777
	e := party.NewInternalEvent(&party.TransactionWithObservations{
		Tx: tx,
		Observations: []types.ObservationProof{
			{ObserverKey: stranger, Time: 123, Accepted: true, Live: true},
		},
	})

	tm, ok := e.Time([]types.PublicKey{seed})
	require.True(t, ok)
	require.Equal(t, int64(777), tm)
}

func TestAddressEventIdentifierAndCurrency(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	ext := testutil.GenRandomExternalTx(r, types.CurrencyEthereum, true)
	e := party.NewExternalEvent(ext)
	require.Equal(t, ext.TxID, e.Identifier())
	require.Equal(t, types.CurrencyEthereum, e.Currency())

	tx := testutil.GenRandomLedgerTx(r)
	i := party.NewInternalEvent(&party.TransactionWithObservations{Tx: tx})
	require.Equal(t, tx.Hash, i.Identifier())
	require.Equal(t, types.CurrencyNative, i.Currency())
	require.False(t, e.SameEvent(i))
}
