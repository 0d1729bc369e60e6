package service_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/config"
	"github.com/quorumnet/partyd/metrics"
	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/service"
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
	ps := store.NewPartyStore(s)
	t.Cleanup(func() {
		require.NoError(t, ps.Close())
	})
	return ps
}

// fakeResources serves scripted external transactions per currency and
// rejects everything else.
type fakeResources struct {
	chainclient.Disabled

	txs   map[types.Currency][]*types.ExternalTimedTransaction
	calls int
}

func (f *fakeResources) GetAllTransactions(_ context.Context, _ types.PublicKey, currency types.Currency, _ int64) ([]*types.ExternalTimedTransaction, error) {
	f.calls++
	return f.txs[currency], nil
}

type fakeLedger struct {
	txs []*party.TransactionWithObservations
}

func (f *fakeLedger) GetPartyTransactions(_ context.Context, _ types.Address, _ int64) ([]*party.TransactionWithObservations, error) {
	return f.txs, nil
}

type watcherFixture struct {
	r       *rand.Rand
	ps      *store.PartyStore
	res     *fakeResources
	ledger  *fakeLedger
	keyAddr types.Address
	btcAddr types.Address
	partyPk types.PublicKey

	handled [][]pricing.OrderFulfillment
}

// newWatcherFixture stores one self-initiated party with a native and a
// Bitcoin custody instance and no events yet.
func newWatcherFixture(t *testing.T, seed int64) *watcherFixture {
	r := rand.New(rand.NewSource(seed))
	f := &watcherFixture{
		r:       r,
		ps:      createPartyStore(r, t),
		res:     &fakeResources{txs: make(map[types.Currency][]*types.ExternalTimedTransaction)},
		ledger:  &fakeLedger{},
		keyAddr: testutil.GenRandomAddress(r, types.CurrencyNative),
		btcAddr: testutil.GenRandomAddress(r, types.CurrencyBitcoin),
		partyPk: testutil.GenRandomPublicKey(r),
	}

	members := []types.PublicKey{f.partyPk, testutil.GenRandomPublicKey(r), testutil.GenRandomPublicKey(r)}
	var meta party.PartyMetadata
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address:   f.keyAddr,
		Threshold: party.Weighting{Value: 2, Basis: 3},
		Proposer:  f.partyPk,
		State:     party.PartyStateActive,
	}, members)
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address:   f.btcAddr,
		Threshold: party.Weighting{Value: 2, Basis: 3},
		Proposer:  f.partyPk,
		State:     party.PartyStateActive,
	}, members)

	require.NoError(t, f.ps.SavePartyData(&party.InternalData{
		PartyKey:      f.partyPk,
		Metadata:      meta,
		SelfInitiated: true,
	}))
	return f
}

func (f *watcherFixture) watcher(t *testing.T) *service.Watcher {
	cfg := config.DefaultWatcherConfig()
	handler := func(_ context.Context, _ *party.InternalData, orders []pricing.OrderFulfillment) error {
		f.handled = append(f.handled, orders)
		return nil
	}
	return service.NewWatcher(
		zap.NewNop(),
		&cfg,
		types.NetworkDevnet,
		nil,
		f.ps,
		f.res,
		f.ledger,
		metrics.NewPartyMetrics(),
		handler,
		make(chan error, 1),
	)
}

func (f *watcherFixture) scriptNativeDeposit(fractional float64, at int64) {
	tx := testutil.GenRandomLedgerTx(f.r, types.LedgerOutput{
		Address: f.keyAddr,
		Amount:  types.MustFromFractional(fractional, types.CurrencyNative),
	})
	tx.Time = at
	f.ledger.txs = append(f.ledger.txs, &party.TransactionWithObservations{Tx: tx})
}

func (f *watcherFixture) scriptBitcoinDeposit(sats int64, at int64, priceUSD float64) {
	f.res.txs[types.CurrencyBitcoin] = append(f.res.txs[types.CurrencyBitcoin], &types.ExternalTimedTransaction{
		TxID:         testutil.GenRandomHexStr(f.r, 32),
		Timestamp:    at,
		Currency:     types.CurrencyBitcoin,
		OtherAddress: testutil.GenRandomAddress(f.r, types.CurrencyBitcoin).Render,
		Amount:       types.FromBitcoinSats(sats),
		Incoming:     true,
		PriceUSD:     priceUSD,
	})
}

func TestWatcherReconcilePersistsDerivedState(t *testing.T) {
	f := newWatcherFixture(t, 40)
	base := time.Now().UnixMilli() - 3_600_000
	f.scriptNativeDeposit(15.0, base)
	f.scriptBitcoinDeposit(5_000_000, base+1000, 60_000.0)

	w := f.watcher(t)
	require.NoError(t, w.ReconcileAll(context.Background()))

	data, err := f.ps.GetPartyData(f.partyPk)
	require.NoError(t, err)
	require.Len(t, data.AddressEvents, 2)
	require.NotNil(t, data.PartyEvents)
	require.Equal(t, int64(15_0000_0000), data.PartyEvents.BalanceMap[types.CurrencyNative].Value)
	require.Equal(t, int64(5_000_000), data.PartyEvents.BalanceMap[types.CurrencyBitcoin].Value)
}

func TestWatcherDeduplicatesAcrossPasses(t *testing.T) {
	f := newWatcherFixture(t, 41)
	base := time.Now().UnixMilli() - 3_600_000
	f.scriptNativeDeposit(15.0, base)
	f.scriptBitcoinDeposit(5_000_000, base+1000, 60_000.0)

	w := f.watcher(t)
	require.NoError(t, w.ReconcileAll(context.Background()))
	require.NoError(t, w.ReconcileAll(context.Background()))

	data, err := f.ps.GetPartyData(f.partyPk)
	require.NoError(t, err)
	require.Len(t, data.AddressEvents, 2)
}

func TestWatcherHandsMatureOrdersToHandlerOnce(t *testing.T) {
	f := newWatcherFixture(t, 42)
	base := time.Now().UnixMilli() - 3_600_000
	f.scriptNativeDeposit(15.0, base)
	// The second priced deposit trades against the live curve and leaves an
	// ask order old enough to clear the maturity delay.
	f.scriptBitcoinDeposit(5_000_000, base+1000, 60_000.0)
	f.scriptBitcoinDeposit(2_000_000, base+2000, 60_000.0)

	w := f.watcher(t)
	require.NoError(t, w.ReconcileAll(context.Background()))

	require.Len(t, f.handled, 1)
	require.Len(t, f.handled[0], 1)
	order := f.handled[0][0]
	require.True(t, order.IsAskFulfillmentFromExternalDeposit)
	require.Equal(t, types.CurrencyNative, order.Destination.Currency)

	// The handled order is marked locally fulfilled, so the next pass does
	// not hand it out again.
	require.NoError(t, w.ReconcileAll(context.Background()))
	require.Len(t, f.handled, 1)
}

func TestWatcherSkipsUntrackedCurrencies(t *testing.T) {
	f := newWatcherFixture(t, 43)
	f.scriptNativeDeposit(15.0, time.Now().UnixMilli()-3_600_000)

	w := f.watcher(t)
	require.NoError(t, w.ReconcileAll(context.Background()))

	// Only the Bitcoin instance exists, so only Bitcoin is queried.
	require.Equal(t, 1, f.res.calls)
}
