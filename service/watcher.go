package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/config"
	"github.com/quorumnet/partyd/metrics"
	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/store"
	"github.com/quorumnet/partyd/types"
)

// OrderHandler settles the mature orders of a self-initiated party, typically
// by driving a threshold signing round and broadcasting the result. Orders it
// returns without error are marked locally fulfilled.
type OrderHandler func(ctx context.Context, data *party.InternalData, orders []pricing.OrderFulfillment) error

// Watcher is the periodic reconciliation actor. Every tick it re-gathers the
// transactions touching each tracked party's addresses, replays them into a
// fresh event state, exports metrics, persists the snapshot, and hands mature
// orders to the settlement handler.
//
// All party state is owned by the watcher goroutine; nothing else mutates a
// stored InternalData while the watcher runs.
type Watcher struct {
	logger *zap.Logger
	cfg    *config.WatcherConfig

	network types.Network
	seeds   []types.PublicKey

	ps        *store.PartyStore
	resources chainclient.ExternalNetworkResources
	ledger    chainclient.LedgerQuery
	metrics   *metrics.PartyMetrics

	handleOrders OrderHandler

	criticalErrChan chan<- error

	isStarted *atomic.Bool
	wg        sync.WaitGroup
	quit      chan struct{}
}

func NewWatcher(
	logger *zap.Logger,
	cfg *config.WatcherConfig,
	network types.Network,
	seeds []types.PublicKey,
	ps *store.PartyStore,
	resources chainclient.ExternalNetworkResources,
	ledger chainclient.LedgerQuery,
	pm *metrics.PartyMetrics,
	handleOrders OrderHandler,
	criticalErrChan chan<- error,
) *Watcher {
	return &Watcher{
		logger:          logger,
		cfg:             cfg,
		network:         network,
		seeds:           seeds,
		ps:              ps,
		resources:       resources,
		ledger:          ledger,
		metrics:         pm,
		handleOrders:    handleOrders,
		criticalErrChan: criticalErrChan,
	}
}

func (w *Watcher) Start() error {
	if w.isStarted == nil {
		w.isStarted = atomic.NewBool(false)
	}
	if w.isStarted.Swap(true) {
		return fmt.Errorf("the watcher is already started")
	}

	w.logger.Info("Starting the party watcher",
		zap.Duration("poll_interval", w.cfg.PollInterval))

	w.quit = make(chan struct{})
	w.wg.Add(1)
	go w.reconciliationLoop()

	return nil
}

func (w *Watcher) Stop() error {
	if w.isStarted == nil || !w.isStarted.Swap(false) {
		return fmt.Errorf("the watcher has already stopped")
	}

	close(w.quit)
	w.wg.Wait()

	w.logger.Info("The party watcher is successfully stopped")

	return nil
}

func (w *Watcher) reconciliationLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.ReconcileAll(context.Background()); err != nil {
				w.logger.Error("reconciliation pass failed", zap.Error(err))
			}
		case <-w.quit:
			w.logger.Debug("exiting the reconciliation loop")
			return
		}
	}
}

// ReconcileAll runs one reconciliation pass over every stored party.
// Unrecoverable per-party errors are reported on the critical error channel;
// everything else is logged and retried on the next tick.
func (w *Watcher) ReconcileAll(ctx context.Context) error {
	parties, err := w.ps.ListPartyData()
	if err != nil {
		return fmt.Errorf("failed to list party data: %w", err)
	}

	w.metrics.SetTrackedParties(len(parties))

	for _, data := range parties {
		if err := w.reconcileParty(ctx, data); err != nil {
			if chainclient.IsUnrecoverable(err) {
				w.reportCriticalErr(err)
				continue
			}
			w.logger.Warn("failed to reconcile party",
				zap.String("party_pk", data.PartyKey.Hex()),
				zap.Error(err))
		}
	}

	w.metrics.UpdateReconcileGauges()

	return nil
}

// reconcileParty gathers the full transaction history for one party and
// replays it. Gathering from zero every pass keeps the derived state a pure
// function of the observed feed; duplicates are dropped by identifier.
func (w *Watcher) reconcileParty(ctx context.Context, data *party.InternalData) error {
	known := make(map[string]struct{}, len(data.AddressEvents))
	for _, e := range data.AddressEvents {
		known[e.Identifier()] = struct{}{}
	}

	var added int
	for _, cur := range types.MultisigPartyCurrencies() {
		if !data.Metadata.HasInstance(cur) {
			continue
		}
		txs, err := w.getAllTransactionsWithRetry(ctx, data.PartyKey, cur)
		if err != nil {
			return fmt.Errorf("failed to gather %s transactions: %w", cur.Abbreviated(), err)
		}
		for _, t := range txs {
			e := party.NewExternalEvent(t)
			if _, dup := known[e.Identifier()]; dup {
				continue
			}
			known[e.Identifier()] = struct{}{}
			data.AddressEvents = append(data.AddressEvents, e)
			added++
		}
	}

	for _, addr := range data.Metadata.AddressesByCurrency()[types.CurrencyNative] {
		txs, err := w.getPartyTransactionsWithRetry(ctx, addr)
		if err != nil {
			return fmt.Errorf("failed to gather ledger transactions: %w", err)
		}
		for _, t := range txs {
			e := party.NewInternalEvent(t)
			if _, dup := known[e.Identifier()]; dup {
				continue
			}
			known[e.Identifier()] = struct{}{}
			data.AddressEvents = append(data.AddressEvents, e)
			added++
		}
	}

	// Marks for orders this node already drove a signing round on live in
	// the derived state; carry them across the rebuild so a settlement in
	// flight is not driven twice.
	var locallyFulfilled []pricing.OrderFulfillment
	if data.PartyEvents != nil {
		locallyFulfilled = data.PartyEvents.LocallyFulfilledOrders
	}

	if err := data.Rebuild(w.network, w.seeds); err != nil {
		return fmt.Errorf("failed to replay address events: %w", err)
	}
	for _, o := range locallyFulfilled {
		data.PartyEvents.MarkLocallyFulfilled(o)
	}

	now := time.Now().UnixMilli()
	w.metrics.RecordPartyState(data.PartyKey.Hex(), data.PartyEvents, now)
	w.metrics.RecordReconcileTime(data.PartyKey.Hex())

	if err := w.ps.SavePartyData(data); err != nil {
		return fmt.Errorf("failed to persist party snapshot: %w", err)
	}

	w.logger.Debug("reconciled party",
		zap.String("party_pk", data.PartyKey.Hex()),
		zap.Int("new_events", added),
		zap.Int("total_events", len(data.AddressEvents)))

	if data.SelfInitiated && w.handleOrders != nil {
		cutoff := now - w.cfg.OrderMaturityDelay.Milliseconds()
		mature := data.PartyEvents.OrdersMaturedBefore(cutoff)
		if len(mature) > 0 {
			if err := w.handleOrders(ctx, data, mature); err != nil {
				w.logger.Warn("order settlement handler failed",
					zap.String("party_pk", data.PartyKey.Hex()),
					zap.Int("orders", len(mature)),
					zap.Error(err))
				return nil
			}
			for _, o := range mature {
				data.PartyEvents.MarkLocallyFulfilled(o)
			}
			if err := w.ps.SavePartyData(data); err != nil {
				return fmt.Errorf("failed to persist fulfillment marks: %w", err)
			}
		}
	}

	return nil
}

func (w *Watcher) getAllTransactionsWithRetry(ctx context.Context, key types.PublicKey, cur types.Currency) ([]*types.ExternalTimedTransaction, error) {
	var txs []*types.ExternalTimedTransaction
	if err := retry.Do(func() error {
		var err error
		txs, err = w.resources.GetAllTransactions(ctx, key, cur, 0)
		return err
	}, chainclient.RtyAtt, chainclient.RtyDel, chainclient.RtyErr, retry.OnRetry(func(n uint, err error) {
		w.logger.Debug(
			"failed to query the external chain for transactions",
			zap.String("currency", cur.Abbreviated()),
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", chainclient.RtyAttNum),
			zap.Error(err),
		)
	})); err != nil {
		return nil, err
	}
	return txs, nil
}

func (w *Watcher) getPartyTransactionsWithRetry(ctx context.Context, addr types.Address) ([]*party.TransactionWithObservations, error) {
	var txs []*party.TransactionWithObservations
	if err := retry.Do(func() error {
		var err error
		txs, err = w.ledger.GetPartyTransactions(ctx, addr, 0)
		return err
	}, chainclient.RtyAtt, chainclient.RtyDel, chainclient.RtyErr, retry.OnRetry(func(n uint, err error) {
		w.logger.Debug(
			"failed to query the ledger for party transactions",
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", chainclient.RtyAttNum),
			zap.Error(err),
		)
	})); err != nil {
		return nil, err
	}
	return txs, nil
}

func (w *Watcher) reportCriticalErr(err error) {
	select {
	case w.criticalErrChan <- err:
	case <-w.quit:
	}
}
