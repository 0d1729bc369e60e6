package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorumnet/partyd/party"
)

type PartyMetrics struct {
	// daemon-wide metrics
	trackedPartiesGauge prometheus.Gauge
	// per-party reconciliation metrics
	partyBalance               *prometheus.GaugeVec
	partyBalanceWithDeltas     *prometheus.GaugeVec
	partyEventCount            *prometheus.GaugeVec
	partyInternalEvents        *prometheus.GaugeVec
	partyExternalEvents        *prometheus.GaugeVec
	partyOpenOrders            *prometheus.GaugeVec
	partyFulfillmentsTotal     *prometheus.GaugeVec
	partyPricePairs            *prometheus.GaugeVec
	partyMaxBidEstimateUSD     *prometheus.GaugeVec
	partyDroppedCurveLevels    *prometheus.GaugeVec
	partySecondsSinceReconcile *prometheus.GaugeVec
	// provisioning and formation metrics
	provisioningState         *prometheus.GaugeVec
	formationAttemptsCounter  *prometheus.CounterVec
	formationFailuresCounter  *prometheus.CounterVec
	formationCompletedCounter *prometheus.CounterVec
	// time keeper
	mu                  sync.Mutex
	previousReconcileBy map[string]*time.Time
}

var partyMetricsRegisterOnce sync.Once

var partyMetricsInstance *PartyMetrics

// NewPartyMetrics initializes and registers the metrics, using sync.Once to
// ensure registration happens only once per process.
func NewPartyMetrics() *PartyMetrics {
	partyMetricsRegisterOnce.Do(func() {
		partyMetricsInstance = &PartyMetrics{
			trackedPartiesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "tracked_parties",
				Help: "Current number of parties tracked by the watcher",
			}),
			partyBalance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_balance",
				Help: "Confirmed reserve balance of a party, in fixed-point minor units",
			}, []string{"party_pk_hex", "currency"}),
			partyBalanceWithDeltas: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_balance_with_deltas",
				Help: "Reserve balance of a party with pending order deltas applied",
			}, []string{"party_pk_hex", "currency"}),
			partyEventCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_event_count",
				Help: "Number of address events processed for a party by currency",
			}, []string{"party_pk_hex", "currency"}),
			partyInternalEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_internal_events",
				Help: "Number of native ledger events processed for a party",
			}, []string{"party_pk_hex"}),
			partyExternalEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_external_events",
				Help: "Number of external chain events processed for a party",
			}, []string{"party_pk_hex"}),
			partyOpenOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_open_orders",
				Help: "Number of unfulfilled orders currently held for a party",
			}, []string{"party_pk_hex"}),
			partyFulfillmentsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_fulfillments_total",
				Help: "Number of settled order fulfillments recorded for a party",
			}, []string{"party_pk_hex"}),
			partyPricePairs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_price_pairs",
				Help: "Number of live central price pairs for a party",
			}, []string{"party_pk_hex"}),
			partyMaxBidEstimateUSD: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_max_bid_estimate_usd",
				Help: "Highest estimated minimum bid across a party's price pairs, in USD",
			}, []string{"party_pk_hex"}),
			partyDroppedCurveLevels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_dropped_curve_levels",
				Help: "Number of order book levels discarded for invalid prices",
			}, []string{"party_pk_hex"}),
			partySecondsSinceReconcile: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "party_seconds_since_reconcile",
				Help: "Seconds since the last completed reconciliation of a party",
			}, []string{"party_pk_hex"}),
			provisioningState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "wallet_provisioning_state",
				Help: "Current multisig wallet provisioning state for a currency",
			}, []string{"currency"}),
			formationAttemptsCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "party_formation_attempts_total",
				Help: "Total number of party formation attempts per currency",
			}, []string{"currency"}),
			formationFailuresCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "party_formation_failures_total",
				Help: "Total number of failed party formation attempts per currency",
			}, []string{"currency"}),
			formationCompletedCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "party_formation_completed_total",
				Help: "Total number of completed party formations per currency",
			}, []string{"currency"}),
			mu: sync.Mutex{},
		}

		prometheus.MustRegister(partyMetricsInstance.trackedPartiesGauge)
		prometheus.MustRegister(partyMetricsInstance.partyBalance)
		prometheus.MustRegister(partyMetricsInstance.partyBalanceWithDeltas)
		prometheus.MustRegister(partyMetricsInstance.partyEventCount)
		prometheus.MustRegister(partyMetricsInstance.partyInternalEvents)
		prometheus.MustRegister(partyMetricsInstance.partyExternalEvents)
		prometheus.MustRegister(partyMetricsInstance.partyOpenOrders)
		prometheus.MustRegister(partyMetricsInstance.partyFulfillmentsTotal)
		prometheus.MustRegister(partyMetricsInstance.partyPricePairs)
		prometheus.MustRegister(partyMetricsInstance.partyMaxBidEstimateUSD)
		prometheus.MustRegister(partyMetricsInstance.partyDroppedCurveLevels)
		prometheus.MustRegister(partyMetricsInstance.partySecondsSinceReconcile)
		prometheus.MustRegister(partyMetricsInstance.provisioningState)
		prometheus.MustRegister(partyMetricsInstance.formationAttemptsCounter)
		prometheus.MustRegister(partyMetricsInstance.formationFailuresCounter)
		prometheus.MustRegister(partyMetricsInstance.formationCompletedCounter)
	})
	return partyMetricsInstance
}

// SetTrackedParties records the number of parties the watcher maintains.
func (pm *PartyMetrics) SetTrackedParties(n int) {
	pm.trackedPartiesGauge.Set(float64(n))
}

// RecordPartyState exports the reconciliation gauges derived from one party's
// event state.
func (pm *PartyMetrics) RecordPartyState(pkHex string, ev *party.Events, now int64) {
	for cur, amt := range ev.BalanceMap {
		pm.partyBalance.WithLabelValues(pkHex, cur.Abbreviated()).Set(float64(amt.I64()))
	}
	for cur, amt := range ev.BalanceWithDeltasApplied {
		pm.partyBalanceWithDeltas.WithLabelValues(pkHex, cur.Abbreviated()).Set(float64(amt.I64()))
	}
	for cur, n := range ev.EventCounts() {
		pm.partyEventCount.WithLabelValues(pkHex, cur.Abbreviated()).Set(float64(n))
	}
	pm.partyInternalEvents.WithLabelValues(pkHex).Set(float64(ev.NumInternalEvents()))
	pm.partyExternalEvents.WithLabelValues(pkHex).Set(float64(ev.NumExternalEvents()))
	pm.partyOpenOrders.WithLabelValues(pkHex).Set(float64(len(ev.UnfulfilledNativeOrders) + len(ev.UnfulfilledExternalWithdrawals)))
	pm.partyFulfillmentsTotal.WithLabelValues(pkHex).Set(float64(len(ev.FulfillmentHistory)))
	pm.partyPricePairs.WithLabelValues(pkHex).Set(float64(len(ev.CentralPrices)))
	pm.partyDroppedCurveLevels.WithLabelValues(pkHex).Set(float64(ev.DroppedCurveLevels))
	if est, ok := ev.MaxBidUSDEstimateAt(now); ok {
		pm.partyMaxBidEstimateUSD.WithLabelValues(pkHex).Set(est)
	}
}

// RecordProvisioningState records the wallet state machine position for a
// currency's multisig handshake.
func (pm *PartyMetrics) RecordProvisioningState(currency string, state int32) {
	pm.provisioningState.WithLabelValues(currency).Set(float64(state))
}

// IncrementFormationAttempts increments the formation attempt counter for a currency.
func (pm *PartyMetrics) IncrementFormationAttempts(currency string) {
	pm.formationAttemptsCounter.WithLabelValues(currency).Inc()
}

// IncrementFormationFailures increments the formation failure counter for a currency.
func (pm *PartyMetrics) IncrementFormationFailures(currency string) {
	pm.formationFailuresCounter.WithLabelValues(currency).Inc()
}

// IncrementFormationCompleted increments the completed formation counter for a currency.
func (pm *PartyMetrics) IncrementFormationCompleted(currency string) {
	pm.formationCompletedCounter.WithLabelValues(currency).Inc()
}

// RecordReconcileTime records the wall-clock time of a completed
// reconciliation for a party.
func (pm *PartyMetrics) RecordReconcileTime(pkHex string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	now := time.Now()

	if pm.previousReconcileBy == nil {
		pm.previousReconcileBy = make(map[string]*time.Time)
	}
	pm.previousReconcileBy[pkHex] = &now
}

// UpdateReconcileGauges refreshes the seconds-since-reconcile gauges from the
// recorded reconcile times.
func (pm *PartyMetrics) UpdateReconcileGauges() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for pkHex, t := range pm.previousReconcileBy {
		if t == nil {
			continue
		}
		pm.partySecondsSinceReconcile.WithLabelValues(pkHex).Set(time.Since(*t).Seconds())
	}
}
