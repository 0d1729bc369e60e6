package party

import (
	"reflect"
	"strings"

	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/types"
)

// PendingOrder pairs a computed fulfillment with the event that requested it,
// awaiting the settling transaction on the other side.
type PendingOrder struct {
	Order pricing.OrderFulfillment `json:"order"`
	Event AddressEvent             `json:"event"`
}

// Fulfillment is a settled order: the fulfillment, the event that initiated
// it, and the event that settled it.
type Fulfillment struct {
	Order           pricing.OrderFulfillment `json:"order"`
	InitiatingEvent AddressEvent             `json:"initiating_event"`
	SettlingEvent   AddressEvent             `json:"settling_event"`
}

// PricePoint is a snapshot of all central price pairs at one event time.
type PricePoint struct {
	Time   int64                                     `json:"time"`
	Prices map[types.Currency]pricing.CentralPricePair `json:"prices"`
}

// Events is the event-sourced reconciliation state for one party: balances,
// the synthetic order book anchors, and the stake/swap correlation sets. It
// is deterministic over its event sequence and is owned by a single
// goroutine; see the service watcher for the concurrency discipline.
type Events struct {
	Network        types.Network                      `json:"network"`
	PartyAddresses map[types.Currency][]types.Address `json:"party_addresses"`

	Events []AddressEvent `json:"events"`

	// BalanceMap holds confirmed reserve balances. The pending map carries
	// deltas for orders computed but not yet settled on chain; the
	// with-deltas map is their sum and is what pricing runs against.
	BalanceMap                map[types.Currency]types.Amount `json:"balance_map"`
	BalancePendingOrderDeltas map[types.Currency]types.Amount `json:"balance_pending_order_deltas"`
	BalanceWithDeltasApplied  map[types.Currency]types.Amount `json:"balance_with_deltas_applied"`

	// UnfulfilledNativeOrders are ask fulfillments awaiting an outgoing
	// native transaction; UnfulfilledExternalWithdrawals are bid or stake
	// withdrawal fulfillments awaiting an outgoing external transaction.
	UnfulfilledNativeOrders        []PendingOrder `json:"unfulfilled_native_orders"`
	UnfulfilledExternalWithdrawals []PendingOrder `json:"unfulfilled_external_withdrawals"`

	UnconfirmedEvents  []AddressEvent `json:"unconfirmed_events"`
	FulfillmentHistory []Fulfillment  `json:"fulfillment_history"`

	InternalStakingEvents     []InternalStakeEvent         `json:"internal_staking_events"`
	ExternalStakingEvents     []ConfirmedExternalStakeEvent `json:"external_staking_events"`
	PendingStakeWithdrawals   []PendingWithdrawalStakeEvent `json:"pending_stake_withdrawals"`
	PendingExternalStakingTxs []PendingExternalStakeEvent   `json:"pending_external_staking_txs"`
	RejectedStakeWithdrawals  []AddressEvent                `json:"rejected_stake_withdrawals"`

	CentralPrices       map[types.Currency]pricing.CentralPricePair `json:"central_prices"`
	CentralPriceHistory []PricePoint                                `json:"central_price_history,omitempty"`

	// LocallyFulfilledOrders are orders this node has already driven a
	// threshold signing round for, pending external confirmation.
	LocallyFulfilledOrders []pricing.OrderFulfillment `json:"locally_fulfilled_orders,omitempty"`

	Seeds []types.PublicKey `json:"seeds,omitempty"`

	// DroppedCurveLevels accumulates schedule levels discarded for invalid
	// prices, exported as a health gauge.
	DroppedCurveLevels int64 `json:"dropped_curve_levels,omitempty"`

	// eventFulfillment is the fulfillment produced while processing the
	// current event, reset at the start of each.
	eventFulfillment *pricing.OrderFulfillment
}

// NewEvents builds an empty reconciliation state for a party whose custody
// addresses are given per currency.
func NewEvents(network types.Network, seeds []types.PublicKey, partyAddresses map[types.Currency][]types.Address) *Events {
	return &Events{
		Network:                   network,
		PartyAddresses:            partyAddresses,
		BalanceMap:                make(map[types.Currency]types.Amount),
		BalancePendingOrderDeltas: make(map[types.Currency]types.Amount),
		BalanceWithDeltasApplied:  make(map[types.Currency]types.Amount),
		CentralPrices:             make(map[types.Currency]pricing.CentralPricePair),
		Seeds:                     seeds,
	}
}

// KeyAddress is the party's native ledger address.
func (p *Events) KeyAddress() (types.Address, bool) {
	addrs := p.PartyAddresses[types.CurrencyNative]
	if len(addrs) == 0 {
		return types.Address{}, false
	}
	return addrs[len(addrs)-1], true
}

// AddressForCurrency returns the party's latest custody address for c.
func (p *Events) AddressForCurrency(c types.Currency) (types.Address, bool) {
	addrs := p.PartyAddresses[c]
	if len(addrs) == 0 {
		return types.Address{}, false
	}
	return addrs[len(addrs)-1], true
}

// AllPartyAddresses flattens the custody address map.
func (p *Events) AllPartyAddresses() []types.Address {
	var out []types.Address
	for _, addrs := range p.PartyAddresses {
		out = append(out, addrs...)
	}
	return out
}

// ProcessEvent appends an event and routes it. Events whose time cannot be
// resolved yet are parked as unconfirmed and only contribute to
// double-delivery suppression.
func (p *Events) ProcessEvent(e AddressEvent) error {
	p.Events = append(p.Events, e)
	t, ok := e.Time(p.Seeds)
	if !ok {
		p.UnconfirmedEvents = append(p.UnconfirmedEvents, e)
		return nil
	}
	return p.processConfirmedEvent(e, t)
}

func (p *Events) processConfirmedEvent(e AddressEvent, time int64) error {
	p.eventFulfillment = nil

	// A fresh oracle quote on the event reprices that currency's pair
	// before the event itself is applied.
	if price, ok := e.USDEventPrice(); ok {
		if c, ok := e.ExternalCurrency(); ok {
			updated := pricing.CalculateCentralPrices(
				map[types.Currency]float64{c: price},
				p.BalanceWithDeltasApplied,
				time, 0, 0,
			)
			for k, v := range updated {
				p.CentralPrices[k] = v
			}
		}
	}
	p.recalculatePrices(time)

	var err error
	if e.External != nil {
		err = p.handleExternalEvent(e, time, e.External)
	} else if e.Internal != nil {
		err = p.handleInternalEvent(e, time, e.Internal)
	}
	if err != nil {
		return err
	}
	p.recalculatePrices(time)
	return nil
}

func (p *Events) handleExternalEvent(e AddressEvent, time int64, t *types.ExternalTimedTransaction) error {
	if t.Incoming {
		// A deposit that is not a declared stake is a taker buy: fulfill
		// an ask paying native to the depositor's own address.
		if !p.checkExternalEventPendingStake(e) {
			dest := types.NewAddress(types.CurrencyNative, t.OtherAddress)
			ref := &types.ExternalTxRef{Identifier: t.TxID, Currency: t.Currency}
			p.fulfillOrder(t.Amount, true, time, ref, dest, false, e, nil, t.Currency)
		}
	} else {
		// A transaction we sent: the settlement receipt for a pending
		// external withdrawal.
		foundMatch := false
		retained := p.UnfulfilledExternalWithdrawals[:0]
		for _, po := range p.UnfulfilledExternalWithdrawals {
			if !foundMatch && settlesExternalWithdrawal(t, po.Event) {
				p.FulfillmentHistory = append(p.FulfillmentHistory, Fulfillment{
					Order:           po.Order,
					InitiatingEvent: po.Event,
					SettlingEvent:   e,
				})
				foundMatch = true
				continue
			}
			retained = append(retained, po)
		}
		p.UnfulfilledExternalWithdrawals = retained

		if foundMatch {
			p.modifyPendingAndDeltas(t.BalanceChange())
		}
		p.removeUnconfirmedEvent(e)
	}

	delta := t.BalanceChange()
	if !t.Incoming {
		delta = delta.Neg()
	}
	p.modifyBaseBalanceAndDeltas(delta)
	return nil
}

// settlesExternalWithdrawal reports whether the outgoing external transaction
// t pays the destination declared by the pending order's initiating internal
// event, either a swap destination or a stake withdrawal destination.
func settlesExternalWithdrawal(t *types.ExternalTimedTransaction, initiating AddressEvent) bool {
	if initiating.Internal == nil {
		return false
	}
	thisDest := strings.ToLower(t.OtherAddress)
	if sd := initiating.Internal.Tx.SwapDestination(); sd != nil {
		if strings.ToLower(sd.Render) == thisDest {
			return true
		}
	}
	for _, req := range initiating.Internal.Tx.StakeRequests() {
		if req.Request.Withdrawal != nil && req.Request.Withdrawal.Destination != nil {
			if strings.ToLower(req.Request.Withdrawal.Destination.Render) == thisDest {
				return true
			}
		}
	}
	return false
}

func (p *Events) handleInternalEvent(e AddressEvent, time int64, t *TransactionWithObservations) error {
	keyAddress, ok := p.KeyAddress()
	if !ok {
		return types.ErrNoInstance.Wrap("party has no native address")
	}
	incoming := true
	for _, a := range t.Tx.InputAddresses {
		if a.Equal(keyAddress) {
			incoming = false
			break
		}
	}

	amount := types.Zero(types.CurrencyNative)
	if incoming {
		amount = t.Tx.OutputAmountTo(keyAddress)
		if dest := t.Tx.SwapDestination(); dest != nil {
			// A native deposit naming an external destination is a taker
			// sell: fulfill a bid paying the external currency out.
			p.fulfillOrder(amount, false, time, nil, *dest, false, e, nil, dest.Currency)
		} else if t.Tx.IsStake() {
			if err := p.handleStakeRequests(e, time, t.Tx); err != nil {
				return err
			}
		}
	} else {
		amount = t.Tx.OutputAmountExcluding(keyAddress)

		// An outgoing native transaction referencing external tx ids is the
		// receipt settling earlier ask fulfillments.
		for _, ref := range t.Tx.OutputExternalTxRefs() {
			p.removeUnconfirmedEvent(e)
			if p.settleNativeOrder(e, func(d AddressEvent) bool {
				return d.External != nil && d.External.TxID == ref.Identifier
			}) {
				p.modifyPendingAndDeltas(amount)
				break
			}
		}

		// Or it settles a native stake withdrawal, matched by the originating
		// request's UTXO appearing among the withdrawal request inputs.
		for _, f := range t.Tx.StakeWithdrawalFulfillments() {
			utxoID := f.RequestUtxoID
			if p.settleNativeOrder(e, func(d AddressEvent) bool {
				if d.Internal == nil {
					return false
				}
				for _, u := range d.Internal.Tx.InputUtxoIDs {
					if u.Equal(utxoID) {
						return true
					}
				}
				return false
			}) {
				p.modifyPendingAndDeltas(amount)
				break
			}
		}
	}

	delta := amount
	if !incoming {
		delta = delta.Neg()
	}
	p.modifyBaseBalanceAndDeltas(delta)
	return nil
}

// settleNativeOrder moves the first pending native order whose initiating
// event matches into the fulfillment history.
func (p *Events) settleNativeOrder(settling AddressEvent, matches func(AddressEvent) bool) bool {
	found := false
	retained := p.UnfulfilledNativeOrders[:0]
	for _, po := range p.UnfulfilledNativeOrders {
		if !found && matches(po.Event) {
			p.FulfillmentHistory = append(p.FulfillmentHistory, Fulfillment{
				Order:           po.Order,
				InitiatingEvent: po.Event,
				SettlingEvent:   settling,
			})
			found = true
			continue
		}
		retained = append(retained, po)
	}
	p.UnfulfilledNativeOrders = retained
	return found
}

// fulfillOrder runs the matcher (or constructs a direct stake-withdrawal
// fulfillment) and records the pending order and its balance delta.
func (p *Events) fulfillOrder(
	amount types.Amount,
	isAsk bool,
	eventTime int64,
	txID *types.ExternalTxRef,
	destination types.Address,
	isStake bool,
	event AddressEvent,
	stakeUtxoID *types.UtxoID,
	eventCurrency types.Currency,
) {
	var fulfillment *pricing.OrderFulfillment
	if !isStake {
		currency := eventCurrency
		if isAsk {
			currency = amount.Currency
		}
		cp, ok := p.CentralPrices[currency]
		if !ok {
			return
		}
		fee, _ := ExpectedFeeAmount(destination.Currency, p.Network)
		fulfillment = cp.FulfillTakerOrder(uint64(amount.I64()), isAsk, eventTime, txID, destination, fee)
		if fulfillment != nil {
			po := PendingOrder{Order: *fulfillment, Event: event}
			if isAsk {
				p.UnfulfilledNativeOrders = append(p.UnfulfilledNativeOrders, po)
			} else {
				p.UnfulfilledExternalWithdrawals = append(p.UnfulfilledExternalWithdrawals, po)
			}
		}
	} else {
		fulfillment = &pricing.OrderFulfillment{
			OrderAmount:                    uint64(amount.I64()),
			FulfilledAmount:                uint64(amount.I64()),
			EventTime:                      eventTime,
			Destination:                    destination,
			IsStakeWithdrawal:              true,
			StakeWithdrawalFulfilledUtxoID: stakeUtxoID,
		}
	}

	if fulfillment != nil {
		p.eventFulfillment = fulfillment
		p.modifyPendingAndDeltas(fulfillment.FulfilledCurrencyAmount().Neg())
	}
}

func (p *Events) recalculatePrices(time int64) {
	prior := p.CentralPrices
	p.CentralPrices = pricing.RecalculateNoQuoteChange(p.CentralPrices, p.BalanceWithDeltasApplied, time)
	if !reflect.DeepEqual(prior, p.CentralPrices) {
		snapshot := make(map[types.Currency]pricing.CentralPricePair, len(p.CentralPrices))
		for k, v := range p.CentralPrices {
			snapshot[k] = v
			_, droppedBids := v.BidsCounted()
			_, droppedAsks := v.AsksCounted()
			p.DroppedCurveLevels += int64(droppedBids + droppedAsks)
		}
		p.CentralPriceHistory = append(p.CentralPriceHistory, PricePoint{Time: time, Prices: snapshot})
	}
}

func (p *Events) modifyPendingBalanceOnly(delta types.Amount) {
	cur := p.BalancePendingOrderDeltas[delta.Currency]
	if cur.Currency == types.CurrencyUnknown {
		cur = types.Zero(delta.Currency)
	}
	p.BalancePendingOrderDeltas[delta.Currency] = cur.Add(delta)
}

func (p *Events) modifyBalanceWithDeltas(delta types.Amount) {
	cur := p.BalanceWithDeltasApplied[delta.Currency]
	if cur.Currency == types.CurrencyUnknown {
		cur = types.Zero(delta.Currency)
	}
	p.BalanceWithDeltasApplied[delta.Currency] = cur.Add(delta)
}

func (p *Events) modifyPendingAndDeltas(delta types.Amount) {
	p.modifyPendingBalanceOnly(delta)
	p.modifyBalanceWithDeltas(delta)
}

func (p *Events) modifyBaseBalanceAndDeltas(delta types.Amount) {
	cur := p.BalanceMap[delta.Currency]
	if cur.Currency == types.CurrencyUnknown {
		cur = types.Zero(delta.Currency)
	}
	p.BalanceMap[delta.Currency] = cur.Add(delta)
	p.modifyBalanceWithDeltas(delta)
}

func (p *Events) removeUnconfirmedEvent(event AddressEvent) {
	retained := p.UnconfirmedEvents[:0]
	for _, e := range p.UnconfirmedEvents {
		if e.SameEvent(event) {
			continue
		}
		retained = append(retained, e)
	}
	p.UnconfirmedEvents = retained
}

// unconfirmedNativeOutputTxIDRefs collects external tx ids referenced by
// unconfirmed internal transactions, used to suppress double fulfillment.
func (p *Events) unconfirmedNativeOutputTxIDRefs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, e := range p.UnconfirmedEvents {
		if e.Internal == nil {
			continue
		}
		for _, ref := range e.Internal.Tx.OutputExternalTxRefs() {
			ids[ref.Identifier] = struct{}{}
		}
	}
	return ids
}

// unconfirmedExternalOutputAddresses collects destination addresses of
// unconfirmed outgoing external transactions.
func (p *Events) unconfirmedExternalOutputAddresses() map[string]struct{} {
	addrs := make(map[string]struct{})
	for _, e := range p.UnconfirmedEvents {
		if e.External == nil || e.External.Incoming {
			continue
		}
		for _, a := range e.External.OtherOutputAddresses {
			addrs[a] = struct{}{}
		}
		if e.External.OtherAddress != "" {
			addrs[e.External.OtherAddress] = struct{}{}
		}
	}
	return addrs
}

// EventCounts tallies processed events per currency.
func (p *Events) EventCounts() map[types.Currency]int64 {
	m := make(map[types.Currency]int64)
	for _, e := range p.Events {
		m[e.Currency()]++
	}
	return m
}

func (p *Events) NumInternalEvents() int {
	n := 0
	for _, e := range p.Events {
		if e.Internal != nil {
			n++
		}
	}
	return n
}

func (p *Events) NumExternalEvents() int {
	n := 0
	for _, e := range p.Events {
		if e.External != nil {
			n++
		}
	}
	return n
}

// MaxBidUSDEstimateAt returns the highest estimated bid in USD per native
// unit as of the given time, from the price history.
func (p *Events) MaxBidUSDEstimateAt(time int64) (float64, bool) {
	var last *PricePoint
	for i := range p.CentralPriceHistory {
		if p.CentralPriceHistory[i].Time <= time {
			last = &p.CentralPriceHistory[i]
		}
	}
	if last == nil {
		return 0, false
	}
	max := 0.0
	found := false
	for _, cp := range last.Prices {
		if !found || cp.MinBidEstimated > max {
			max = cp.MinBidEstimated
			found = true
		}
	}
	return max, found
}

// StakingBalances sums confirmed stakes per currency, optionally restricted
// to the given withdrawal or depositor addresses.
func (p *Events) StakingBalances(addrs []types.Address) map[types.Currency]types.Amount {
	filter := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		filter[strings.ToLower(a.Render)] = struct{}{}
	}
	hasFilter := len(filter) > 0

	m := make(map[types.Currency]types.Amount)
	add := func(amt types.Amount) {
		cur, ok := m[amt.Currency]
		if !ok {
			cur = types.Zero(amt.Currency)
		}
		m[amt.Currency] = cur.Add(amt)
	}
	for _, e := range p.ExternalStakingEvents {
		if hasFilter {
			if _, ok := filter[strings.ToLower(e.Tx.OtherAddress)]; !ok {
				continue
			}
		}
		add(e.Tx.Amount)
	}
	for _, e := range p.InternalStakingEvents {
		if hasFilter {
			if _, ok := filter[strings.ToLower(e.WithdrawalAddress.Render)]; !ok {
				continue
			}
		}
		add(e.Amount)
	}
	return m
}
