package party

import (
	"sort"
	"strings"

	"github.com/quorumnet/partyd/pricing"
	"github.com/quorumnet/partyd/types"
)

// DefaultOrderMaturity is how long a computed fulfillment must age before the
// node acts on it, giving competing observations time to arrive.
const DefaultOrderMaturity = int64(30_000)

// Orders returns the fulfillments this node should settle now: pending orders
// whose settlement is not already in flight as an unconfirmed transaction,
// filtered for balance feasibility and sorted by event time.
func (p *Events) Orders() []pricing.OrderFulfillment {
	var orders []pricing.OrderFulfillment

	nativeRefs := p.unconfirmedNativeOutputTxIDRefs()
	for _, po := range p.UnfulfilledNativeOrders {
		if po.Event.External == nil {
			continue
		}
		// An unconfirmed native transaction already referencing this deposit
		// means settlement is in flight.
		if _, inFlight := nativeRefs[po.Event.External.TxID]; inFlight {
			continue
		}
		if p.isLocallyFulfilled(po.Order) {
			continue
		}
		orders = append(orders, po.Order)
	}

	pendingAddrs := p.unconfirmedExternalOutputAddresses()
	for _, po := range p.UnfulfilledExternalWithdrawals {
		// Stake withdrawals stay disabled on mainnet.
		if po.Order.IsStakeWithdrawal && p.Network.IsMain() {
			continue
		}
		if po.Event.Internal == nil {
			continue
		}
		if p.isLocallyFulfilled(po.Order) {
			continue
		}
		if addrInSet(pendingAddrs, po.Order.Destination) {
			continue
		}
		orders = append(orders, po.Order)
	}

	// Drop anything the confirmed reserve cannot cover with fee headroom.
	filtered := orders[:0]
	for _, o := range orders {
		c := o.Destination.Currency
		if b, ok := p.BalanceMap[c]; ok {
			fee, feeOK := ExpectedFeeAmount(c, p.Network)
			total := o.FulfilledCurrencyAmount()
			if feeOK {
				total = total.Add(fee)
			}
			if b.LT(total) {
				continue
			}
		}
		filtered = append(filtered, o)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].EventTime < filtered[j].EventTime
	})
	return filtered
}

// OrdersMaturedBefore filters Orders to those whose initiating event is older
// than the cutoff.
func (p *Events) OrdersMaturedBefore(cutoff int64) []pricing.OrderFulfillment {
	var out []pricing.OrderFulfillment
	for _, o := range p.Orders() {
		if o.EventTime < cutoff {
			out = append(out, o)
		}
	}
	return out
}

// FulfillmentOrders filters Orders by destination currency.
func (p *Events) FulfillmentOrders(c types.Currency) []pricing.OrderFulfillment {
	var out []pricing.OrderFulfillment
	for _, o := range p.Orders() {
		if o.Destination.Currency == c {
			out = append(out, o)
		}
	}
	return out
}

// MarkLocallyFulfilled records that this node has driven a signing round for
// the order, so it is not offered for settlement again before confirmation.
func (p *Events) MarkLocallyFulfilled(o pricing.OrderFulfillment) {
	p.LocallyFulfilledOrders = append(p.LocallyFulfilledOrders, o)
}

func (p *Events) isLocallyFulfilled(order pricing.OrderFulfillment) bool {
	for _, o := range p.LocallyFulfilledOrders {
		if o.EventTime == order.EventTime && o.Destination.Equal(order.Destination) {
			return true
		}
	}
	return false
}

func addrInSet(set map[string]struct{}, a types.Address) bool {
	if _, ok := set[a.Render]; ok {
		return true
	}
	_, ok := set[strings.ToLower(a.Render)]
	return ok
}

// FindFulfillmentOf looks up history by the initiating event's identifier.
func (p *Events) FindFulfillmentOf(identifier string) (Fulfillment, bool) {
	for _, f := range p.FulfillmentHistory {
		if f.InitiatingEvent.Identifier() == identifier {
			return f, true
		}
	}
	return Fulfillment{}, false
}

// FindRequestFulfilledBy looks up history by the settling event's identifier.
func (p *Events) FindRequestFulfilledBy(identifier string) (Fulfillment, bool) {
	for _, f := range p.FulfillmentHistory {
		if f.SettlingEvent.Identifier() == identifier {
			return f, true
		}
	}
	return Fulfillment{}, false
}

// EventType classifies an event id against the fulfillment history.
type EventType string

const (
	EventTypeSwap            EventType = "swap"
	EventTypeSwapFulfillment EventType = "swap_fulfillment"
)

// DetermineEventType reports whether the identified event initiated a swap or
// settled one.
func (p *Events) DetermineEventType(identifier string) (EventType, bool) {
	if _, ok := p.FindFulfillmentOf(identifier); ok {
		return EventTypeSwap, true
	}
	if _, ok := p.FindRequestFulfilledBy(identifier); ok {
		return EventTypeSwapFulfillment, true
	}
	return "", false
}
