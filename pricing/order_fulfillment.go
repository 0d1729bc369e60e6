package pricing

import (
	"github.com/quorumnet/partyd/types"
)

// OrderFulfillment is the outcome of walking a schedule for a taker order.
// OrderAmount is denominated in the offering currency (the foreign currency
// for asks, native for bids) and FulfilledAmount in the receiving currency,
// both in the shared fixed-point basis.
type OrderFulfillment struct {
	OrderAmount     uint64 `json:"order_amount"`
	FulfilledAmount uint64 `json:"fulfilled_amount"`

	IsAskFulfillmentFromExternalDeposit bool `json:"is_ask_fulfillment_from_external_deposit"`

	EventTime int64 `json:"event_time"`

	TxIDRef     *types.ExternalTxRef `json:"tx_id_ref,omitempty"`
	Destination types.Address        `json:"destination"`

	IsStakeWithdrawal              bool          `json:"is_stake_withdrawal"`
	StakeWithdrawalFulfilledUtxoID *types.UtxoID `json:"stake_withdrawal_fulfilled_utxo_id,omitempty"`

	// FulfillmentTxIDExternal is set once the outgoing external transaction
	// settling this order has been broadcast.
	FulfillmentTxIDExternal *types.ExternalTxRef `json:"fulfillment_txid_external,omitempty"`
}

// FulfilledCurrencyAmount types the fulfilled quantity in the destination's
// currency.
func (o *OrderFulfillment) FulfilledCurrencyAmount() types.Amount {
	return types.FromInt64(int64(o.FulfilledAmount), o.Destination.Currency)
}

// FulfillTakerOrder walks the ask or bid schedule in order, consuming levels
// until the order amount is exhausted. Partially consuming a level terminates
// the walk. A result below the destination chain's fee floor, or empty, is a
// rejection and returns nil.
func (c *CentralPricePair) FulfillTakerOrder(
	orderAmount uint64,
	isAsk bool,
	eventTime int64,
	txID *types.ExternalTxRef,
	destination types.Address,
	feeFloor types.Amount,
) *OrderFulfillment {
	remaining := orderAmount
	var fulfilled uint64

	var curve []PriceVolume
	if isAsk {
		curve = c.Asks()
	} else {
		curve = c.Bids()
	}

	for i := range curve {
		pv := &curve[i]
		var otherRequested uint64
		if isAsk {
			// foreign * (native/foreign) = native
			otherRequested = toVolume(float64(remaining) * pv.Price)
		} else {
			// native / (native/foreign) = foreign
			otherRequested = toVolume(float64(remaining) / pv.Price)
		}

		thisVol := pv.Volume
		if otherRequested >= thisVol {
			// The order outsizes this level; take all of it and move on.
			fulfilled += thisVol
			consumed := toVolume(float64(thisVol) * pv.Price)
			if consumed > remaining {
				consumed = remaining
			}
			remaining -= consumed
			pv.Volume = 0
		} else {
			pv.Volume -= otherRequested
			remaining = 0
			fulfilled += otherRequested
			break
		}
	}

	if fulfilled == 0 || int64(fulfilled) < feeFloor.I64() {
		return nil
	}
	return &OrderFulfillment{
		OrderAmount:                         orderAmount,
		FulfilledAmount:                     fulfilled,
		IsAskFulfillmentFromExternalDeposit: isAsk,
		EventTime:                           eventTime,
		TxIDRef:                             txID,
		Destination:                         destination,
	}
}
