package party

import (
	"github.com/quorumnet/partyd/types"
)

// PendingExternalStakeEvent is a declared external deposit awaiting its
// matching foreign-chain transaction.
type PendingExternalStakeEvent struct {
	Event            AddressEvent   `json:"event"`
	Tx               *types.LedgerTransaction `json:"tx"`
	Amount           types.Amount   `json:"amount"`
	ExternalAddress  types.Address  `json:"external_address"`
	ExternalCurrency types.Currency `json:"external_currency"`
	UtxoID           types.UtxoID   `json:"utxo_id"`
}

// ConfirmedExternalStakeEvent pairs a pending deposit with the external
// transaction that confirmed it.
type ConfirmedExternalStakeEvent struct {
	PendingEvent PendingExternalStakeEvent       `json:"pending_event"`
	Event        AddressEvent                    `json:"event"`
	Tx           *types.ExternalTimedTransaction `json:"tx"`
}

// InternalStakeEvent is a confirmed native-asset stake.
type InternalStakeEvent struct {
	Event             AddressEvent   `json:"event"`
	Tx                *types.LedgerTransaction `json:"tx"`
	Amount            types.Amount   `json:"amount"`
	WithdrawalAddress types.Address  `json:"withdrawal_address"`
	UtxoID            types.UtxoID   `json:"utxo_id"`
}

// PendingWithdrawalStakeEvent is an accepted withdrawal awaiting settlement.
type PendingWithdrawalStakeEvent struct {
	Address         types.Address `json:"address"`
	Amount          types.Amount  `json:"amount"`
	InitiatingEvent AddressEvent  `json:"initiating_event"`
	IsExternal      bool          `json:"is_external"`
	UtxoID          types.UtxoID  `json:"utxo_id"`
}

// checkExternalEventPendingStake promotes a pending external stake when an
// incoming external transaction matches it exactly on amount and sender
// address. The first match wins and is removed from the pending set.
func (p *Events) checkExternalEventPendingStake(eventO AddressEvent) bool {
	event := eventO.External
	if event == nil {
		return false
	}
	addr := event.OtherAddressTyped()
	for i, s := range p.PendingExternalStakingTxs {
		if !s.Amount.Equal(event.Amount) || !s.ExternalAddress.Equal(addr) {
			continue
		}
		p.PendingExternalStakingTxs = append(
			p.PendingExternalStakingTxs[:i],
			p.PendingExternalStakingTxs[i+1:]...,
		)
		p.ExternalStakingEvents = append(p.ExternalStakingEvents, ConfirmedExternalStakeEvent{
			PendingEvent: s,
			Event:        eventO,
			Tx:           event,
		})
		return true
	}
	return false
}

// handleStakeRequests routes every stake-bearing output of an internal
// transaction. A malformed output aborts only itself.
func (p *Events) handleStakeRequests(event AddressEvent, time int64, tx *types.LedgerTransaction) error {
	amount := types.Zero(types.CurrencyNative)
	for _, a := range p.AllPartyAddresses() {
		if a.Currency == types.CurrencyNative {
			amount = amount.Add(tx.OutputAmountTo(a))
		}
	}

	for _, req := range tx.StakeRequests() {
		switch {
		case req.Request.Deposit != nil && req.Request.Deposit.ExternalAddress != nil:
			p.handleExternalLiquidityDeposit(event, tx, req.Request.Deposit, req.UtxoID)
		case req.Request.Deposit != nil:
			p.internalLiquidityStake(event, tx, amount, req.UtxoID)
		case req.Request.Withdrawal != nil:
			if err := p.processStakeWithdrawal(event, tx, req.Request.Withdrawal, time, req.UtxoID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Events) handleExternalLiquidityDeposit(
	event AddressEvent,
	tx *types.LedgerTransaction,
	deposit *types.StakeDeposit,
	utxoID types.UtxoID,
) {
	if deposit.ExternalAmount == nil || deposit.ExternalAddress == nil {
		return
	}
	p.PendingExternalStakingTxs = append(p.PendingExternalStakingTxs, PendingExternalStakeEvent{
		Event:            event,
		Tx:               tx,
		Amount:           *deposit.ExternalAmount,
		ExternalAddress:  *deposit.ExternalAddress,
		ExternalCurrency: deposit.ExternalAmount.Currency,
		UtxoID:           utxoID,
	})
}

func (p *Events) internalLiquidityStake(
	event AddressEvent,
	tx *types.LedgerTransaction,
	amount types.Amount,
	utxoID types.UtxoID,
) {
	if !amount.IsPositive() || !MeetsMinimumStake(amount) {
		return
	}
	if tx.FirstSignerAddress == nil {
		return
	}
	p.InternalStakingEvents = append(p.InternalStakingEvents, InternalStakeEvent{
		Event:             event,
		Tx:                tx,
		Amount:            amount,
		WithdrawalAddress: *tx.FirstSignerAddress,
		UtxoID:            utxoID,
	})
}

// processStakeWithdrawal matches a withdrawal request against the confirmed
// stake whose originating UTXO it spends, computes the withdrawable amount
// under the reserve rules, and files a fulfillment order. Requests that yield
// no fulfillment are recorded as rejected.
func (p *Events) processStakeWithdrawal(
	event AddressEvent,
	tx *types.LedgerTransaction,
	withdrawal *types.StakeWithdrawal,
	time int64,
	id types.UtxoID,
) error {
	if withdrawal.Destination == nil {
		p.RejectedStakeWithdrawals = append(p.RejectedStakeWithdrawals, event)
		return nil
	}
	dest := *withdrawal.Destination
	wCurrency := dest.Currency

	var staked *types.Amount
	if wCurrency == types.CurrencyNative {
		staked = p.retainInternalStake(tx.InputUtxoIDs)
	} else {
		staked = p.retainExternalStake(tx.InputUtxoIDs, wCurrency)
	}

	if staked != nil {
		if orderAmt := p.withdrawableAmount(*staked); orderAmt != nil {
			p.fulfillOrder(*orderAmt, false, time, nil, dest, true, event, &id, wCurrency)
		}
	}

	if p.eventFulfillment == nil {
		p.RejectedStakeWithdrawals = append(p.RejectedStakeWithdrawals, event)
		return nil
	}

	of := p.eventFulfillment
	isExternal := of.IsStakeWithdrawal && dest.Currency != types.CurrencyNative
	p.PendingStakeWithdrawals = append(p.PendingStakeWithdrawals, PendingWithdrawalStakeEvent{
		Address:         dest,
		Amount:          of.FulfilledCurrencyAmount(),
		InitiatingEvent: event,
		IsExternal:      isExternal,
		UtxoID:          id,
	})
	po := PendingOrder{Order: *of, Event: event}
	if isExternal {
		p.UnfulfilledExternalWithdrawals = append(p.UnfulfilledExternalWithdrawals, po)
	} else {
		p.UnfulfilledNativeOrders = append(p.UnfulfilledNativeOrders, po)
	}
	return nil
}

// withdrawableAmount applies the reserve rule: the confirmed balance less the
// minimum stake and twice the expected fee must still clear the minimum; the
// order is the smaller of that remainder and the staked amount. Off mainnet a
// drained reserve still pays out what fee headroom allows.
func (p *Events) withdrawableAmount(staked types.Amount) *types.Amount {
	existing, ok := p.BalanceMap[staked.Currency]
	if !ok {
		return nil
	}
	minimum, ok := MinimumStakeAmount(staked.Currency)
	if !ok {
		minimum = types.Zero(staked.Currency)
	}
	fee, ok := ExpectedFeeAmount(staked.Currency, p.Network)
	if !ok {
		return nil
	}

	remainder := existing.Sub(minimum).Sub(fee.MulInt(2))
	if remainder.GT(minimum) {
		order := remainder
		if staked.LT(order) {
			order = staked
		}
		return &order
	}
	if !p.Network.IsMain() {
		reduced := existing.Sub(fee.MulInt(2))
		if reduced.GT(fee) {
			return &reduced
		}
	}
	return nil
}

func (p *Events) retainInternalStake(utxoIDs []types.UtxoID) *types.Amount {
	for i, s := range p.InternalStakingEvents {
		if !utxoIDContained(utxoIDs, s.UtxoID) {
			continue
		}
		amt := s.Amount
		p.InternalStakingEvents = append(
			p.InternalStakingEvents[:i],
			p.InternalStakingEvents[i+1:]...,
		)
		return &amt
	}
	return nil
}

func (p *Events) retainExternalStake(utxoIDs []types.UtxoID, wCurrency types.Currency) *types.Amount {
	for i, s := range p.ExternalStakingEvents {
		if s.PendingEvent.ExternalCurrency != wCurrency {
			continue
		}
		if !utxoIDContained(utxoIDs, s.PendingEvent.UtxoID) {
			continue
		}
		amt := s.PendingEvent.Amount
		p.ExternalStakingEvents = append(
			p.ExternalStakingEvents[:i],
			p.ExternalStakingEvents[i+1:]...,
		)
		return &amt
	}
	return nil
}

func utxoIDContained(ids []types.UtxoID, target types.UtxoID) bool {
	for _, u := range ids {
		if u.Equal(target) {
			return true
		}
	}
	return false
}
