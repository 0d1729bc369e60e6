package types

// UtxoID identifies one output of a ledger transaction.
type UtxoID struct {
	TxHash string `json:"tx_hash"`
	Index  int32  `json:"index"`
}

func (u UtxoID) Equal(o UtxoID) bool {
	return u.TxHash == o.TxHash && u.Index == o.Index
}

// ObservationProof is an acceptance attestation for a ledger transaction
// signed by an observing node.
type ObservationProof struct {
	ObserverKey PublicKey `json:"observer_key"`
	Time        int64     `json:"time"`
	// Accepted and Live report the observation metadata state; only
	// accepted live observations count toward event ordering.
	Accepted bool `json:"accepted"`
	Live     bool `json:"live"`
}

// StakeDeposit declares liquidity being committed to the party. A deposit
// naming an external address+amount promises a matching foreign-chain
// transaction; one without is a direct native-asset stake.
type StakeDeposit struct {
	// ExternalAmount and ExternalAddress are set only for external deposits.
	ExternalAmount  *Amount  `json:"external_amount,omitempty"`
	ExternalAddress *Address `json:"external_address,omitempty"`
}

// StakeWithdrawal requests previously staked liquidity back, settled to the
// destination's currency.
type StakeWithdrawal struct {
	Destination *Address `json:"destination,omitempty"`
}

// StakeRequest is the stake-bearing payload attached to a ledger output.
type StakeRequest struct {
	Deposit    *StakeDeposit    `json:"deposit,omitempty"`
	Withdrawal *StakeWithdrawal `json:"withdrawal,omitempty"`
}

// ExternalTxRef references a foreign-chain transaction from a ledger output,
// marking the output as the receipt for an already-settled external leg.
type ExternalTxRef struct {
	Identifier string   `json:"identifier"`
	Currency   Currency `json:"currency"`
}

// StakeWithdrawalFulfillment marks an output as settling a prior stake
// withdrawal request identified by its originating UTXO.
type StakeWithdrawalFulfillment struct {
	RequestUtxoID UtxoID `json:"request_utxo_id"`
}

// LedgerOutput is one output of an internal ledger transaction.
type LedgerOutput struct {
	Address Address `json:"address"`
	Amount  Amount  `json:"amount"`

	StakeRequest               *StakeRequest               `json:"stake_request,omitempty"`
	SwapDestination            *Address                    `json:"swap_destination,omitempty"`
	ExternalTxRef              *ExternalTxRef              `json:"external_tx_ref,omitempty"`
	StakeWithdrawalFulfillment *StakeWithdrawalFulfillment `json:"stake_withdrawal_fulfillment,omitempty"`
}

// LedgerTransaction is an internal settlement-network transaction as returned
// by the out-of-scope ledger query interface.
type LedgerTransaction struct {
	Hash           string         `json:"hash"`
	Time           int64          `json:"time"`
	InputAddresses []Address      `json:"input_addresses"`
	InputUtxoIDs   []UtxoID       `json:"input_utxo_ids"`
	Outputs        []LedgerOutput `json:"outputs"`
	// FirstSignerAddress is the native address of the first input proof's
	// public key, used as the default withdrawal destination for stakes.
	FirstSignerAddress *Address `json:"first_signer_address,omitempty"`
}

// OutputAmountTo sums the native-asset outputs paying the given address.
func (tx *LedgerTransaction) OutputAmountTo(addr Address) Amount {
	total := Zero(CurrencyNative)
	for _, o := range tx.Outputs {
		if o.Address.Equal(addr) && o.Amount.Currency == CurrencyNative {
			total = total.Add(o.Amount)
		}
	}
	return total
}

// OutputAmountExcluding sums native outputs paying anyone but addr.
func (tx *LedgerTransaction) OutputAmountExcluding(addr Address) Amount {
	total := Zero(CurrencyNative)
	for _, o := range tx.Outputs {
		if !o.Address.Equal(addr) && o.Amount.Currency == CurrencyNative {
			total = total.Add(o.Amount)
		}
	}
	return total
}

// SwapDestination returns the first declared swap destination, if any.
func (tx *LedgerTransaction) SwapDestination() *Address {
	for _, o := range tx.Outputs {
		if o.SwapDestination != nil {
			return o.SwapDestination
		}
	}
	return nil
}

// IsStake reports whether any output carries a stake request.
func (tx *LedgerTransaction) IsStake() bool {
	for _, o := range tx.Outputs {
		if o.StakeRequest != nil {
			return true
		}
	}
	return false
}

// StakeRequests returns each stake-bearing output keyed by its UTXO id.
func (tx *LedgerTransaction) StakeRequests() []StakeRequestWithUtxo {
	var reqs []StakeRequestWithUtxo
	for i, o := range tx.Outputs {
		if o.StakeRequest != nil {
			reqs = append(reqs, StakeRequestWithUtxo{
				UtxoID:  UtxoID{TxHash: tx.Hash, Index: int32(i)},
				Request: o.StakeRequest,
			})
		}
	}
	return reqs
}

type StakeRequestWithUtxo struct {
	UtxoID  UtxoID
	Request *StakeRequest
}

// OutputExternalTxRefs returns every foreign-chain receipt reference.
func (tx *LedgerTransaction) OutputExternalTxRefs() []ExternalTxRef {
	var refs []ExternalTxRef
	for _, o := range tx.Outputs {
		if o.ExternalTxRef != nil {
			refs = append(refs, *o.ExternalTxRef)
		}
	}
	return refs
}

// StakeWithdrawalFulfillments returns every withdrawal-settlement marker.
func (tx *LedgerTransaction) StakeWithdrawalFulfillments() []StakeWithdrawalFulfillment {
	var fs []StakeWithdrawalFulfillment
	for _, o := range tx.Outputs {
		if o.StakeWithdrawalFulfillment != nil {
			fs = append(fs, *o.StakeWithdrawalFulfillment)
		}
	}
	return fs
}

// ExternalDestinationCurrency returns the currency of the first external
// destination this transaction names, if any.
func (tx *LedgerTransaction) ExternalDestinationCurrency() (Currency, bool) {
	if d := tx.SwapDestination(); d != nil && d.Currency != CurrencyNative {
		return d.Currency, true
	}
	for _, r := range tx.StakeRequests() {
		if r.Request.Deposit != nil && r.Request.Deposit.ExternalAddress != nil {
			return r.Request.Deposit.ExternalAddress.Currency, true
		}
	}
	return CurrencyUnknown, false
}
