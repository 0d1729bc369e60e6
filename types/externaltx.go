package types

// ExternalTimedTransaction is a transaction observed on a foreign chain that
// touches one of the party's custody addresses. It is produced by the
// out-of-scope chain observers and consumed by the reconciliation stream.
type ExternalTimedTransaction struct {
	TxID      string   `json:"tx_id"`
	Timestamp int64    `json:"timestamp"`
	Currency  Currency `json:"currency"`
	// OtherAddress is the counterparty address: the sender for incoming
	// transactions, the recipient for outgoing ones.
	OtherAddress string `json:"other_address"`
	// OtherOutputAddresses lists every non-self output address for
	// multi-output transactions.
	OtherOutputAddresses []string `json:"other_output_addresses,omitempty"`
	Amount               Amount   `json:"amount"`
	Incoming             bool     `json:"incoming"`
	// PriceUSD is the oracle USD price of Currency at observation time,
	// zero when no snapshot was available.
	PriceUSD float64 `json:"price_usd,omitempty"`
	Fee      *Amount `json:"fee,omitempty"`
}

// OtherAddressTyped returns the counterparty as a currency-tagged address.
func (t *ExternalTimedTransaction) OtherAddressTyped() Address {
	return NewAddress(t.Currency, t.OtherAddress)
}

// BalanceChange is the unsigned magnitude of the reserve change this
// transaction causes; outgoing transactions also spend their fee. Callers
// apply the direction.
func (t *ExternalTimedTransaction) BalanceChange() Amount {
	if t.Incoming {
		return t.Amount
	}
	fee := Zero(t.Currency)
	if t.Fee != nil {
		fee = *t.Fee
	}
	return t.Amount.Add(fee)
}
