package party

import (
	"github.com/quorumnet/partyd/types"
)

// TransactionWithObservations is an internal ledger transaction together with
// the observation proofs collected for it and an optional USD price snapshot
// of the transaction's external destination currency at event time.
type TransactionWithObservations struct {
	Tx           *types.LedgerTransaction `json:"tx"`
	Observations []types.ObservationProof `json:"observations,omitempty"`
	PriceUSD     float64                  `json:"price_usd,omitempty"`
}

// AddressEvent is one event touching a party address: either a transaction
// observed on a foreign chain or an internal ledger transaction. Exactly one
// of the two fields is set.
type AddressEvent struct {
	External *types.ExternalTimedTransaction `json:"external,omitempty"`
	Internal *TransactionWithObservations    `json:"internal,omitempty"`
}

func NewExternalEvent(t *types.ExternalTimedTransaction) AddressEvent {
	return AddressEvent{External: t}
}

func NewInternalEvent(t *TransactionWithObservations) AddressEvent {
	return AddressEvent{Internal: t}
}

// Identifier is the event's transaction id or ledger hash.
func (e AddressEvent) Identifier() string {
	if e.External != nil {
		return e.External.TxID
	}
	if e.Internal != nil {
		return e.Internal.Tx.Hash
	}
	return ""
}

// Currency is the currency the event counts against: the chain currency for
// external events, the native asset for internal ones.
func (e AddressEvent) Currency() types.Currency {
	if e.External != nil {
		return e.External.Currency
	}
	return types.CurrencyNative
}

// ExternalCurrency is the foreign currency this event prices, if any: the
// chain currency for external events, the declared external destination for
// internal ones.
func (e AddressEvent) ExternalCurrency() (types.Currency, bool) {
	if e.External != nil {
		return e.External.Currency, true
	}
	if e.Internal != nil {
		return e.Internal.Tx.ExternalDestinationCurrency()
	}
	return types.CurrencyUnknown, false
}

// USDEventPrice is the oracle USD price snapshot attached to the event.
func (e AddressEvent) USDEventPrice() (float64, bool) {
	var p float64
	if e.External != nil {
		p = e.External.PriceUSD
	} else if e.Internal != nil {
		p = e.Internal.PriceUSD
	}
	return p, p != 0
}

// Time resolves the event's effective time. External events carry their own
// chain timestamp. Internal events average the times of accepted live
// observations signed by seed nodes, falling back to the transaction's own
// time when no seed observation qualifies.
func (e AddressEvent) Time(seeds []types.PublicKey) (int64, bool) {
	if e.External != nil {
		return e.External.Timestamp, e.External.Timestamp != 0
	}
	if e.Internal == nil {
		return 0, false
	}
	var sum int64
	var n int64
	for _, o := range e.Internal.Observations {
		if !o.Accepted || !o.Live {
			continue
		}
		if !types.ContainsKey(seeds, o.ObserverKey) {
			continue
		}
		sum += o.Time
		n++
	}
	if n == 0 {
		return e.Internal.Tx.Time, e.Internal.Tx.Time != 0
	}
	avg := sum / n
	if avg == 0 {
		return 0, false
	}
	return avg, true
}

// SameEvent reports whether two events refer to the same underlying
// transaction, matching kind and identifier.
func (e AddressEvent) SameEvent(o AddressEvent) bool {
	if (e.External != nil) != (o.External != nil) {
		return false
	}
	return e.Identifier() == o.Identifier()
}
