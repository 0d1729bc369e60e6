package types

import "fmt"

// Currency identifies one of the asset types the custody engine can hold.
type Currency int32

const (
	CurrencyUnknown Currency = iota
	// CurrencyNative is the settlement network's own asset.
	CurrencyNative
	CurrencyBitcoin
	CurrencyEthereum
	CurrencyMonero
	CurrencySolana
	// CurrencyUSD is only used as a pricing estimate denomination,
	// never as a custodied reserve.
	CurrencyUSD
)

const (
	// Sat-style 1e8 fixed point used by the native asset and Bitcoin.
	DecimalMultiplier int64 = 1e8
	// Monero atomic units.
	PicoDecimalMultiplier int64 = 1e12
	// Solana lamports.
	NanoDecimalMultiplier int64 = 1e9
)

// EthDecimalOffset scales a wei-denominated big integer down to the 1e8
// fixed-point basis shared by the int64 currencies: 1e18 / 1e10 = 1e8.
const EthDecimalOffset int64 = 1e10

func (c Currency) String() string {
	switch c {
	case CurrencyNative:
		return "native"
	case CurrencyBitcoin:
		return "bitcoin"
	case CurrencyEthereum:
		return "ethereum"
	case CurrencyMonero:
		return "monero"
	case CurrencySolana:
		return "solana"
	case CurrencyUSD:
		return "usd"
	default:
		return fmt.Sprintf("unknown(%d)", int32(c))
	}
}

// Abbreviated returns the ticker-style label used for metrics.
func (c Currency) Abbreviated() string {
	switch c {
	case CurrencyNative:
		return "NAT"
	case CurrencyBitcoin:
		return "BTC"
	case CurrencyEthereum:
		return "ETH"
	case CurrencyMonero:
		return "XMR"
	case CurrencySolana:
		return "SOL"
	case CurrencyUSD:
		return "USD"
	default:
		return "UNK"
	}
}

// UsesBigInt reports whether amounts of this currency exceed the range an
// int64 can safely represent and must be carried as arbitrary precision.
func (c Currency) UsesBigInt() bool {
	return c == CurrencyEthereum
}

// DecimalBasis returns the fixed-point multiplier for int64 currencies.
func (c Currency) DecimalBasis() int64 {
	switch c {
	case CurrencyMonero:
		return PicoDecimalMultiplier
	case CurrencySolana:
		return NanoDecimalMultiplier
	default:
		return DecimalMultiplier
	}
}

// MultisigPartyCurrencies is the set of foreign currencies for which a party
// provisions a threshold custody address.
func MultisigPartyCurrencies() []Currency {
	return []Currency{CurrencyBitcoin, CurrencyEthereum, CurrencyMonero, CurrencySolana}
}

// ContractFeeCurrencies are the currencies whose multisig setup requires an
// on-chain contract deployment and therefore a funded proposer balance.
func ContractFeeCurrencies() []Currency {
	return []Currency{CurrencyEthereum, CurrencySolana}
}
