package types

import (
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
)

// Amount is a signed fixed-point quantity tagged with a currency.
//
// Native-asset, Bitcoin, Monero and Solana amounts are plain int64 values in
// the currency's minor unit. Ethereum amounts are wei-denominated arbitrary
// precision integers because magnitudes can exceed 64 bits. All arithmetic
// dispatches on the currency tag; mixing currencies is a programming error
// and panics rather than silently converting.
type Amount struct {
	Currency Currency `json:"currency"`
	// Value is the minor-unit quantity for int64 currencies.
	Value int64 `json:"value,omitempty"`
	// BigValue is the wei-denominated quantity for big-int currencies,
	// serialized as a decimal string.
	BigValue sdkmath.Int `json:"big_value,omitempty"`
}

// Zero returns the zero amount of the given currency.
func Zero(c Currency) Amount {
	if c.UsesBigInt() {
		return Amount{Currency: c, BigValue: sdkmath.ZeroInt()}
	}
	return Amount{Currency: c}
}

// FromInt64 builds an amount from a minor-unit quantity of an int64 currency.
func FromInt64(v int64, c Currency) Amount {
	if c.UsesBigInt() {
		return Amount{Currency: c, BigValue: sdkmath.NewInt(v).Mul(sdkmath.NewInt(EthDecimalOffset))}
	}
	return Amount{Currency: c, Value: v}
}

// FromBitcoinSats builds a Bitcoin amount from satoshis.
func FromBitcoinSats(sats int64) Amount {
	return Amount{Currency: CurrencyBitcoin, Value: sats}
}

// FromFractional converts a whole-unit float into a fixed-point amount.
func FromFractional(v float64, c Currency) (Amount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}, fmt.Errorf("invalid fractional amount %v for %s", v, c)
	}
	if c.UsesBigInt() {
		// Scale through the 1e8 basis to avoid float64 precision loss at 1e18.
		scaled := sdkmath.NewInt(int64(v * float64(DecimalMultiplier)))
		return Amount{Currency: c, BigValue: scaled.Mul(sdkmath.NewInt(EthDecimalOffset))}, nil
	}
	return Amount{Currency: c, Value: int64(v * float64(c.DecimalBasis()))}, nil
}

// FromEthString builds an Ethereum amount from a decimal wei string.
func FromEthString(wei string) (Amount, error) {
	i, ok := sdkmath.NewIntFromString(wei)
	if !ok {
		return Amount{}, fmt.Errorf("invalid wei string %q", wei)
	}
	return Amount{Currency: CurrencyEthereum, BigValue: i}, nil
}

// MustFromFractional is FromFractional for statically known constants.
func MustFromFractional(v float64, c Currency) Amount {
	a, err := FromFractional(v, c)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) assertSameCurrency(b Amount, op string) {
	if a.Currency != b.Currency {
		panic(fmt.Sprintf("amount %s across currencies: %s vs %s", op, a.Currency, b.Currency))
	}
}

// big returns BigValue with a nil inner pointer normalized to zero. A
// zero-valued or JSON-decoded Amount without big_value carries a nil
// sdkmath.Int, which the sdkmath operations dereference.
func (a Amount) big() sdkmath.Int {
	if a.BigValue.IsNil() {
		return sdkmath.ZeroInt()
	}
	return a.BigValue
}

// I64 returns the amount in the shared 1e8 fixed-point basis. Big-int
// currencies are offset-divided down to that basis; quantities outside the
// int64 range after division saturate to zero, matching the treatment of an
// unrepresentable quantity as economically absent rather than truncated.
func (a Amount) I64() int64 {
	if a.Currency.UsesBigInt() {
		offset := a.big().Quo(sdkmath.NewInt(EthDecimalOffset))
		if !offset.IsInt64() {
			return 0
		}
		return offset.Int64()
	}
	return a.Value
}

// ToFractional returns the amount in whole currency units.
func (a Amount) ToFractional() float64 {
	if a.Currency.UsesBigInt() {
		offset := a.big().Quo(sdkmath.NewInt(EthDecimalOffset))
		if !offset.IsInt64() {
			return 0
		}
		return float64(offset.Int64()) / float64(DecimalMultiplier)
	}
	return float64(a.Value) / float64(a.Currency.DecimalBasis())
}

func (a Amount) Add(b Amount) Amount {
	a.assertSameCurrency(b, "add")
	if a.Currency.UsesBigInt() {
		return Amount{Currency: a.Currency, BigValue: a.big().Add(b.big())}
	}
	return Amount{Currency: a.Currency, Value: a.Value + b.Value}
}

func (a Amount) Sub(b Amount) Amount {
	a.assertSameCurrency(b, "sub")
	if a.Currency.UsesBigInt() {
		return Amount{Currency: a.Currency, BigValue: a.big().Sub(b.big())}
	}
	return Amount{Currency: a.Currency, Value: a.Value - b.Value}
}

// MulInt scales the amount by a dimensionless integer factor.
func (a Amount) MulInt(n int64) Amount {
	if a.Currency.UsesBigInt() {
		return Amount{Currency: a.Currency, BigValue: a.big().Mul(sdkmath.NewInt(n))}
	}
	return Amount{Currency: a.Currency, Value: a.Value * n}
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return a.MulInt(-1)
}

// Cmp returns -1, 0 or 1 comparing a against b of the same currency.
func (a Amount) Cmp(b Amount) int {
	a.assertSameCurrency(b, "compare")
	if a.Currency.UsesBigInt() {
		switch {
		case a.big().LT(b.big()):
			return -1
		case a.big().GT(b.big()):
			return 1
		default:
			return 0
		}
	}
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	default:
		return 0
	}
}

func (a Amount) GTE(b Amount) bool { return a.Cmp(b) >= 0 }
func (a Amount) GT(b Amount) bool  { return a.Cmp(b) > 0 }
func (a Amount) LT(b Amount) bool  { return a.Cmp(b) < 0 }

func (a Amount) IsZero() bool {
	if a.Currency.UsesBigInt() {
		return a.BigValue.IsNil() || a.BigValue.IsZero()
	}
	return a.Value == 0
}

func (a Amount) IsPositive() bool {
	if a.Currency.UsesBigInt() {
		return !a.BigValue.IsNil() && a.BigValue.IsPositive()
	}
	return a.Value > 0
}

// Equal reports exact equality including the currency tag. Unlike the
// arithmetic operations it tolerates differing currencies, returning false,
// because set-membership matching across event sources needs a total check.
func (a Amount) Equal(b Amount) bool {
	if a.Currency != b.Currency {
		return false
	}
	return a.Cmp(b) == 0
}

func (a Amount) String() string {
	if a.Currency.UsesBigInt() {
		if a.BigValue.IsNil() {
			return fmt.Sprintf("0 %s", a.Currency.Abbreviated())
		}
		return fmt.Sprintf("%s wei %s", a.BigValue.String(), a.Currency.Abbreviated())
	}
	return fmt.Sprintf("%d %s", a.Value, a.Currency.Abbreviated())
}
