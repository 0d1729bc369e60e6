package types

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Address is a currency-tagged destination on some chain. The string form is
// the chain's canonical rendering (bech32/base58 for Bitcoin, checksummed hex
// for Ethereum, the network's own encoding for the native asset).
type Address struct {
	Currency Currency `json:"currency"`
	Render   string   `json:"render"`
}

func NewAddress(c Currency, render string) Address {
	if c == CurrencyEthereum && ethcommon.IsHexAddress(render) {
		render = ethcommon.HexToAddress(render).Hex()
	}
	return Address{Currency: c, Render: render}
}

// Validate checks the rendering against the chain's address rules. Bitcoin
// addresses decode through btcutil against the given network params; Ethereum
// through go-ethereum's hex address check. Other chains get shape checks only
// since their full decoding rules live with the out-of-scope RPC clients.
func (a Address) Validate(btcParams *chaincfg.Params) error {
	if a.Render == "" {
		return fmt.Errorf("empty address for %s", a.Currency)
	}
	switch a.Currency {
	case CurrencyBitcoin:
		if btcParams == nil {
			btcParams = &chaincfg.MainNetParams
		}
		if _, err := btcutil.DecodeAddress(a.Render, btcParams); err != nil {
			return fmt.Errorf("invalid bitcoin address %s: %w", a.Render, err)
		}
	case CurrencyEthereum:
		if !ethcommon.IsHexAddress(a.Render) {
			return fmt.Errorf("invalid ethereum address %s", a.Render)
		}
	case CurrencyMonero:
		if len(a.Render) < 95 {
			return fmt.Errorf("invalid monero address %s", a.Render)
		}
	case CurrencySolana:
		if len(a.Render) < 32 || len(a.Render) > 44 {
			return fmt.Errorf("invalid solana address %s", a.Render)
		}
	}
	return nil
}

// Matches compares two renderings for identity, case-insensitively for
// Ethereum where mixed-case checksummed and lowercase forms coexist.
func (a Address) Matches(render string) bool {
	if a.Currency == CurrencyEthereum {
		return strings.EqualFold(a.Render, render)
	}
	return a.Render == render
}

func (a Address) Equal(b Address) bool {
	return a.Currency == b.Currency && a.Matches(b.Render)
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%s", a.Currency.Abbreviated(), a.Render)
}
