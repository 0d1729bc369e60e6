package types

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// Network is the deployment environment. Fee schedules and some
// reconciliation rules differ between mainnet and the test environments.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
)

func (n Network) IsMain() bool {
	return n == NetworkMainnet
}

// BtcParams maps the network to Bitcoin chain parameters for address
// validation.
func (n Network) BtcParams() *chaincfg.Params {
	switch n {
	case NetworkMainnet:
		return &chaincfg.MainNetParams
	case NetworkTestnet:
		return &chaincfg.TestNet3Params
	case NetworkDevnet:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.RegressionNetParams
	}
}

func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkMainnet, NetworkTestnet, NetworkDevnet:
		return Network(s), nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}
