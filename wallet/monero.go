package wallet

import (
	"context"

	"github.com/quorumnet/partyd/types"
)

// MultisigWalletRPC is the injected Monero wallet-RPC capability driving the
// prepare/make/exchange/finalize handshake. The concrete RPC client lives
// outside this repository.
type MultisigWalletRPC interface {
	ResetWallet(ctx context.Context) error
	PrepareMultisig(ctx context.Context) (string, error)
	MakeMultisig(ctx context.Context, peerInfo []string, threshold int64) (address, roundInfo string, err error)
	ExchangeMultisigKeys(ctx context.Context, peerInfo []string) (address, roundInfo string, err error)
	FinalizeMultisig(ctx context.Context, peerInfo []string) (address string, err error)
}

// MoneroHandshake drives the Monero multisig flow. Finalize both completes
// key exchange and readies the wallet, so StateFinalized is skipped and
// StateExchanged advances straight to StateReadyToSend.
type MoneroHandshake struct {
	rpc MultisigWalletRPC
}

var _ RoundDriver = (*MoneroHandshake)(nil)

func NewMoneroHandshake(rpc MultisigWalletRPC) *MoneroHandshake {
	return &MoneroHandshake{rpc: rpc}
}

func (m *MoneroHandshake) Advance(ctx context.Context, current State, input RoundInput) (RoundResult, error) {
	switch current {
	case StateUnknown:
		if err := m.rpc.ResetWallet(ctx); err != nil {
			return RoundResult{}, err
		}
		info, err := m.rpc.PrepareMultisig(ctx)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: StatePrepared, Payload: info}, nil

	case StatePrepared:
		if len(input.PeerPayloads) == 0 {
			return RoundResult{}, types.ErrNoInstance.Wrap("make requires peer round info")
		}
		if input.Threshold < 1 {
			return RoundResult{}, types.ErrNoInstance.Wrap("make requires a threshold")
		}
		addr, info, err := m.rpc.MakeMultisig(ctx, input.PeerPayloads, input.Threshold)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: StateMade, Address: moneroAddr(addr), Payload: info}, nil

	case StateMade:
		if len(input.PeerPayloads) == 0 {
			return RoundResult{}, types.ErrNoInstance.Wrap("exchange requires peer round info")
		}
		addr, info, err := m.rpc.ExchangeMultisigKeys(ctx, input.PeerPayloads)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: StateExchanged, Address: moneroAddr(addr), Payload: info}, nil

	case StateExchanged:
		if len(input.PeerPayloads) == 0 {
			return RoundResult{}, types.ErrNoInstance.Wrap("finalize requires peer round info")
		}
		addr, err := m.rpc.FinalizeMultisig(ctx, input.PeerPayloads)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: StateReadyToSend, Address: moneroAddr(addr)}, nil

	default:
		return RoundResult{}, types.ErrWalletFinalized.Wrapf("no round follows %s", current)
	}
}

func (m *MoneroHandshake) Reset(ctx context.Context) error {
	return m.rpc.ResetWallet(ctx)
}

func moneroAddr(render string) *types.Address {
	if render == "" {
		return nil
	}
	a := types.NewAddress(types.CurrencyMonero, render)
	return &a
}
