package wallet

import (
	"context"

	"github.com/quorumnet/partyd/types"
)

// KeygenSession is one run of a round-based threshold ECDSA key generation.
// Start emits the local commitment, Step consumes the peers' payloads for
// one round and emits the next, and Finish derives the shared address once
// all rounds are done.
type KeygenSession interface {
	Start(ctx context.Context, threshold int64) (string, error)
	Step(ctx context.Context, peerPayloads []string) (string, error)
	Finish(ctx context.Context) (types.Address, error)
	Abort(ctx context.Context) error
}

// EcdsaRoundBased maps a three-round keygen onto the wallet stages. The
// final stage needs no peer input.
type EcdsaRoundBased struct {
	session KeygenSession
}

var _ RoundDriver = (*EcdsaRoundBased)(nil)

func NewEcdsaRoundBased(session KeygenSession) *EcdsaRoundBased {
	return &EcdsaRoundBased{session: session}
}

func (e *EcdsaRoundBased) Advance(ctx context.Context, current State, input RoundInput) (RoundResult, error) {
	switch current {
	case StateUnknown:
		if input.Threshold < 1 {
			return RoundResult{}, types.ErrNoInstance.Wrap("keygen requires a threshold")
		}
		payload, err := e.session.Start(ctx, input.Threshold)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: StatePrepared, Payload: payload}, nil

	case StatePrepared, StateMade, StateExchanged:
		if len(input.PeerPayloads) == 0 {
			return RoundResult{}, types.ErrNoInstance.Wrapf("keygen round after %s requires peer payloads", current)
		}
		payload, err := e.session.Step(ctx, input.PeerPayloads)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: current + 1, Payload: payload}, nil

	case StateFinalized:
		addr, err := e.session.Finish(ctx)
		if err != nil {
			return RoundResult{}, err
		}
		return RoundResult{State: StateReadyToSend, Address: &addr}, nil

	default:
		return RoundResult{}, types.ErrWalletFinalized.Wrapf("no round follows %s", current)
	}
}

func (e *EcdsaRoundBased) Reset(ctx context.Context) error {
	return e.session.Abort(ctx)
}
