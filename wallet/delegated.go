package wallet

import (
	"context"
	"sync"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/types"
)

// ExternalToolDelegated collapses the whole handshake into one multisig
// creation request against an external tool (an Ethereum Safe deployment, a
// Solana Squads vault). The only transition is Unknown to ReadyToSend.
type ExternalToolDelegated struct {
	resources chainclient.ExternalNetworkResources
	peers     chainclient.PeerBroadcast
	request   *chainclient.MultisigCreationRequest

	mu     sync.Mutex
	secret string
}

var _ RoundDriver = (*ExternalToolDelegated)(nil)

func NewExternalToolDelegated(
	resources chainclient.ExternalNetworkResources,
	peers chainclient.PeerBroadcast,
	request *chainclient.MultisigCreationRequest,
) *ExternalToolDelegated {
	return &ExternalToolDelegated{resources: resources, peers: peers, request: request}
}

func (d *ExternalToolDelegated) Advance(ctx context.Context, current State, input RoundInput) (RoundResult, error) {
	if current != StateUnknown {
		return RoundResult{}, types.ErrWalletFinalized.Wrapf("delegated creation has no round after %s", current)
	}

	req := *d.request
	if input.Threshold >= 1 {
		req.Threshold = input.Threshold
	}
	res, err := d.resources.CreateMultisigParty(ctx, &req, d.peers)
	if err != nil {
		return RoundResult{}, err
	}
	if res == nil {
		// The tool declined; the formation controller retries next tick.
		return RoundResult{}, chainclient.Expected(types.ErrNoInstance.Wrapf("multisig tool declined %s creation", req.Currency))
	}

	d.mu.Lock()
	d.secret = res.SecretJSON
	d.mu.Unlock()

	addr := res.Address
	return RoundResult{State: StateReadyToSend, Address: &addr}, nil
}

func (d *ExternalToolDelegated) Reset(context.Context) error {
	d.mu.Lock()
	d.secret = ""
	d.mu.Unlock()
	return nil
}

// Secret returns the tool-specific co-signing material from the last
// successful creation.
func (d *ExternalToolDelegated) Secret() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.secret
}
