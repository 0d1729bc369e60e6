package chainclient

import (
	"context"

	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/types"
)

// Disabled is an ExternalNetworkResources that rejects every call. It stands
// in for chains the node is configured not to reach.
type Disabled struct{}

var _ ExternalNetworkResources = Disabled{}

func (Disabled) GetLiveBalance(_ context.Context, addr types.Address) (types.Amount, error) {
	return types.Amount{}, types.ErrUnsupportedNetwork.Wrapf("balance query for %s", addr.Currency)
}

func (Disabled) GetAllTransactions(_ context.Context, _ types.PublicKey, currency types.Currency, _ int64) ([]*types.ExternalTimedTransaction, error) {
	return nil, types.ErrUnsupportedNetwork.Wrapf("transaction query for %s", currency)
}

func (Disabled) Broadcast(_ context.Context, _ types.PublicKey, currency types.Currency, _ []byte) (string, error) {
	return "", types.ErrUnsupportedNetwork.Wrapf("broadcast for %s", currency)
}

func (Disabled) CreateMultisigParty(_ context.Context, req *MultisigCreationRequest, _ PeerBroadcast) (*MultisigCreationResult, error) {
	return nil, types.ErrUnsupportedNetwork.Wrapf("multisig creation for %s", req.Currency)
}

func (Disabled) QueryPrice(_ context.Context, _ int64, currency types.Currency) (float64, error) {
	return 0, types.ErrUnsupportedNetwork.Wrapf("price query for %s", currency)
}

// DisabledPeers is a PeerBroadcast for nodes without peer connectivity
// configured.
type DisabledPeers struct{}

var _ PeerBroadcast = DisabledPeers{}

func (DisabledPeers) SendToPeers(_ context.Context, round string, _ string) error {
	return types.ErrUnsupportedNetwork.Wrapf("peer broadcast for round %s", round)
}

func (DisabledPeers) CollectFromPeers(_ context.Context, round string, _ int) ([]string, error) {
	return nil, types.ErrUnsupportedNetwork.Wrapf("peer collection for round %s", round)
}

// DisabledLedger is a LedgerQuery for nodes without a ledger endpoint
// configured.
type DisabledLedger struct{}

var _ LedgerQuery = DisabledLedger{}

func (DisabledLedger) GetPartyTransactions(_ context.Context, addr types.Address, _ int64) ([]*party.TransactionWithObservations, error) {
	return nil, types.ErrUnsupportedNetwork.Wrapf("ledger query for %s", addr.Render)
}
