package chainclient

import (
	"context"

	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/types"
)

// MultisigCreationRequest carries everything an external multisig tool needs
// to produce a shared custody address for one currency.
type MultisigCreationRequest struct {
	Currency  types.Currency
	Network   types.Network
	SelfKey   types.PublicKey
	Members   []types.PublicKey
	Threshold int64
	Seed      []byte
}

// MultisigCreationResult is the provisioned address plus the tool-specific
// secret material the node must retain to co-sign.
type MultisigCreationResult struct {
	Address    types.Address
	SecretJSON string
}

// ExternalNetworkResources is the narrow capability surface onto the foreign
// chains. Implementations live outside this repository; everything here is
// consumed behind this interface so the engine never links chain RPC clients.
type ExternalNetworkResources interface {
	// GetLiveBalance returns the confirmed spendable balance of addr on its
	// own chain.
	GetLiveBalance(ctx context.Context, addr types.Address) (types.Amount, error)

	// GetAllTransactions returns every transaction touching the address
	// derived from key on the given chain, observed at or after startTime.
	GetAllTransactions(ctx context.Context, key types.PublicKey, currency types.Currency, startTime int64) ([]*types.ExternalTimedTransaction, error)

	// Broadcast submits a signed raw transaction and returns its id.
	Broadcast(ctx context.Context, key types.PublicKey, currency types.Currency, payload []byte) (string, error)

	// CreateMultisigParty drives an externally-delegated multisig creation
	// (contract deployment or tool invocation) in one request. A nil result
	// with nil error means the tool declined, to be retried later.
	CreateMultisigParty(ctx context.Context, req *MultisigCreationRequest, peers PeerBroadcast) (*MultisigCreationResult, error)

	// QueryPrice returns the USD oracle price of currency at the given time.
	QueryPrice(ctx context.Context, time int64, currency types.Currency) (float64, error)
}

// PeerBroadcast exchanges provisioning round payloads with the rest of the
// party membership. Rounds are identified by an opaque label so concurrent
// provisioning runs for different currencies do not cross wires.
type PeerBroadcast interface {
	SendToPeers(ctx context.Context, round string, payload string) error

	// CollectFromPeers blocks until expected peer payloads for the round
	// arrived or ctx is done.
	CollectFromPeers(ctx context.Context, round string, expected int) ([]string, error)
}

// LedgerQuery returns stake/swap-bearing internal transactions for a custody
// address together with their acceptance observation proofs.
type LedgerQuery interface {
	GetPartyTransactions(ctx context.Context, addr types.Address, startTime int64) ([]*party.TransactionWithObservations, error)
}
