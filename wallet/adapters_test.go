package wallet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/types"
	"github.com/quorumnet/partyd/wallet"
)

type fakeMoneroRPC struct {
	calls  []string
	resets int
}

func (f *fakeMoneroRPC) ResetWallet(context.Context) error {
	f.resets++
	return nil
}

func (f *fakeMoneroRPC) PrepareMultisig(context.Context) (string, error) {
	f.calls = append(f.calls, "prepare")
	return "prepare-info", nil
}

func (f *fakeMoneroRPC) MakeMultisig(_ context.Context, peerInfo []string, threshold int64) (string, string, error) {
	f.calls = append(f.calls, "make")
	if len(peerInfo) == 0 || threshold < 1 {
		return "", "", types.ErrNoInstance.Wrap("bad make input")
	}
	return "", "make-info", nil
}

func (f *fakeMoneroRPC) ExchangeMultisigKeys(_ context.Context, peerInfo []string) (string, string, error) {
	f.calls = append(f.calls, "exchange")
	return "", "exchange-info", nil
}

func (f *fakeMoneroRPC) FinalizeMultisig(_ context.Context, peerInfo []string) (string, error) {
	f.calls = append(f.calls, "finalize")
	return "58moneroAddress", nil
}

func TestMoneroHandshakeSkipsFinalized(t *testing.T) {
	rpc := &fakeMoneroRPC{}
	p := wallet.NewProvisioner(zap.NewNop(), wallet.NewMoneroHandshake(rpc), 0)

	addr, err := p.Provision(context.Background(), 2, func(_ context.Context, _ wallet.State, _ string) ([]string, error) {
		return []string{"peer-info"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, types.CurrencyMonero, addr.Currency)
	require.Equal(t, "58moneroAddress", addr.Render)
	require.Equal(t, wallet.StateReadyToSend, p.State())

	// Finalize runs as the step out of Exchanged; there is no separate
	// finalized round.
	require.Equal(t, []string{"prepare", "make", "exchange", "finalize"}, rpc.calls)
	// One reset from the initial prepare step only.
	require.Equal(t, 1, rpc.resets)
}

func TestMoneroRequiresPeerInfo(t *testing.T) {
	rpc := &fakeMoneroRPC{}
	h := wallet.NewMoneroHandshake(rpc)

	_, err := h.Advance(context.Background(), wallet.StatePrepared, wallet.RoundInput{Threshold: 2})
	require.Error(t, err)
	_, err = h.Advance(context.Background(), wallet.StatePrepared, wallet.RoundInput{PeerPayloads: []string{"x"}})
	require.Error(t, err)
}

type fakeKeygen struct {
	steps int
}

func (f *fakeKeygen) Start(_ context.Context, threshold int64) (string, error) {
	return "commit-0", nil
}

func (f *fakeKeygen) Step(_ context.Context, peerPayloads []string) (string, error) {
	f.steps++
	if f.steps == 3 {
		return "", nil
	}
	return "commit-n", nil
}

func (f *fakeKeygen) Finish(context.Context) (types.Address, error) {
	return types.NewAddress(types.CurrencyBitcoin, "bc1qshared"), nil
}

func (f *fakeKeygen) Abort(context.Context) error { return nil }

func TestEcdsaRoundBasedCompletes(t *testing.T) {
	session := &fakeKeygen{}
	p := wallet.NewProvisioner(zap.NewNop(), wallet.NewEcdsaRoundBased(session), 0)

	addr, err := p.Provision(context.Background(), 2, func(_ context.Context, _ wallet.State, _ string) ([]string, error) {
		return []string{"peer"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "bc1qshared", addr.Render)
	require.Equal(t, 3, session.steps)
}

// fakeTool serves only multisig creation; everything else stays disabled.
type fakeTool struct {
	chainclient.Disabled
	result  *chainclient.MultisigCreationResult
	lastReq *chainclient.MultisigCreationRequest
}

func (f *fakeTool) CreateMultisigParty(_ context.Context, req *chainclient.MultisigCreationRequest, _ chainclient.PeerBroadcast) (*chainclient.MultisigCreationResult, error) {
	f.lastReq = req
	return f.result, nil
}

func TestDelegatedCollapsesToSingleRound(t *testing.T) {
	tool := &fakeTool{result: &chainclient.MultisigCreationResult{
		Address:    types.NewAddress(types.CurrencyEthereum, "0xSafeAddress"),
		SecretJSON: `{"owners":3}`,
	}}
	req := &chainclient.MultisigCreationRequest{Currency: types.CurrencyEthereum, Network: types.NetworkDevnet}
	driver := wallet.NewExternalToolDelegated(tool, nil, req)
	p := wallet.NewProvisioner(zap.NewNop(), driver, 0)

	addr, err := p.Provision(context.Background(), 3, nil)
	require.NoError(t, err)
	require.Equal(t, types.CurrencyEthereum, addr.Currency)
	require.Equal(t, wallet.StateReadyToSend, p.State())
	require.Equal(t, int64(3), tool.lastReq.Threshold)
	require.Equal(t, `{"owners":3}`, driver.Secret())
}

func TestDelegatedDeclinedIsExpected(t *testing.T) {
	tool := &fakeTool{result: nil}
	req := &chainclient.MultisigCreationRequest{Currency: types.CurrencySolana, Network: types.NetworkDevnet}
	p := wallet.NewProvisioner(zap.NewNop(), wallet.NewExternalToolDelegated(tool, nil, req), 0)

	_, err := p.Provision(context.Background(), 2, nil)
	require.Error(t, err)
	require.True(t, chainclient.IsExpected(err))
	require.Equal(t, wallet.StateUnknown, p.State())
}
