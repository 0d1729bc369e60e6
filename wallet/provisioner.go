package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/quorumnet/partyd/types"
)

// DefaultRoundDeadline bounds one round operation; a round still running at
// the deadline is aborted and the wallet reset.
const DefaultRoundDeadline = 120 * time.Second

// RoundInput is the peer material one round operation consumes.
type RoundInput struct {
	PeerPayloads []string
	Threshold    int64
}

// RoundResult is what a driver produced: the stage reached, the custody
// address once known, and the payload the peers need for their next round.
type RoundResult struct {
	State   State
	Address *types.Address
	Payload string
}

// RoundDriver is the chain-specific handshake contract. Advance performs the
// single round operation that follows current and reports the stage reached.
// Reset discards all partial local wallet state; an aborted handshake starts
// over from StateUnknown.
type RoundDriver interface {
	Advance(ctx context.Context, current State, input RoundInput) (RoundResult, error)
	Reset(ctx context.Context) error
}

// Provisioner owns the provisioning state of one (wallet, currency) pair and
// serializes round operations over it. A second request while one is in
// flight is rejected rather than queued.
type Provisioner struct {
	logger   *zap.Logger
	driver   RoundDriver
	deadline time.Duration

	busy *atomic.Bool

	// mu guards the wallet context below.
	mu      sync.Mutex
	state   State
	address *types.Address
	payload string
}

func NewProvisioner(logger *zap.Logger, driver RoundDriver, deadline time.Duration) *Provisioner {
	if deadline <= 0 {
		deadline = DefaultRoundDeadline
	}
	return &Provisioner{
		logger:   logger,
		driver:   driver,
		deadline: deadline,
		busy:     atomic.NewBool(false),
	}
}

// State returns the stage reached so far.
func (p *Provisioner) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Address returns the provisioned custody address once one is known.
func (p *Provisioner) Address() (types.Address, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.address == nil {
		return types.Address{}, false
	}
	return *p.address, true
}

// Payload returns the round payload the peers need next.
func (p *Provisioner) Payload() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payload
}

// Advance performs exactly one round operation under the deadline. A failed
// or expired round aborts the handshake back to StateUnknown; a completed
// wallet rejects further rounds.
func (p *Provisioner) Advance(ctx context.Context, input RoundInput) (RoundResult, error) {
	if p.busy.Swap(true) {
		return RoundResult{}, types.ErrProvisionBusy.Wrap("a round operation is already in flight")
	}
	defer p.busy.Store(false)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateReadyToSend {
		return RoundResult{}, types.ErrWalletFinalized.Wrap("handshake already complete")
	}

	rctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	current := p.state
	res, err := p.driver.Advance(rctx, current, input)
	if err != nil {
		p.abortLocked()
		if errors.Is(err, context.DeadlineExceeded) {
			return RoundResult{}, types.ErrProvisionDeadline.Wrapf("round after %s exceeded %s", current, p.deadline)
		}
		return RoundResult{}, err
	}
	if res.State <= current {
		p.abortLocked()
		return RoundResult{}, types.ErrStateRegression.Wrapf("driver returned %s from %s", res.State, current)
	}

	p.state = res.State
	if res.Address != nil {
		p.address = res.Address
	}
	p.payload = res.Payload

	p.logger.Debug(
		"provisioning round complete",
		zap.String("from", current.String()),
		zap.String("to", res.State.String()),
	)
	return res, nil
}

// Abort discards the handshake so a fresh attempt can start from
// StateUnknown.
func (p *Provisioner) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abortLocked()
}

func (p *Provisioner) abortLocked() {
	if err := p.driver.Reset(context.Background()); err != nil {
		p.logger.Warn("wallet reset failed during abort", zap.Error(err))
	}
	p.state = StateUnknown
	p.address = nil
	p.payload = ""
}

// PeerGather exchanges the local round payload with the party membership and
// returns the peers' payloads for the next round.
type PeerGather func(ctx context.Context, s State, payload string) ([]string, error)

// Provision drives the handshake to completion, gathering peer payloads
// between rounds. It returns the provisioned custody address.
func (p *Provisioner) Provision(ctx context.Context, threshold int64, gather PeerGather) (types.Address, error) {
	input := RoundInput{Threshold: threshold}
	for {
		res, err := p.Advance(ctx, input)
		if err != nil {
			return types.Address{}, err
		}
		if res.State == StateReadyToSend {
			addr, ok := p.Address()
			if !ok {
				p.Abort()
				return types.Address{}, types.ErrNoInstance.Wrap("handshake completed without an address")
			}
			return addr, nil
		}

		input = RoundInput{Threshold: threshold}
		if res.Payload != "" && gather != nil {
			peers, err := gather(ctx, res.State, res.Payload)
			if err != nil {
				p.Abort()
				return types.Address{}, err
			}
			input.PeerPayloads = peers
		}
	}
}
