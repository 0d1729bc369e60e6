package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/config"
	"github.com/quorumnet/partyd/metrics"
	"github.com/quorumnet/partyd/party"
	"github.com/quorumnet/partyd/store"
	"github.com/quorumnet/partyd/types"
	"github.com/quorumnet/partyd/wallet"
)

// FormationController proposes multisig custody instances for every supported
// currency the party does not hold one for yet. Each tick it checks the
// metadata, verifies setup-fee eligibility where a contract deployment is
// required, and drives the currency's provisioning handshake to completion.
//
// Formation is idempotent: a currency that already has an active instance is
// skipped, and a failed handshake is simply retried on the next tick.
type FormationController struct {
	logger *zap.Logger
	cfg    *config.FormationConfig

	network types.Network
	selfKey types.PublicKey
	members []types.PublicKey

	// feeAddresses are this node's own funded single-sig addresses, used to
	// check that a contract setup fee can actually be paid.
	feeAddresses map[types.Currency]types.Address

	ps        *store.PartyStore
	resources chainclient.ExternalNetworkResources
	peers     chainclient.PeerBroadcast

	// drivers holds the provisioning handshake implementation per currency.
	// A currency without a driver is skipped.
	drivers map[types.Currency]wallet.RoundDriver

	metrics *metrics.PartyMetrics

	isStarted *atomic.Bool
	wg        sync.WaitGroup
	quit      chan struct{}
}

func NewFormationController(
	logger *zap.Logger,
	cfg *config.FormationConfig,
	network types.Network,
	selfKey types.PublicKey,
	members []types.PublicKey,
	feeAddresses map[types.Currency]types.Address,
	ps *store.PartyStore,
	resources chainclient.ExternalNetworkResources,
	peers chainclient.PeerBroadcast,
	drivers map[types.Currency]wallet.RoundDriver,
	pm *metrics.PartyMetrics,
) *FormationController {
	return &FormationController{
		logger:       logger,
		cfg:          cfg,
		network:      network,
		selfKey:      selfKey,
		members:      types.SortPublicKeys(members),
		feeAddresses: feeAddresses,
		ps:           ps,
		resources:    resources,
		peers:        peers,
		drivers:      drivers,
		metrics:      pm,
	}
}

func (fc *FormationController) Start() error {
	if fc.isStarted == nil {
		fc.isStarted = atomic.NewBool(false)
	}
	if fc.isStarted.Swap(true) {
		return fmt.Errorf("the formation controller is already started")
	}

	fc.logger.Info("Starting the formation controller",
		zap.Int("members", len(fc.members)),
		zap.Duration("interval", fc.cfg.FormationInterval))

	fc.quit = make(chan struct{})
	fc.wg.Add(1)
	go fc.formationLoop()

	return nil
}

func (fc *FormationController) Stop() error {
	if fc.isStarted == nil || !fc.isStarted.Swap(false) {
		return fmt.Errorf("the formation controller has already stopped")
	}

	close(fc.quit)
	fc.wg.Wait()

	fc.logger.Info("The formation controller is successfully stopped")

	return nil
}

func (fc *FormationController) formationLoop() {
	defer fc.wg.Done()

	ticker := time.NewTicker(fc.cfg.FormationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := fc.FormMissingInstances(context.Background()); err != nil {
				fc.logger.Error("formation pass failed", zap.Error(err))
			}
		case <-fc.quit:
			fc.logger.Debug("exiting the formation loop")
			return
		}
	}
}

// FormMissingInstances runs one formation pass: every supported currency
// without an active instance gets one provisioning attempt.
func (fc *FormationController) FormMissingInstances(ctx context.Context) error {
	meta, err := fc.ps.GetMetadata()
	if err != nil {
		return fmt.Errorf("failed to load party metadata: %w", err)
	}

	threshold := party.ComputeThreshold(len(fc.members))

	var formed bool
	for _, cur := range types.MultisigPartyCurrencies() {
		if meta.HasInstance(cur) {
			continue
		}
		driver, ok := fc.drivers[cur]
		if !ok {
			continue
		}

		fc.metrics.IncrementFormationAttempts(cur.Abbreviated())

		if err := fc.formInstance(ctx, meta, cur, driver, threshold); err != nil {
			if chainclient.IsExpected(err) {
				fc.logger.Debug("party formation not possible yet",
					zap.String("currency", cur.Abbreviated()),
					zap.Error(err))
				continue
			}
			fc.metrics.IncrementFormationFailures(cur.Abbreviated())
			fc.logger.Warn("party formation failed",
				zap.String("currency", cur.Abbreviated()),
				zap.Error(err))
			continue
		}

		formed = true
		fc.metrics.IncrementFormationCompleted(cur.Abbreviated())
	}

	if !formed {
		return nil
	}

	if err := fc.ps.SaveMetadata(meta); err != nil {
		return fmt.Errorf("failed to persist party metadata: %w", err)
	}

	return fc.upsertSelfPartyData(meta)
}

func (fc *FormationController) formInstance(
	ctx context.Context,
	meta *party.PartyMetadata,
	cur types.Currency,
	driver wallet.RoundDriver,
	threshold int64,
) error {
	if err := fc.checkSetupFeeEligibility(ctx, cur); err != nil {
		return err
	}

	prov := wallet.NewProvisioner(fc.logger, driver, fc.cfg.ProvisionDeadline)
	fc.metrics.RecordProvisioningState(cur.Abbreviated(), int32(prov.State()))

	round := fmt.Sprintf("form/%s/%s", cur.Abbreviated(), fc.selfKey.Hex())
	gather := func(ctx context.Context, s wallet.State, payload string) ([]string, error) {
		fc.metrics.RecordProvisioningState(cur.Abbreviated(), int32(s))
		label := fmt.Sprintf("%s/%s", round, s)
		if err := fc.peers.SendToPeers(ctx, label, payload); err != nil {
			return nil, err
		}
		return fc.peers.CollectFromPeers(ctx, label, len(fc.members)-1)
	}

	addr, err := prov.Provision(ctx, threshold, gather)
	if err != nil {
		fc.metrics.RecordProvisioningState(cur.Abbreviated(), int32(prov.State()))
		return err
	}
	fc.metrics.RecordProvisioningState(cur.Abbreviated(), int32(wallet.StateReadyToSend))

	now := time.Now().UnixMilli()
	meta.AddInstanceEqualMembers(party.PartyInstance{
		Address:        addr,
		Threshold:      party.Weighting{Value: threshold, Basis: int64(len(fc.members))},
		Proposer:       fc.selfKey,
		State:          party.PartyStateActive,
		CreationTime:   now,
		LastUpdateTime: now,
	}, fc.members)

	fc.logger.Info("provisioned a new party instance",
		zap.String("currency", cur.Abbreviated()),
		zap.String("address", addr.String()),
		zap.Int64("threshold", threshold),
		zap.Int("members", len(fc.members)))

	return nil
}

// checkSetupFeeEligibility verifies this node can pay the contract deployment
// fee for currencies whose custody requires one.
func (fc *FormationController) checkSetupFeeEligibility(ctx context.Context, cur types.Currency) error {
	fee, ok := chainclient.EstimatedSetupFee(cur)
	if !ok {
		return nil
	}

	feeAddr, ok := fc.feeAddresses[fee.Currency]
	if !ok {
		return chainclient.Expected(types.ErrNoInstance.Wrapf(
			"no funded %s address to pay the setup fee from", fee.Currency.Abbreviated()))
	}

	balance, err := fc.resources.GetLiveBalance(ctx, feeAddr)
	if err != nil {
		return fmt.Errorf("failed to query the setup fee balance: %w", err)
	}
	if balance.LT(fee) {
		return chainclient.Expected(types.ErrBelowFee.Wrapf(
			"setup fee balance %s below required %s", balance, fee))
	}

	return nil
}

// upsertSelfPartyData makes sure the watcher tracks the party this node
// proposed, with the freshly formed metadata attached.
func (fc *FormationController) upsertSelfPartyData(meta *party.PartyMetadata) error {
	data, err := fc.ps.GetPartyData(fc.selfKey)
	if err != nil {
		data = &party.InternalData{
			PartyKey:      fc.selfKey,
			SelfInitiated: true,
		}
	}
	data.Metadata = *meta

	if err := fc.ps.SavePartyData(data); err != nil {
		return fmt.Errorf("failed to persist self party data: %w", err)
	}
	return nil
}
