package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/config"
	"github.com/quorumnet/partyd/metrics"
	"github.com/quorumnet/partyd/store"
	"github.com/quorumnet/partyd/types"
	"github.com/quorumnet/partyd/wallet"
)

const instanceTerminatingMsg = "party state is unrecoverable, terminating. Manual cleanup of the database is required before restart"

// Dependencies are the injected capabilities the engine runs against.
// Implementations of the chain-facing interfaces live outside this module.
type Dependencies struct {
	Resources chainclient.ExternalNetworkResources
	Peers     chainclient.PeerBroadcast
	Ledger    chainclient.LedgerQuery

	// Drivers provide the multisig provisioning handshake per currency.
	Drivers map[types.Currency]wallet.RoundDriver

	SelfKey types.PublicKey
	Members []types.PublicKey
	Seeds   []types.PublicKey

	// FeeAddresses are this node's funded single-sig addresses used to pay
	// contract setup fees.
	FeeAddresses map[types.Currency]types.Address

	// OrderHandler settles mature orders of self-initiated parties. May be
	// nil on observe-only nodes.
	OrderHandler OrderHandler
}

func (d *Dependencies) validate() error {
	if d.Resources == nil {
		return fmt.Errorf("external network resources not provided")
	}
	if d.Peers == nil {
		return fmt.Errorf("peer broadcast not provided")
	}
	if d.Ledger == nil {
		return fmt.Errorf("ledger query not provided")
	}
	if len(d.SelfKey) == 0 {
		return fmt.Errorf("self key not provided")
	}
	if !types.ContainsKey(d.Members, d.SelfKey) {
		return fmt.Errorf("self key is not part of the party membership")
	}
	return nil
}

// App wires the engine together: the store, the reconciliation watcher, the
// formation controller, and the metrics endpoint.
type App struct {
	startOnce sync.Once
	stopOnce  sync.Once

	wg   sync.WaitGroup
	quit chan struct{}

	cfg    *config.Config
	logger *zap.Logger

	ps        *store.PartyStore
	watcher   *Watcher
	formation *FormationController

	metricsServer *metrics.Server

	criticalErrChan chan error
}

func NewApp(cfg *config.Config, deps *Dependencies, db store.Store, logger *zap.Logger) (*App, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	ps := store.NewPartyStore(db)
	pm := metrics.NewPartyMetrics()

	criticalErrChan := make(chan error)

	watcher := NewWatcher(
		logger,
		cfg.WatcherConfig,
		cfg.NetworkParams,
		deps.Seeds,
		ps,
		deps.Resources,
		deps.Ledger,
		pm,
		deps.OrderHandler,
		criticalErrChan,
	)

	formation := NewFormationController(
		logger,
		cfg.FormationConfig,
		cfg.NetworkParams,
		deps.SelfKey,
		deps.Members,
		deps.FeeAddresses,
		ps,
		deps.Resources,
		deps.Peers,
		deps.Drivers,
		pm,
	)

	return &App{
		cfg:             cfg,
		logger:          logger,
		ps:              ps,
		watcher:         watcher,
		formation:       formation,
		criticalErrChan: criticalErrChan,
		quit:            make(chan struct{}),
	}, nil
}

func (app *App) GetPartyStore() *store.PartyStore {
	return app.ps
}

func (app *App) Start() error {
	var startErr error
	app.startOnce.Do(func() {
		app.logger.Info("Starting the party daemon",
			zap.String("network", string(app.cfg.NetworkParams)))

		addr, err := app.cfg.Metrics.Address()
		if err != nil {
			startErr = err
			return
		}
		app.metricsServer = metrics.Start(addr, app.logger)

		if err := app.watcher.Start(); err != nil {
			startErr = err
			return
		}

		if err := app.formation.Start(); err != nil {
			startErr = err
			return
		}

		app.wg.Add(1)
		go app.monitorCriticalErr()
	})

	return startErr
}

func (app *App) Stop() error {
	var stopErr error
	app.stopOnce.Do(func() {
		app.logger.Info("Stopping the party daemon")

		app.logger.Debug("Stopping the formation controller")
		if err := app.formation.Stop(); err != nil {
			stopErr = err
			return
		}

		app.logger.Debug("Stopping the party watcher")
		if err := app.watcher.Stop(); err != nil {
			stopErr = err
			return
		}

		close(app.quit)
		app.wg.Wait()

		if app.metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			app.metricsServer.Stop(ctx)
			cancel()
		}

		app.logger.Debug("Closing the party store")
		if err := app.ps.Close(); err != nil {
			stopErr = err
			return
		}

		app.logger.Debug("The party daemon successfully stopped")
	})
	return stopErr
}

// monitorCriticalErr terminates the daemon when the watcher reports an
// unrecoverable condition. Corruption of a stored record cannot be healed by
// retrying, so the process exits rather than looping on a poisoned snapshot.
func (app *App) monitorCriticalErr() {
	defer app.wg.Done()

	for {
		select {
		case err := <-app.criticalErrChan:
			app.logger.Fatal(instanceTerminatingMsg, zap.Error(err))
		case <-app.quit:
			return
		}
	}
}
