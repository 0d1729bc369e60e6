package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quorumnet/partyd/chainclient"
	"github.com/quorumnet/partyd/config"
	"github.com/quorumnet/partyd/log"
	"github.com/quorumnet/partyd/service"
	"github.com/quorumnet/partyd/store/bbolt"
	"github.com/quorumnet/partyd/types"
	"github.com/quorumnet/partyd/wallet"
)

type startCommand struct {
	Home string `long:"home" description:"Path to the partyd home directory"`
}

func (c *startCommand) Execute(_ []string) error {
	homePath := c.Home
	if homePath == "" {
		homePath = config.DefaultPartydDir
	}
	homePath = config.CleanAndExpandPath(homePath)

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize the logger: %w", err)
	}

	selfKey, err := cfg.ParsedSelfKey()
	if err != nil {
		return err
	}
	members, err := cfg.ParsedMemberKeys()
	if err != nil {
		return err
	}
	seeds, err := cfg.ParsedSeedKeys()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DatabaseConfig.DBPath, 0o700); err != nil {
		return fmt.Errorf("failed to create the data directory: %w", err)
	}
	db, err := bbolt.NewBboltStore(cfg.DatabaseConfig.ToBoltOptions())
	if err != nil {
		return fmt.Errorf("failed to open the database: %w", err)
	}

	app, err := service.NewApp(cfg, defaultDependencies(cfg, selfKey, members, seeds), db, logger)
	if err != nil {
		return fmt.Errorf("failed to create the party daemon: %w", err)
	}

	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start the party daemon: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	return app.Stop()
}

// defaultDependencies wires the capability set this binary ships with. Chain
// RPC connectivity is provided by embedding deployments; the standalone
// daemon runs with every external capability disabled, which makes formation
// skip fee-gated currencies and reconciliation report unsupported queries.
func defaultDependencies(cfg *config.Config, selfKey types.PublicKey, members, seeds []types.PublicKey) *service.Dependencies {
	resources := chainclient.Disabled{}
	peers := chainclient.DisabledPeers{}

	drivers := make(map[types.Currency]wallet.RoundDriver)
	for _, cur := range types.ContractFeeCurrencies() {
		drivers[cur] = wallet.NewExternalToolDelegated(resources, peers, &chainclient.MultisigCreationRequest{
			Currency: cur,
			Network:  cfg.NetworkParams,
			SelfKey:  selfKey,
			Members:  members,
		})
	}

	return &service.Dependencies{
		Resources: resources,
		Peers:     peers,
		Ledger:    chainclient.DisabledLedger{},
		Drivers:   drivers,
		SelfKey:   selfKey,
		Members:   members,
		Seeds:     seeds,
	}
}
