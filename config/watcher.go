package config

import (
	"fmt"
	"time"
)

var (
	defaultWatcherInterval    = 30 * time.Second
	defaultOrderMaturityDelay = 30 * time.Second

	defaultFormationInterval = 60 * time.Second
	defaultProvisionDeadline = 120 * time.Second
)

// WatcherConfig drives the periodic reconciliation loop.
type WatcherConfig struct {
	PollInterval       time.Duration `long:"pollinterval" description:"The interval between each reconciliation of party state against observed transactions"`
	OrderMaturityDelay time.Duration `long:"ordermaturitydelay" description:"How long an order must age before it is surfaced for settlement"`
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		PollInterval:       defaultWatcherInterval,
		OrderMaturityDelay: defaultOrderMaturityDelay,
	}
}

func (cfg *WatcherConfig) Validate() error {
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("watcher poll interval must be positive")
	}
	if cfg.OrderMaturityDelay < 0 {
		return fmt.Errorf("order maturity delay must not be negative")
	}
	return nil
}

// FormationConfig drives the multisig party formation loop.
type FormationConfig struct {
	FormationInterval time.Duration `long:"formationinterval" description:"The interval between each check for currencies still missing a multisig party instance"`
	ProvisionDeadline time.Duration `long:"provisiondeadline" description:"The deadline for a single wallet provisioning round before it is aborted"`
}

func DefaultFormationConfig() FormationConfig {
	return FormationConfig{
		FormationInterval: defaultFormationInterval,
		ProvisionDeadline: defaultProvisionDeadline,
	}
}

func (cfg *FormationConfig) Validate() error {
	if cfg.FormationInterval <= 0 {
		return fmt.Errorf("formation interval must be positive")
	}
	if cfg.ProvisionDeadline <= 0 {
		return fmt.Errorf("provision deadline must be positive")
	}
	return nil
}
