package main

import (
	"fmt"

	"github.com/quorumnet/partyd/config"
)

type initCommand struct {
	Home  string `long:"home" description:"Path to the partyd home directory"`
	Force bool   `long:"force" description:"Overwrite an existing config file"`
}

func (c *initCommand) Execute(_ []string) error {
	homePath := c.Home
	if homePath == "" {
		homePath = config.DefaultPartydDir
	}
	homePath = config.CleanAndExpandPath(homePath)

	if config.FileExists(config.ConfigFile(homePath)) && !c.Force {
		return fmt.Errorf("home directory already initialized at %s, use --force to overwrite", homePath)
	}

	cfg := config.DefaultConfigWithHome(homePath)
	if err := config.WriteConfigFile(homePath, &cfg); err != nil {
		return fmt.Errorf("failed to write the config file: %w", err)
	}

	fmt.Printf("Initialized partyd home at %s\n", homePath)
	return nil
}
