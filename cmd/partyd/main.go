package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[partyd] %v\n", err)
	os.Exit(1)
}

type cliOptions struct {
	Init  initCommand  `command:"init" description:"Initialize a partyd home directory with a default config file"`
	Start startCommand `command:"start" description:"Start the party custody daemon"`
}

func main() {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.LongDescription = "Party Custody Daemon (partyd)."

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		fatal(err)
	}
}
