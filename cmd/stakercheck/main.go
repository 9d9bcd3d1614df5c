package main

import (
	"os"

	"github.com/kofi-labs/staker-checker/internal/cli"
	"github.com/kofi-labs/staker-checker/pkg/output"
)

func main() {
	if err := cli.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}
