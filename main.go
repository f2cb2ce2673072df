package main

import (
	"os"

	"github.com/safa0/radiantctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
