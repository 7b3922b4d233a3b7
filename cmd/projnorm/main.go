// Package main provides the projnorm CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/projnorm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
