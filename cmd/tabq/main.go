// Package main provides the tabq CLI.
package main

import (
	"os"

	"github.com/tabq-labs/tabq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
