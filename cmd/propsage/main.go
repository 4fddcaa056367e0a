// Package main provides the CLI for the propsage price estimator.
package main

import (
	"os"

	"github.com/propsage/propsage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
