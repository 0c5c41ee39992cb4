// Package main is the entry point for the energy-etl application
package main

import (
	"github.com/ethpandaops/energy-etl/cmd"
)

func main() {
	cmd.Execute()
}
