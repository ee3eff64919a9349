// Package main is the entry point for the catsum CLI binary.
package main

import (
	"os"

	cli "catalog-summary/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
