// Package main provides the ctcbench tool.
package main

import (
	"os"

	"github.com/born-ml/ctc/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.New(version).Run(); err != nil {
		os.Exit(1)
	}
}
