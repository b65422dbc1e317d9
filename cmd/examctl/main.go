package main

import (
	"os"

	"github.com/stemsi/exstem-engine/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
