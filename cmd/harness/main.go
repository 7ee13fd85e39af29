package main

import (
	"os"

	"github.com/tradelab/harness/cmd/harness/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
