package main

import (
	"os"

	"github.com/msmt-labs/mssmt/cmd/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
