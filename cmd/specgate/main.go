package main

import (
	"os"

	"github.com/sprite-ai/specgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
