package main

import (
	"os"

	_ "github.com/lib/pq"

	"neuroflow/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
