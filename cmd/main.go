package main

import (
	"os"

	"github.com/andreluis2005/cognira/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
