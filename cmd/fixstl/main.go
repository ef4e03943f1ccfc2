package main

import (
	"os"

	"github.com/petereon/fix-stl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
