package main

import (
	"os"

	"github.com/big-striped-cat/zvezdin/cmd/zvezdin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
