package main

import (
	"os"

	"github.com/quantdev/donchian/cmd/donchian/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
