package main

import (
	"os"

	"github.com/yavin-ai/yavin/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
