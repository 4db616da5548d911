package main

import (
	"fmt"
	"os"

	"oddsledger/cmd/oddsledger/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
