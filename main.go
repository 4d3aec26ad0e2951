// Package main is the entry point for the relay host runtime CLI.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/relay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
