// Package main is the entry point for the green-roi CLI.
package main

import (
	"os"

	"green-roi/cmd/cli/cmd"
	"green-roi/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
