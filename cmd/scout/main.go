package main

import (
	"os"

	"github.com/wonny/gainerscout/cmd/scout/commands"
)

// main is the entry point for the scout CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/scout [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
