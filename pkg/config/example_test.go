package config_test

import (
	"fmt"

	"github.com/wonny/gainerscout/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Screener: %s\n", cfg.Finviz.BaseURL)
	fmt.Printf("Fetch attempts: %d\n", cfg.Finviz.FetchMaxAttempts)
	fmt.Printf("Output: %s\n", cfg.OutputCSV)
	fmt.Printf("Notify: %v\n", cfg.Telegram.Enabled())
}
