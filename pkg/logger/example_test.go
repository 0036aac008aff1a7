package logger_test

import (
	"errors"

	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)
	defer log.Close()

	log.Debug("This won't appear (level is info)")
	log.Info("Scrape started")
	log.Warnf("Rate limited. Retrying after %d seconds.", 3)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
		LogFile:   "logs.log",
	}

	log := logger.New(cfg)
	defer log.Close()

	log.WithFields(map[string]interface{}{
		"ticker": "AAPL",
		"market": "NASDAQ",
	}).Info("Record parsed")

	log.WithError(errors.New("status 503")).
		WithField("ticker", "TSLA").
		Error("Detail fetch failed")
}
