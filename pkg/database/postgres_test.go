package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wonny/gainerscout/pkg/config"
)

func TestNewNotConfigured(t *testing.T) {
	cfg := &config.Config{}

	db, err := New(context.Background(), cfg)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Expected ErrNotConfigured, got %v", err)
	}
	if db != nil {
		t.Error("Expected nil DB")
	}

	// Close on nil must be safe for deferred cleanup
	db.Close()
}

func TestNewInvalidURL(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{URL: "://not-a-url"}}

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected parse error for invalid URL")
	}
}

func TestHealthCheck(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	status := db.HealthCheck(ctx)
	if !status.Healthy {
		t.Errorf("Expected healthy database, got error: %s", status.Error)
	}
	if status.TotalConns < 1 {
		t.Errorf("Expected at least one connection, got %d", status.TotalConns)
	}
}
