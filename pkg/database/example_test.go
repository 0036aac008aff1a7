package database_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/database"
)

// Example demonstrates how to use the database package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrNotConfigured) {
		fmt.Println("Run archive disabled")
		return
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	status := db.HealthCheck(ctx)
	fmt.Printf("Healthy: %v (%v)\n", status.Healthy, status.ResponseTime)
}
