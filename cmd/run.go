package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shubhamku044/cross-chain-rebase-token/api"
	"github.com/shubhamku044/cross-chain-rebase-token/config"
	"github.com/shubhamku044/cross-chain-rebase-token/database"
	"github.com/shubhamku044/cross-chain-rebase-token/events"
	"github.com/shubhamku044/cross-chain-rebase-token/repository"
	"github.com/shubhamku044/cross-chain-rebase-token/service"
	logrus "github.com/sirupsen/logrus"
)

// Run initializes and starts the ledger service
func Run(ctx context.Context) error {
	log.Println("Starting rebase token ledger...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Observers (indexers, the bridge) track rate history through this
	// notification; log every successful change.
	eventBus.Subscribe(events.EventTypeRateChanged, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.RateChangedEvent); ok {
			logrus.WithFields(logrus.Fields{
				"oldRate":   e.OldRate.String(),
				"newRate":   e.NewRate.String(),
				"changedBy": e.ChangedBy,
			}).Info("Global rate changed")
		}
	})

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	clock := service.SystemClock()
	ledgerService := service.NewLedgerService(uowFactory, clock)
	rateService := service.NewRateService(uowFactory, cfg.OwnerAddress)
	roleService := service.NewRoleService(uowFactory, cfg.OwnerAddress)

	// Seed the global rate on first startup; restarts keep the stored value
	if err := rateService.SeedGlobalRate(ctx, cfg.InitialGlobalRate); err != nil {
		return fmt.Errorf("failed to seed global rate: %w", err)
	}
	log.Println("Services initialized successfully")

	// Start the HTTP API
	server := api.NewServer(cfg.ListenAddr, ledgerService, rateService, roleService)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Printf("Ledger is running in %s mode on %s...", cfg.Environment, cfg.ListenAddr)

	select {
	case err := <-serverErr:
		db.Close()
		return err
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
