package config

import (
	"fmt"
	"math/big"
	"os"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	ListenAddr string

	// OwnerAddress is the single identity allowed to change the global
	// rate and administer roles
	OwnerAddress string

	// InitialGlobalRate seeds the rate registry on first startup. The
	// global rate can only decrease afterwards, so this is also its
	// all-time maximum.
	InitialGlobalRate *big.Int

	// Environment is "development", "production" or "test"
	Environment string
}

// defaultInitialGlobalRate is 5e10: 5e10/1e18 interest per second.
const defaultInitialGlobalRate = "50000000000"

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		OwnerAddress: os.Getenv("OWNER_ADDRESS"),
		Environment:  os.Getenv("ENVIRONMENT"),
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	rate := os.Getenv("INITIAL_GLOBAL_RATE")
	if rate == "" {
		rate = defaultInitialGlobalRate
	}
	parsed, ok := new(big.Int).SetString(rate, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("INITIAL_GLOBAL_RATE must be a non-negative integer, got %q", rate)
	}
	config.InitialGlobalRate = parsed

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.OwnerAddress == "" {
			return nil, fmt.Errorf("OWNER_ADDRESS is required")
		}
	}

	return config, nil
}
