package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string
	Port        string
	MarketURL   string // optional market data base URL override
}

// Load reads configuration from the environment. A .env file is loaded first
// when present, but missing is fine (production sets real env vars).
func Load() (*Config, error) {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		DatabaseURL: databaseURL,
		Port:        port,
		MarketURL:   os.Getenv("MARKET_DATA_URL"),
	}, nil
}
