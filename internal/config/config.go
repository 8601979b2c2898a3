// Package config handles process settings from environment variables and
// the live watch configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Supported dedup store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Process holds the settings fixed for the lifetime of the process.
type Process struct {
	ConfigPath   string
	StoreDriver  string
	FoundLog     string
	DatabasePath string
	LogLevel     string
	ItemBaseURL  string
	SendRate     int
}

// LoadProcess reads process settings from environment variables.
func LoadProcess() (*Process, error) {
	driver := strings.ToLower(envOrDefault("STORE_DRIVER", DriverFile))
	if driver != DriverFile && driver != DriverSQLite {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %q or %q", driver, DriverFile, DriverSQLite)
	}

	sendRate := 20
	if raw := os.Getenv("SEND_RATE"); raw != "" {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid SEND_RATE %q: %w", raw, err)
		}
		if v < 1 {
			return nil, fmt.Errorf("invalid SEND_RATE %d: must be positive", v)
		}
		sendRate = v
	}

	return &Process{
		ConfigPath:   envOrDefault("CONFIG_PATH", "config.yaml"),
		StoreDriver:  driver,
		FoundLog:     envOrDefault("FOUND_LOG", "found.log"),
		DatabasePath: envOrDefault("DATABASE_PATH", "./data/seen.db"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		ItemBaseURL:  envOrDefault("ITEM_BASE_URL", "https://jp.mercari.com/item/"),
		SendRate:     sendRate,
	}, nil
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
