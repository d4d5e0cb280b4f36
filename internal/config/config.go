// Package config provides functionality for managing configuration options
// for the storefront client and API server using command-line flags,
// environment variables, and an optional JSON config file.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the API server's listening address (ip:port).
	Addr string

	// DatabaseDSN holds the database connection string for the API server.
	DatabaseDSN string

	// TokenSecret is the HMAC secret used to sign bearer tokens.
	TokenSecret string

	// BaseURL is the API base URL the client talks to.
	BaseURL string

	// StateDir is the directory holding the client's persisted
	// session and cart records.
	StateDir string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.TokenSecret, "secret", "", "bearer token signing secret")
	flag.StringVar(&options.BaseURL, "url", "http://localhost:8080/api", "API base URL")
	flag.StringVar(&options.StateDir, "state-dir", ".", "directory for persisted client state")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Addr = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := os.Getenv("TOKEN_SECRET"); secret != "" {
		options.TokenSecret = secret
	}
	if baseURL := os.Getenv("API_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if stateDir := os.Getenv("STATE_DIR"); stateDir != "" {
		options.StateDir = stateDir
	}

	return options
}
