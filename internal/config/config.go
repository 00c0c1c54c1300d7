// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string

	// TokenSecret is the HMAC secret used to sign bearer tokens.
	TokenSecret string

	// TokenIssuer is the issuer claim stamped on bearer tokens.
	TokenIssuer string

	// TokenTTL is the lifetime of an issued bearer token.
	TokenTTL time.Duration

	// LogLevel sets the logging verbosity ("debug", "info", ...).
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.TokenSecret, "s", "", "token signing secret")
	flag.StringVar(&options.TokenIssuer, "i", "healthtrack", "token issuer")
	flag.DurationVar(&options.TokenTTL, "ttl", time.Hour, "token lifetime")
	flag.StringVar(&options.LogLevel, "l", "info", "log level")
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
		options.Port = serverAddress
	}

	if databaseDSN := os.Getenv("DATABASE_DSN"); databaseDSN != "" {
		options.DatabaseDSN = databaseDSN
	}

	if tokenSecret := os.Getenv("TOKEN_SECRET"); tokenSecret != "" {
		options.TokenSecret = tokenSecret
	}

	return options
}
