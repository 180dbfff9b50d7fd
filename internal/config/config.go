// Package config loads process settings from the environment and lottery
// deployment definitions from TOML files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	Addr           string `env:"RAFFLE_ADDR" envDefault:":8080"`
	DBPath         string `env:"RAFFLE_DB_PATH" envDefault:"raffle.db"`
	Ephemeral      bool   `env:"RAFFLE_EPHEMERAL" envDefault:"false"`
	WindowSchedule string `env:"RAFFLE_WINDOW_SCHEDULE" envDefault:"@every 30s"`
	DeployFile     string `env:"RAFFLE_DEPLOY_FILE"`
	Verbose        bool   `env:"RAFFLE_VERBOSE" envDefault:"false"`
	LogFile        string `env:"RAFFLE_LOG_FILE"`
}

// Load reads an optional dotenv file and then the environment. Variables
// already set in the environment win over the file.
func Load(dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
