package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"raffle/internal/config"
)

func TestRun(t *testing.T) {
	t.Run("Test invalid schedule returns an error", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "raffle.log")
		cfg := config.Config{
			Addr:           "127.0.0.1:0",
			Ephemeral:      true,
			WindowSchedule: "not a schedule",
			LogFile:        logPath,
		}

		if err := run(cfg); err == nil {
			t.Fatal("Expected an error, but got nil")
		}
		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !strings.Contains(string(data), "Invalid window schedule") {
			t.Errorf("Expected the failure in the log file, but got %q", string(data))
		}
	})

	t.Run("Test missing deployment returns an error", func(t *testing.T) {
		cfg := config.Config{
			Addr:           "127.0.0.1:0",
			DBPath:         filepath.Join(t.TempDir(), "raffle.db"),
			WindowSchedule: "@every 30s",
			DeployFile:     filepath.Join(t.TempDir(), "missing.toml"),
		}

		if err := run(cfg); err == nil {
			t.Fatal("Expected an error, but got nil")
		}
		if _, err := os.Stat(cfg.DBPath); err != nil {
			t.Errorf("Expected the database to have been opened, but got %v", err)
		}
	})
}
