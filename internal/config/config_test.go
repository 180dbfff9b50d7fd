package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("Test defaults", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if cfg.Addr != ":8080" || cfg.DBPath != "raffle.db" || cfg.WindowSchedule != "@every 30s" {
			t.Errorf("Expected default settings, but got %+v", cfg)
		}
		if cfg.Ephemeral || cfg.Verbose {
			t.Errorf("Expected flags to default to false, but got %+v", cfg)
		}
	})

	t.Run("Test dotenv file with environment override", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("RAFFLE_DB_PATH=from-file.db\nRAFFLE_ADDR=:9000\n"), 0o600); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		t.Setenv("RAFFLE_ADDR", ":7000")
		// godotenv sets variables that t.Setenv does not track.
		t.Cleanup(func() { os.Unsetenv("RAFFLE_DB_PATH") })

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if cfg.DBPath != "from-file.db" {
			t.Errorf("Expected db path from-file.db, but got %q", cfg.DBPath)
		}
		if cfg.Addr != ":7000" {
			t.Errorf("Expected the environment to win with :7000, but got %q", cfg.Addr)
		}
	})

	t.Run("Test missing dotenv file is ignored", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("Expected no error, but got %v", err)
		}
	})

	t.Run("Test malformed variable", func(t *testing.T) {
		t.Setenv("RAFFLE_EPHEMERAL", "not-a-bool")

		_, err := Load("")
		if err == nil {
			t.Fatal("Expected an error, but got nil")
		}
		if !strings.Contains(err.Error(), "parse env:") {
			t.Errorf("Expected a parse env error, but got %v", err)
		}
	})
}

// os.Exit cannot be intercepted in-process, so Exitf runs in a subprocess.
func TestExitf(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		Exitf("fatal: %s", "something broke")
		return
	}

	t.Run("Test exits with code 1", func(t *testing.T) {
		cmd := exec.Command(os.Args[0], "-test.run=^TestExitf$")
		cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")

		out, err := cmd.CombinedOutput()
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("Expected *exec.ExitError, but got %T: %v", err, err)
		}
		if exitErr.ExitCode() != 1 {
			t.Errorf("Expected exit code 1, but got %d", exitErr.ExitCode())
		}
		if !strings.Contains(string(out), "fatal: something broke") {
			t.Errorf("Expected output to contain %q, but got %q", "fatal: something broke", string(out))
		}
	})
}
