package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(file, []byte("DONATIONS_TEST_KEY=from-file\nDONATIONS_TEST_SET=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DONATIONS_TEST_SET", "from-env")
	t.Setenv("DONATIONS_TEST_KEY", "")
	os.Unsetenv("DONATIONS_TEST_KEY")

	if err := LoadEnv(file); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("DONATIONS_TEST_KEY"); got != "from-file" {
		t.Errorf("DONATIONS_TEST_KEY = %q", got)
	}
	if got := os.Getenv("DONATIONS_TEST_SET"); got != "from-env" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("DONATIONS_TEST_GETENV", "")
	if got := Getenv("DONATIONS_TEST_GETENV", "fallback"); got != "fallback" {
		t.Errorf("Getenv = %q", got)
	}
	t.Setenv("DONATIONS_TEST_GETENV", "value")
	if got := Getenv("DONATIONS_TEST_GETENV", "fallback"); got != "value" {
		t.Errorf("Getenv = %q", got)
	}
}
