package app

import (
	"os"
	"path/filepath"
	"testing"
)

// LoadEnvFiles reads KEY=VALUE pairs and populates the process environment.
func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("TELEBIRR_FETCHER", "")
	t.Setenv("TELEBIRR_CHROME_PATH", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nTELEBIRR_FETCHER=http\nexport TELEBIRR_CHROME_PATH='/opt/chrome'\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := LoadEnvFiles(envPath); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}

	if got := os.Getenv("TELEBIRR_FETCHER"); got != "http" {
		t.Fatalf("TELEBIRR_FETCHER=%q, want http", got)
	}
	if got := os.Getenv("TELEBIRR_CHROME_PATH"); got != "/opt/chrome" {
		t.Fatalf("TELEBIRR_CHROME_PATH=%q, want /opt/chrome", got)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

// The shell environment wins over dotenv files; missing files are skipped.
func TestLoadEnvFiles_ShellWinsAndMissingSkipped(t *testing.T) {
	t.Setenv("SHELL_SET", "shell")
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("SHELL_SET=file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := LoadEnvFiles(filepath.Join(dir, "absent.env"), p); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("SHELL_SET"); got != "shell" {
		t.Fatalf("SHELL_SET=%q, want shell", got)
	}
}
