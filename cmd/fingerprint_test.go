package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/asarlock/internal/configs"
)

func TestFingerprint_KnownVector(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "k1")
	asarPath := filepath.Join(dir, "app.asar")
	writeTestFile(t, asarPath, "hello asar")

	output, err := runCLI(t, "fingerprint", "--asar", asarPath, "--project-dir", dir)
	if err != nil {
		t.Fatalf("fingerprint failed: %v\n%s", err, output)
	}
	if strings.TrimSpace(output) != "446ca05ff8f8d0ee66eb69f285b6578a" {
		t.Errorf("unexpected fingerprint output: %q", output)
	}
}

func TestFingerprint_KeyFromConfig(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "")
	writeTestFile(t, filepath.Join(dir, "encryptor.yaml"), "key: k1\n")
	asarPath := filepath.Join(dir, "app.asar")
	writeTestFile(t, asarPath, "hello asar")

	output, err := runCLI(t, "fingerprint", "--asar", asarPath, "--project-dir", dir)
	if err != nil {
		t.Fatalf("fingerprint failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "446ca05ff8f8d0ee66eb69f285b6578a") {
		t.Errorf("unexpected fingerprint output: %q", output)
	}
}

func TestFingerprint_MissingKey(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "")
	asarPath := filepath.Join(dir, "app.asar")
	writeTestFile(t, asarPath, "hello asar")

	output, err := runCLI(t, "fingerprint", "--asar", asarPath, "--project-dir", dir)
	if err == nil {
		t.Fatalf("expected fingerprint without a key to fail")
	}
	if !strings.Contains(output, "No encryption key configured") {
		t.Errorf("expected key hint, got: %s", output)
	}
}

func TestFingerprint_RequiresAsar(t *testing.T) {
	setupTestProject(t)

	if _, err := runCLI(t, "fingerprint"); err == nil {
		t.Fatalf("expected missing --asar to fail")
	}
}
