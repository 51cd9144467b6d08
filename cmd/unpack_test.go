package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/asarlock/internal/bundle"
	"github.com/PolarWolf314/asarlock/internal/configs"
	"github.com/PolarWolf314/asarlock/internal/secrets"
)

// writeEncryptedBundle writes resources/renderer.pak under appDir.
func writeEncryptedBundle(t *testing.T, appDir, key string) {
	t.Helper()
	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, "renderer", "index.html"), "<html></html>")

	packed, err := bundle.Pack(src)
	if err != nil {
		t.Fatalf("Failed to pack bundle: %v", err)
	}
	envelope, err := secrets.Encrypt(packed, key)
	if err != nil {
		t.Fatalf("Failed to encrypt bundle: %v", err)
	}
	writeTestFile(t, filepath.Join(appDir, "resources", "renderer.pak"), string(envelope))
}

func TestUnpack_DryRun(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "k1")
	appDir := t.TempDir()
	writeEncryptedBundle(t, appDir, "k1")
	out := filepath.Join(t.TempDir(), "out")

	output, err := runCLI(t, "unpack", "--app-dir", appDir, "--out", out, "--dry-run", "--project-dir", dir)
	if err != nil {
		t.Fatalf("unpack failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "renderer/index.html") {
		t.Errorf("expected asset listing, got: %s", output)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("dry run should not create %s", out)
	}
}

func TestUnpack_WritesAssets(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "k1")
	appDir := t.TempDir()
	writeEncryptedBundle(t, appDir, "k1")
	out := filepath.Join(t.TempDir(), "out")

	output, err := runCLI(t, "unpack", "--bundle", filepath.Join(appDir, "resources", "renderer.pak"), "--out", out, "--project-dir", dir)
	if err != nil {
		t.Fatalf("unpack failed: %v\n%s", err, output)
	}

	data, err := os.ReadFile(filepath.Join(out, "renderer", "index.html"))
	if err != nil {
		t.Fatalf("Failed to read unpacked asset: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Errorf("unexpected asset content: %q", data)
	}
}

func TestUnpack_WrongKey(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "wrong")
	appDir := t.TempDir()
	writeEncryptedBundle(t, appDir, "k1")

	output, err := runCLI(t, "unpack", "--app-dir", appDir, "--dry-run", "--project-dir", dir)
	if err == nil {
		t.Fatalf("expected unpack with the wrong key to fail")
	}
	if !strings.Contains(output, "Failed to decrypt the bundle") {
		t.Errorf("expected decrypt failure message, got: %s", output)
	}
}

func TestUnpack_BundleAndAppDirExclusive(t *testing.T) {
	setupTestProject(t)

	if _, err := runCLI(t, "unpack", "--app-dir", "a", "--bundle", "b"); err == nil {
		t.Fatalf("expected --app-dir with --bundle to fail")
	}
}
