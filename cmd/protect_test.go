package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/asarlock/internal/configs"
	"github.com/PolarWolf314/asarlock/internal/workflows"
)

func TestProtect_MissingContainer(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "k1")

	output, err := runCLI(t, "protect", "--app-out-dir", filepath.Join(t.TempDir(), "linux-unpacked"),
		"--platform", "linux", "--project-dir", dir)
	if err == nil {
		t.Fatalf("expected protect without a container to fail")
	}
	if !strings.Contains(output, workflows.StageExtracted.Step()) {
		t.Errorf("expected the failing step in output, got: %s", output)
	}
}

func TestProtect_MissingKey(t *testing.T) {
	dir := setupTestProject(t)
	t.Setenv(configs.KeyEnv, "")

	output, err := runCLI(t, "protect", "--app-out-dir", t.TempDir(), "--project-dir", dir)
	if err == nil {
		t.Fatalf("expected protect without a key to fail")
	}
	if !strings.Contains(output, "No encryption key configured") {
		t.Errorf("expected key hint, got: %s", output)
	}
}

func TestProtect_RequiresAppOutDir(t *testing.T) {
	setupTestProject(t)

	if _, err := runCLI(t, "protect"); err == nil {
		t.Fatalf("expected missing --app-out-dir to fail")
	}
}

func TestFormatProtectResult(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	got := formatProtectResult(&workflows.ProtectResult{
		Name:          "demo",
		Version:       "1.0.0",
		Fingerprint:   "446ca05ff8f8d0ee66eb69f285b6578a",
		ContainerPath: "/app/resources/app.asar",
		BundlePath:    "/app/resources/renderer.pak",
		BundleSize:    1500,
		Compiled:      []string{"main.js", "preload.js"},
		Modules:       &workflows.ModuleSync{Installed: []string{"bytenode"}},
	})

	for _, want := range []string{
		"Protected 'demo@1.0.0'",
		"Compiled main.js, preload.js",
		"Installed bytenode",
		"/app/resources/renderer.pak (1.5 kB)",
		"Fingerprint '446ca05ff8f8d0ee66eb69f285b6578a'",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestRegister_AddsCommands(t *testing.T) {
	setupTestProject(t)
	root := createTestCLI()

	for _, name := range []string{"protect", "verify", "serve", "unpack", "fingerprint", "init", "history", "doctor"} {
		c, _, err := root.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("expected command %q to be registered", name)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil || root.PersistentFlags().Lookup("debug") == nil {
		t.Errorf("expected persistent --verbose and --debug flags")
	}
}
