package workflows

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/PolarWolf314/asarlock/internal/asar"
	"github.com/PolarWolf314/asarlock/internal/utils"
)

// Container packs and unpacks the application archive.
type Container interface {
	Extract(archivePath, dir string) error
	Pack(dir, archivePath string) error
}

// Bundler flattens a script and its relative imports into outfile.
type Bundler interface {
	Bundle(ctx context.Context, entry, outfile string) error
}

// Compiler turns input into an opaque artifact at output by running the
// application executable at execPath.
type Compiler interface {
	Compile(ctx context.Context, input, output, execPath string) error
}

// AsarContainer is the Electron asar archive.
type AsarContainer struct{}

func (AsarContainer) Extract(archivePath, dir string) error { return asar.Extract(archivePath, dir) }
func (AsarContainer) Pack(dir, archivePath string) error    { return asar.Pack(dir, archivePath) }

// PackContext describes the packaged application the pipeline runs on, as a
// packager such as electron-builder reports it after packing.
type PackContext struct {
	// Platform is "mac" (or "darwin"), "windows" (or "win32") or "linux".
	Platform        string
	AppOutDir       string
	ProductFilename string
	ProductName     string
	ProjectDir      string
}

// HookContext is passed to BeforeRepack.
type HookContext struct {
	ScratchDir string
}

// Hook runs custom work on the scratch tree before the final repack.
type Hook func(ctx context.Context, hc HookContext) error

// platform normalizes Platform to "mac", "windows" or "linux".
func (pc PackContext) platform() string {
	switch strings.ToLower(pc.Platform) {
	case "mac", "darwin", "macos", "mas":
		return "mac"
	case "windows", "win", "win32":
		return "windows"
	default:
		return "linux"
	}
}

// AppDir is the directory holding resources/. On mac it is the Contents
// directory of the app bundle.
func (pc PackContext) AppDir() string {
	if pc.platform() == "mac" {
		return filepath.Join(pc.AppOutDir, pc.ProductFilename+".app", "Contents")
	}
	return pc.AppOutDir
}

// ResourcesDir holds app.asar, app.json and by default renderer.pak.
func (pc PackContext) ResourcesDir() string {
	return filepath.Join(pc.AppDir(), "resources")
}

// ExecPath is the packaged application executable. fallbackName is used
// when neither the product file name nor the product name is known.
func (pc PackContext) ExecPath(fallbackName string) string {
	name := pc.ProductFilename
	if name == "" {
		name = pc.ProductName
	}
	if name == "" {
		name = fallbackName
	}

	switch pc.platform() {
	case "mac":
		return filepath.Join(pc.AppDir(), "MacOS", name)
	case "windows":
		return filepath.Join(pc.AppOutDir, utils.WithExeSuffix(name, "windows"))
	default:
		return filepath.Join(pc.AppOutDir, name)
	}
}
