package workflows

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	logger "github.com/PolarWolf314/asarlock/internal/logging"
	"github.com/PolarWolf314/asarlock/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Installer installs name@version into the package at dir.
type Installer func(ctx context.Context, dir, name, version string) error

// NpmInstall runs `npm i name@version` in dir.
func NpmInstall(ctx context.Context, dir, name, version string) error {
	cmd := exec.CommandContext(ctx, "npm", "i", name+"@"+version, "--no-audit", "--no-fund")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("npm i %s@%s: %v: %s", name, version, err, strings.TrimSpace(string(out)))
	}
	return nil
}

type ModuleSyncOptions struct {
	ProjectDir string
	AppDir     string
	// Modules maps module name to the version installed when the project
	// has no copy of its own.
	Modules   map[string]string
	Installer Installer
	Logger    logger.Logger
}

// ModuleSync reports how each module reached the app.
type ModuleSync struct {
	Copied    []string
	Installed []string
}

// SyncModules copies each module from the project's node_modules into the
// app's node_modules, installing it when the project has none. Installs run
// first and one at a time since npm rewrites the app's node_modules on every
// run and prunes packages its package.json does not list. Copies then run
// concurrently.
func SyncModules(ctx context.Context, opts ModuleSyncOptions) (*ModuleSync, error) {
	install := opts.Installer
	if install == nil {
		install = NpmInstall
	}

	names := make([]string, 0, len(opts.Modules))
	for name := range opts.Modules {
		names = append(names, name)
	}
	sort.Strings(names)
	opts.Logger.Infof("checking %s dependencies", strings.Join(names, ","))

	var result ModuleSync
	for _, name := range names {
		if info, err := os.Stat(moduleSource(opts.ProjectDir, name)); err == nil && info.IsDir() {
			result.Copied = append(result.Copied, name)
		} else {
			result.Installed = append(result.Installed, name)
		}
	}

	for _, name := range result.Installed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		version := opts.Modules[name]
		opts.Logger.Infof("start install %s@%s", name, version)
		if err := install(ctx, opts.AppDir, name, version); err != nil {
			opts.Logger.Errorf("install %s@%s failed: %v", name, version, err)
			return nil, fmt.Errorf("%w: %v", kerrors.ErrDependencySync, err)
		}
		opts.Logger.Infof("install %s@%s success", name, version)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range result.Copied {
		name := name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := filepath.Join(opts.AppDir, "node_modules", filepath.FromSlash(name))
			if err := os.RemoveAll(dst); err != nil {
				return fmt.Errorf("%w: %s: %v", kerrors.ErrDependencySync, name, err)
			}
			if err := utils.CopyDir(moduleSource(opts.ProjectDir, name), dst); err != nil {
				return fmt.Errorf("%w: copying %s: %v", kerrors.ErrDependencySync, name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

func moduleSource(projectDir, name string) string {
	return filepath.Join(projectDir, "node_modules", filepath.FromSlash(name))
}
