package compiler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	logger "github.com/PolarWolf314/asarlock/internal/logging"
	"github.com/evanw/esbuild/pkg/api"
)

// ESBuild bundles scripts with esbuild's Go API.
type ESBuild struct {
	// External lists extra modules left unbundled. electron is always external.
	External []string
	Logger   logger.Logger
}

// Bundle writes entry and its relative imports into outfile.
func (b ESBuild) Bundle(ctx context.Context, entry, outfile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{entry},
		AbsWorkingDir: filepath.Dir(entry),
		Outfile:       outfile,
		Bundle:        true,
		Write:         true,
		Platform:      api.PlatformNode,
		Format:        api.FormatCommonJS,
		Target:        api.ES2020,
		Packages:      api.PackagesExternal,
		External:      append([]string{"electron"}, b.External...),
		LogLevel:      api.LogLevelSilent,
	})

	for _, msg := range api.FormatMessages(result.Warnings, api.FormatMessagesOptions{Kind: api.WarningMessage}) {
		b.Logger.Debugf("esbuild: %s", strings.TrimSpace(msg))
	}
	if len(result.Errors) > 0 {
		msgs := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return fmt.Errorf("%w: %s: %s", kerrors.ErrBundleFailed, filepath.Base(entry), strings.TrimSpace(strings.Join(msgs, "\n")))
	}
	return nil
}
