package workflows

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/PolarWolf314/asarlock/internal/audit"
	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/integrity"
)

// ExitIntegrityMismatch is the process exit code for a failed startup check.
// Unix truncates it to 9999 & 0xFF.
const ExitIntegrityMismatch = 9999

// VerifyOptions configures the verify workflow.
type VerifyOptions struct {
	// AppDir holds resources/app.asar and resources/app.json.
	AppDir string

	Config *configs.EncryptorConfig

	// Force runs the check even when the config leaves verifyAsar off.
	Force bool

	// ProjectDir receives the audit entry. Empty records nothing.
	ProjectDir string
}

// VerifyResult contains the outcome of a verify run.
type VerifyResult struct {
	ContainerPath string
	ManifestPath  string
	Manifest      *integrity.Manifest

	// Skipped is set when verification is disabled in the config.
	Skipped bool
	Elapsed time.Duration
}

// Verify checks the container in opts.AppDir against its manifest.
//
// Returns ErrIntegrityMismatch when the fingerprint differs or the manifest
// is missing or unreadable.
func Verify(ctx context.Context, opts VerifyOptions) (*VerifyResult, error) {
	start := time.Now()
	cfg := opts.Config
	if cfg == nil {
		cfg = configs.Default()
	}

	result := &VerifyResult{
		ContainerPath: filepath.Join(opts.AppDir, "resources", ContainerName),
		ManifestPath:  filepath.Join(opts.AppDir, "resources", ManifestName),
	}
	if !cfg.VerifyAsar && !opts.Force {
		result.Skipped = true
		return result, nil
	}
	if cfg.Key == "" {
		return nil, kerrors.ErrMissingSecret
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("verify")
	entry.Output = opts.AppDir

	err := integrity.VerifyStartup(result.ContainerPath, result.ManifestPath, cfg.Key)
	result.Elapsed = time.Since(start)
	entry.ElapsedMS = result.Elapsed.Milliseconds()

	if err != nil {
		entry.Fail(err)
		audit.Log(opts.ProjectDir, entry)
		if !errors.Is(err, kerrors.ErrIntegrityMismatch) {
			return nil, err
		}
		return result, err
	}

	if m, err := integrity.ReadManifest(result.ManifestPath); err == nil {
		result.Manifest = m
		entry.App = m.Name
		entry.Version = m.Version
		entry.MD5 = m.MD5
	}
	audit.Log(opts.ProjectDir, entry)
	return result, nil
}
