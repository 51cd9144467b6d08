package workflows

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/PolarWolf314/asarlock/internal/audit"
	"github.com/PolarWolf314/asarlock/internal/bundle"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/secrets"
)

// UnpackOptions configures the unpack workflow.
type UnpackOptions struct {
	BundlePath string
	OutDir     string
	Key        string

	// DryRun lists the bundle contents without writing them.
	DryRun bool

	// ProjectDir receives the audit entry. Empty records nothing.
	ProjectDir string
}

// UnpackResult contains the outcome of an unpack run.
type UnpackResult struct {
	Files []string
	Size  int64
}

// Unpack decrypts an encrypted renderer bundle into a directory.
//
// Returns ErrDecryptFailed when the key is wrong or the bundle is damaged.
func Unpack(ctx context.Context, opts UnpackOptions) (*UnpackResult, error) {
	if opts.Key == "" {
		return nil, kerrors.ErrMissingSecret
	}

	envelope, err := os.ReadFile(opts.BundlePath)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	plain, err := secrets.Decrypt(envelope, opts.Key)
	if err != nil {
		return nil, err
	}
	files, err := bundle.Unpack(plain)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &UnpackResult{}
	for name, data := range files {
		result.Files = append(result.Files, name)
		result.Size += int64(len(data))
	}
	sort.Strings(result.Files)

	if opts.DryRun {
		return result, nil
	}
	if err := bundle.Extract(files, opts.OutDir); err != nil {
		return nil, err
	}

	entry := audit.NewEntry("unpack")
	entry.Output = opts.OutDir
	audit.Log(opts.ProjectDir, entry)
	return result, nil
}
