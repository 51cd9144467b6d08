package integrity

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/secrets"
	"github.com/facebookgo/atomicfile"
)

const chunkSize = 64 * 1024

// Manifest is the integrity record written beside the container.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	MD5     string `json:"md5"`
}

// Fingerprint streams the file at path and returns its salted fingerprint.
// It stops early if ctx is cancelled.
func Fingerprint(ctx context.Context, path, secret string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		h.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return salted(hex.EncodeToString(h.Sum(nil)), secret), nil
}

// FingerprintSync reads the whole file at path and returns its salted
// fingerprint.
func FingerprintSync(path, secret string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	sum := md5.Sum(data)
	return salted(hex.EncodeToString(sum[:]), secret), nil
}

func salted(fileDigest, secret string) string {
	sum := md5.Sum([]byte(fileDigest + secrets.DeriveKey(secret)))
	return hex.EncodeToString(sum[:])
}

// WriteManifest atomically writes m to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return fmt.Errorf("creating manifest %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return f.Close()
}

// ReadManifest loads the manifest at path. A missing, unreadable or
// malformed manifest is reported as ErrManifestInvalid.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrManifestInvalid, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrManifestInvalid, err)
	}
	if m.MD5 == "" {
		return nil, fmt.Errorf("%w: md5 is empty", kerrors.ErrManifestInvalid)
	}
	return &m, nil
}

// VerifyStartup recomputes the fingerprint of containerPath and compares it
// with the manifest at manifestPath. Any manifest problem counts as a
// mismatch.
func VerifyStartup(containerPath, manifestPath, secret string) error {
	m, err := ReadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIntegrityMismatch, err)
	}

	got, err := FingerprintSync(containerPath, secret)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIntegrityMismatch, err)
	}

	if got != m.MD5 {
		return kerrors.ErrIntegrityMismatch
	}
	return nil
}
