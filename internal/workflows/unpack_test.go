package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/asarlock/internal/bundle"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/PolarWolf314/asarlock/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encryptedBundle(t *testing.T, key string) string {
	t.Helper()
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"renderer/index.html": "<html></html>",
		"renderer/app.js":     "run()",
	})
	packed, err := bundle.Pack(src)
	require.NoError(t, err)
	envelope, err := secrets.Encrypt(packed, key)
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "renderer.pak")
	require.NoError(t, os.WriteFile(p, envelope, 0644))
	return p
}

func TestUnpack(t *testing.T) {
	pak := encryptedBundle(t, testKey)
	out := filepath.Join(t.TempDir(), "out")

	result, err := Unpack(context.Background(), UnpackOptions{BundlePath: pak, OutDir: out, Key: testKey})
	require.NoError(t, err)
	assert.Equal(t, []string{"renderer/app.js", "renderer/index.html"}, result.Files)
	assert.Equal(t, int64(len("<html></html>")+len("run()")), result.Size)

	data, err := os.ReadFile(filepath.Join(out, "renderer", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestUnpack_DryRun(t *testing.T) {
	pak := encryptedBundle(t, testKey)
	out := filepath.Join(t.TempDir(), "out")

	result, err := Unpack(context.Background(), UnpackOptions{BundlePath: pak, OutDir: out, Key: testKey, DryRun: true})
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
	assert.NoDirExists(t, out)
}

func TestUnpack_Errors(t *testing.T) {
	pak := encryptedBundle(t, testKey)

	_, err := Unpack(context.Background(), UnpackOptions{BundlePath: pak, OutDir: t.TempDir(), Key: "wrong"})
	assert.ErrorIs(t, err, kerrors.ErrDecryptFailed)

	_, err = Unpack(context.Background(), UnpackOptions{BundlePath: pak, OutDir: t.TempDir()})
	assert.ErrorIs(t, err, kerrors.ErrMissingSecret)

	_, err = Unpack(context.Background(), UnpackOptions{BundlePath: filepath.Join(t.TempDir(), "nope.pak"), Key: testKey})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
