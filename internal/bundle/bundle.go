package bundle

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// entryTime is stamped on every entry to keep packing reproducible.
var entryTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Pack zips every regular file under dir. Entry names are slash-separated
// paths relative to dir.
func Pack(dir string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, dir); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the zip of dir into w.
func Write(w io.Writer, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("reading bundle root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bundle root %s is not a directory", dir)
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	// WalkDir visits entries in lexical order.
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return addFile(zw, p, filepath.ToSlash(rel))
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("packing %s: %w", dir, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing bundle: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: entryTime,
	}
	header.SetMode(0644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// Unpack reads a zip buffer into a mapping of virtual path to content.
// Directory entries are skipped.
func Unpack(buf []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidArchive, err)
	}

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrInvalidArchive, f.Name, err)
		}
		files[f.Name] = data
	}
	return files, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Extract writes an unpacked mapping below dir. Entries that would escape
// dir are rejected.
func Extract(files map[string][]byte, dir string) error {
	for name, data := range files {
		clean := path.Clean("/" + name)
		target := filepath.Join(dir, filepath.FromSlash(clean))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry %q escapes destination", kerrors.ErrInvalidArchive, name)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		// #nosec G306 -- extracted assets are meant to be inspected by the operator
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}
	return nil
}
