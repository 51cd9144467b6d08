package asar

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	"github.com/facebookgo/atomicfile"
)

// UnpackedDir returns the sidecar directory for files stored outside archivePath.
func UnpackedDir(archivePath string) string {
	return archivePath + ".unpacked"
}

// Pack writes the tree under dir into archivePath, replacing it atomically.
func Pack(dir, archivePath string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}

	p := &packer{realRoot: realRoot, unpackedDir: UnpackedDir(archivePath)}
	header := newDir()
	if err := p.addDir(root, "", header); err != nil {
		return err
	}

	encoded, err := encodeHeader(header)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return err
	}
	out, err := atomicfile.New(archivePath, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", archivePath, err)
	}
	if err := p.write(out, encoded); err != nil {
		out.Abort()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("committing %s: %w", archivePath, err)
	}
	return nil
}

type packedFile struct {
	abs  string
	rel  string
	size int64
}

type packer struct {
	realRoot    string
	unpackedDir string
	offset      int64
	packed      []packedFile
	unpacked    []packedFile
}

func (p *packer) addDir(dir, rel string, node *Entry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, de := range entries {
		name := de.Name()
		abs := filepath.Join(dir, name)
		relPath := path.Join(rel, name)

		info, err := os.Lstat(abs)
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			link, err := p.linkTarget(abs)
			if err != nil {
				return err
			}
			node.Files[name] = &Entry{Link: link}

		case info.IsDir():
			child := newDir()
			node.Files[name] = child
			if err := p.addDir(abs, relPath, child); err != nil {
				return err
			}

		case info.Mode().IsRegular():
			entry, err := p.fileEntry(abs, relPath, info)
			if err != nil {
				return err
			}
			node.Files[name] = entry
		}
	}
	return nil
}

func (p *packer) fileEntry(abs, rel string, info os.FileInfo) (*Entry, error) {
	integrity, err := hashFile(abs)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Size:       info.Size(),
		Executable: runtime.GOOS != "windows" && info.Mode()&0100 != 0,
		Integrity:  integrity,
	}
	f := packedFile{abs: abs, rel: rel, size: info.Size()}

	if p.isUnpacked(rel) {
		entry.Unpacked = true
		p.unpacked = append(p.unpacked, f)
		return entry, nil
	}

	entry.Offset = strconv.FormatInt(p.offset, 10)
	p.offset += info.Size()
	p.packed = append(p.packed, f)
	return entry, nil
}

func (p *packer) isUnpacked(rel string) bool {
	info, err := os.Stat(filepath.Join(p.unpackedDir, filepath.FromSlash(rel)))
	return err == nil && info.Mode().IsRegular()
}

func (p *packer) linkTarget(abs string) (string, error) {
	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving link %s: %w", abs, err)
	}
	rel, err := filepath.Rel(p.realRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%s links outside the package", abs)
	}
	return filepath.ToSlash(rel), nil
}

func (p *packer) write(out io.Writer, header []byte) error {
	if _, err := out.Write(header); err != nil {
		return err
	}
	for _, f := range p.packed {
		if err := copyExactly(out, f); err != nil {
			return err
		}
	}
	for _, f := range p.unpacked {
		if err := p.refreshUnpacked(f); err != nil {
			return err
		}
	}
	return nil
}

// refreshUnpacked keeps the sidecar copy in step with the packed tree.
func (p *packer) refreshUnpacked(f packedFile) error {
	dst := filepath.Join(p.unpackedDir, filepath.FromSlash(f.rel))
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("updating unpacked %s: %w", f.rel, err)
	}
	defer out.Close()
	return copyExactly(out, f)
}

func copyExactly(w io.Writer, f packedFile) error {
	in, err := os.Open(f.abs)
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := io.CopyN(w, in, f.size); err != nil {
		return fmt.Errorf("copying %s: %w", f.rel, err)
	}
	return nil
}

func hashFile(p string) (*Integrity, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := newIntegrityHasher()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", p, err)
	}
	return h.result(), nil
}

// Archive is an open asar file.
type Archive struct {
	Header *Entry

	path string
	f    *os.File
	base int64
	size int64
}

// Open reads the header of the archive at p.
func Open(p string) (*Archive, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	header, base, err := decodeHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", p, err)
	}
	return &Archive{Header: header, path: p, f: f, base: base, size: info.Size()}, nil
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	return a.f.Close()
}

// Walk calls fn for every entry in lexical order with its slash-separated path.
func (a *Archive) Walk(fn func(name string, e *Entry) error) error {
	return walkEntries("", a.Header, fn)
}

func walkEntries(prefix string, dir *Entry, fn func(string, *Entry) error) error {
	names := make([]string, 0, len(dir.Files))
	for name := range dir.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !validName(name) {
			return fmt.Errorf("%w: entry name %q", kerrors.ErrInvalidArchive, name)
		}
		e := dir.Files[name]
		if e == nil {
			return fmt.Errorf("%w: empty entry %q", kerrors.ErrInvalidArchive, name)
		}
		full := path.Join(prefix, name)
		if err := fn(full, e); err != nil {
			return err
		}
		if e.IsDir() {
			if err := walkEntries(full, e, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Files lists the paths of all regular files.
func (a *Archive) Files() []string {
	var files []string
	_ = a.Walk(func(name string, e *Entry) error {
		if !e.IsDir() && !e.IsLink() {
			files = append(files, name)
		}
		return nil
	})
	return files
}

func (a *Archive) lookup(name string) (*Entry, error) {
	node := a.Header
	for _, part := range strings.Split(strings.Trim(name, "/"), "/") {
		if !node.IsDir() {
			return nil, os.ErrNotExist
		}
		next, ok := node.Files[part]
		if !ok || next == nil {
			return nil, os.ErrNotExist
		}
		node = next
	}
	return node, nil
}

// ReadFile returns the contents of the file at name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	e, err := a.lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if e.IsDir() || e.IsLink() {
		return nil, fmt.Errorf("%s is not a regular file", name)
	}
	return a.readEntry(name, e)
}

func (a *Archive) readEntry(name string, e *Entry) ([]byte, error) {
	if e.Unpacked {
		return os.ReadFile(filepath.Join(UnpackedDir(a.path), filepath.FromSlash(name)))
	}

	offset, err := strconv.ParseInt(e.Offset, 10, 64)
	if err != nil || offset < 0 || e.Size < 0 {
		return nil, fmt.Errorf("%w: bad offset for %s", kerrors.ErrInvalidArchive, name)
	}
	// Checked before allocating so a forged size cannot exceed the file.
	if avail := a.size - a.base; offset > avail || e.Size > avail-offset {
		return nil, fmt.Errorf("%w: %s extends past the end of the archive", kerrors.ErrInvalidArchive, name)
	}
	buf := make([]byte, e.Size)
	if _, err := a.f.ReadAt(buf, a.base+offset); err != nil && !(err == io.EOF && e.Size == 0) {
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrInvalidArchive, name, err)
	}
	return buf, nil
}

// Extract writes every entry below dir.
func (a *Archive) Extract(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return a.Walk(func(name string, e *Entry) error {
		dest := filepath.Join(dir, filepath.FromSlash(name))

		switch {
		case e.IsDir():
			return os.MkdirAll(dest, 0755)

		case e.IsLink():
			link := path.Clean(e.Link)
			if link == ".." || strings.HasPrefix(link, "../") || path.IsAbs(link) {
				return fmt.Errorf("%w: link %s points outside the archive", kerrors.ErrInvalidArchive, name)
			}
			rel, err := filepath.Rel(filepath.Dir(dest), filepath.Join(dir, filepath.FromSlash(link)))
			if err != nil {
				return err
			}
			return os.Symlink(rel, dest)

		default:
			data, err := a.readEntry(name, e)
			if err != nil {
				return err
			}
			mode := os.FileMode(0644)
			if e.Executable {
				mode = 0755
			}
			return os.WriteFile(dest, data, mode)
		}
	})
}

// Extract unpacks the archive at archivePath into dir.
func Extract(archivePath, dir string) error {
	a, err := Open(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Extract(dir)
}
