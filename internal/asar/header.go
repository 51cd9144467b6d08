package asar

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"strings"

	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
)

// BlockSize is the integrity block size Electron expects.
const BlockSize = 4 * 1024 * 1024

const maxHeaderSize = 256 * 1024 * 1024

// Entry is one node of the archive header.
type Entry struct {
	Files      map[string]*Entry `json:"files"`
	Size       int64             `json:"size"`
	Offset     string            `json:"offset"`
	Unpacked   bool              `json:"unpacked"`
	Executable bool              `json:"executable"`
	Link       string            `json:"link"`
	Integrity  *Integrity        `json:"integrity"`
}

// Integrity is the per-file hash block Electron validates when the asar
// integrity fuse is enabled.
type Integrity struct {
	Algorithm string   `json:"algorithm"`
	Hash      string   `json:"hash"`
	BlockSize int      `json:"blockSize"`
	Blocks    []string `json:"blocks"`
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool { return e.Files != nil }

// IsLink reports whether the entry is a symlink.
func (e *Entry) IsLink() bool { return e.Files == nil && e.Link != "" }

// MarshalJSON emits only the keys that apply to the entry kind, which keeps
// empty directories as {"files":{}} and leaves offsets off unpacked files.
func (e *Entry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 4)
	switch {
	case e.IsDir():
		m["files"] = e.Files
	case e.IsLink():
		m["link"] = e.Link
	default:
		m["size"] = e.Size
		if e.Unpacked {
			m["unpacked"] = true
		} else {
			m["offset"] = e.Offset
		}
		if e.Executable {
			m["executable"] = true
		}
		if e.Integrity != nil {
			m["integrity"] = e.Integrity
		}
	}
	return json.Marshal(m)
}

func newDir() *Entry {
	return &Entry{Files: make(map[string]*Entry)}
}

// integrityHasher computes the whole-file and per-block SHA256 sums.
type integrityHasher struct {
	whole   hash.Hash
	block   hash.Hash
	inBlock int
	blocks  []string
}

func newIntegrityHasher() *integrityHasher {
	return &integrityHasher{whole: sha256.New(), block: sha256.New()}
}

func (h *integrityHasher) Write(p []byte) (int, error) {
	n := len(p)
	h.whole.Write(p)
	for len(p) > 0 {
		room := BlockSize - h.inBlock
		chunk := p
		if len(chunk) > room {
			chunk = p[:room]
		}
		h.block.Write(chunk)
		h.inBlock += len(chunk)
		p = p[len(chunk):]
		if h.inBlock == BlockSize {
			h.flushBlock()
		}
	}
	return n, nil
}

func (h *integrityHasher) flushBlock() {
	h.blocks = append(h.blocks, hex.EncodeToString(h.block.Sum(nil)))
	h.block.Reset()
	h.inBlock = 0
}

func (h *integrityHasher) result() *Integrity {
	// The trailing partial block is always recorded, so an empty file has one block.
	if h.inBlock > 0 || len(h.blocks) == 0 {
		h.flushBlock()
	}
	return &Integrity{
		Algorithm: "SHA256",
		Hash:      hex.EncodeToString(h.whole.Sum(nil)),
		BlockSize: BlockSize,
		Blocks:    h.blocks,
	}
}

// encodeHeader serializes the header tree into the two leading pickles.
func encodeHeader(root *Entry) ([]byte, error) {
	headerJSON, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}

	padded := align4(len(headerJSON))
	headerPickle := make([]byte, 8+padded)
	binary.LittleEndian.PutUint32(headerPickle[0:4], uint32(4+padded))
	binary.LittleEndian.PutUint32(headerPickle[4:8], uint32(len(headerJSON)))
	copy(headerPickle[8:], headerJSON)

	out := make([]byte, 8, 8+len(headerPickle))
	binary.LittleEndian.PutUint32(out[0:4], 4)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(headerPickle)))
	return append(out, headerPickle...), nil
}

// decodeHeader reads the pickles from r and returns the header tree and the
// absolute offset at which file contents start.
func decodeHeader(r io.ReaderAt) (*Entry, int64, error) {
	var sizePickle [8]byte
	if _, err := r.ReadAt(sizePickle[:], 0); err != nil {
		return nil, 0, fmt.Errorf("%w: reading size pickle: %v", kerrors.ErrInvalidArchive, err)
	}
	if binary.LittleEndian.Uint32(sizePickle[0:4]) != 4 {
		return nil, 0, fmt.Errorf("%w: unexpected size pickle", kerrors.ErrInvalidArchive)
	}
	headerSize := int64(binary.LittleEndian.Uint32(sizePickle[4:8]))
	if headerSize < 8 || headerSize > maxHeaderSize {
		return nil, 0, fmt.Errorf("%w: header size %d out of range", kerrors.ErrInvalidArchive, headerSize)
	}

	headerPickle := make([]byte, headerSize)
	if _, err := r.ReadAt(headerPickle, 8); err != nil {
		return nil, 0, fmt.Errorf("%w: reading header: %v", kerrors.ErrInvalidArchive, err)
	}
	strLen := int64(binary.LittleEndian.Uint32(headerPickle[4:8]))
	if 8+strLen > headerSize {
		return nil, 0, fmt.Errorf("%w: header string overruns pickle", kerrors.ErrInvalidArchive)
	}

	root := &Entry{}
	if err := json.Unmarshal(headerPickle[8:8+strLen], root); err != nil {
		return nil, 0, fmt.Errorf("%w: parsing header: %v", kerrors.ErrInvalidArchive, err)
	}
	if !root.IsDir() {
		return nil, 0, fmt.Errorf("%w: header root is not a directory", kerrors.ErrInvalidArchive)
	}
	return root, 8 + headerSize, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// validName rejects header names that could escape the extraction root.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
