package resolver

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PolarWolf314/asarlock/internal/bundle"
	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	logger "github.com/PolarWolf314/asarlock/internal/logging"
	"github.com/PolarWolf314/asarlock/internal/secrets"
)

type Options struct {
	// AppDir is the directory the renderer output path is relative to.
	AppDir string
	Config *configs.EncryptorConfig
	Logger logger.Logger
}

// Resource is one decrypted asset.
type Resource struct {
	Path     string
	Data     []byte
	MimeType string

	etag string
}

type entry struct {
	data []byte
	etag string
}

type Resolver struct {
	opts Options

	once    sync.Once
	entries map[string]entry
	total   int64
}

func New(opts Options) *Resolver {
	if opts.Config == nil {
		opts.Config = configs.Default()
	}
	return &Resolver{opts: opts}
}

// BundlePath is the absolute location of the encrypted renderer bundle.
func (r *Resolver) BundlePath() string {
	return filepath.Join(r.opts.AppDir, filepath.FromSlash(r.opts.Config.Renderer.Output))
}

// Load decrypts the bundle on the first call and does nothing afterwards.
func (r *Resolver) Load() {
	r.once.Do(func() {
		r.entries = map[string]entry{}

		files, err := r.read()
		if err != nil {
			r.opts.Logger.Errorf("read %s failed: %v", r.BundlePath(), err)
			return
		}
		for name, data := range files {
			r.entries[name] = entry{data: data, etag: etag(data)}
			r.total += int64(len(data))
		}
		r.opts.Logger.Debugf("loaded %d renderer assets from %s", len(r.entries), r.BundlePath())
	})
}

func (r *Resolver) read() (map[string][]byte, error) {
	envelope, err := os.ReadFile(r.BundlePath())
	if err != nil {
		return nil, err
	}
	plain, err := secrets.Decrypt(envelope, r.opts.Config.Key)
	if err != nil {
		return nil, err
	}
	return bundle.Unpack(plain)
}

// Len returns the number of loaded assets.
func (r *Resolver) Len() int {
	r.Load()
	return len(r.entries)
}

// Size returns the total decrypted size of the loaded assets.
func (r *Resolver) Size() int64 {
	r.Load()
	return r.total
}

// Resolve maps a virtual-scheme URL to its asset.
func (r *Resolver) Resolve(requestURL string) (*Resource, error) {
	r.Load()

	key := Normalize(r.opts.Config.Protocol, requestURL)
	e, ok := r.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrResourceNotFound, key)
	}
	return &Resource{Path: key, Data: e.data, MimeType: mimeType(key), etag: e.etag}, nil
}

// Normalize turns a request URL into a bundle key: the "<protocol>://apps/"
// prefix is removed, the query and fragment are dropped, a
// "<protocol>://./" self reference is removed and the remainder is
// percent-decoded when it decodes cleanly.
func Normalize(protocol, requestURL string) string {
	key := strings.Replace(requestURL, protocol+"://apps/", "", 1)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	key = strings.Replace(key, protocol+"://./", "", 1)

	if decoded, err := url.PathUnescape(key); err == nil {
		key = decoded
	}
	return key
}

func mimeType(name string) string {
	return mime.TypeByExtension(path.Ext(name))
}
