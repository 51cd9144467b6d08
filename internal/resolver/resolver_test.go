package resolver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PolarWolf314/asarlock/internal/bundle"
	"github.com/PolarWolf314/asarlock/internal/configs"
	kerrors "github.com/PolarWolf314/asarlock/internal/errors"
	logger "github.com/PolarWolf314/asarlock/internal/logging"
	"github.com/PolarWolf314/asarlock/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assets = map[string]string{
	"index.html":         "<html></html>",
	"assets/app.js":      "console.log(1)",
	"assets/logo 2x.svg": "<svg/>",
}

func testConfig(key string) *configs.EncryptorConfig {
	cfg := configs.Default()
	cfg.Key = key
	cfg.Protocol = "myclient"
	return cfg
}

// writeBundle encrypts assets into appDir at the default renderer output.
func writeBundle(t *testing.T, appDir, key string) {
	t.Helper()
	src := t.TempDir()
	for name, content := range assets {
		p := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	packed, err := bundle.Pack(src)
	require.NoError(t, err)
	envelope, err := secrets.Encrypt(packed, key)
	require.NoError(t, err)

	out := filepath.Join(appDir, filepath.FromSlash(configs.DefaultRendererOutput))
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0755))
	require.NoError(t, os.WriteFile(out, envelope, 0644))
}

func newLoaded(t *testing.T) *Resolver {
	t.Helper()
	appDir := t.TempDir()
	writeBundle(t, appDir, "k1")
	return New(Options{AppDir: appDir, Config: testConfig("k1")})
}

func TestResolve(t *testing.T) {
	r := newLoaded(t)

	res, err := r.Resolve("myclient://apps/index.html?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "index.html", res.Path)
	assert.Equal(t, "<html></html>", string(res.Data))
	assert.Contains(t, res.MimeType, "text/html")

	res, err = r.Resolve("myclient://./assets/app.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log(1)", string(res.Data))

	res, err = r.Resolve("myclient://apps/assets/logo%202x.svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(res.Data))

	_, err = r.Resolve("myclient://apps/missing.css")
	assert.ErrorIs(t, err, kerrors.ErrResourceNotFound)

	assert.Equal(t, len(assets), r.Len())
	assert.Equal(t, int64(len("<html></html>")+len("console.log(1)")+len("<svg/>")), r.Size())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"myclient://apps/index.html", "index.html"},
		{"myclient://apps/app/index.html?x=1#frag", "app/index.html"},
		{"myclient://apps/index.html#a?b", "index.html"},
		{"myclient://./main.js", "main.js"},
		{"myclient://apps/a%20b.txt", "a b.txt"},
		{"myclient://apps/100%.txt", "100%.txt"},
		{"other://apps/index.html", "other://apps/index.html"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize("myclient", tc.in), tc.in)
	}
}

func TestLoad_MissingBundleIsNotRetried(t *testing.T) {
	appDir := t.TempDir()
	var stderr bytes.Buffer
	r := New(Options{AppDir: appDir, Config: testConfig("k1"), Logger: logger.Logger{Err: &stderr}})

	_, err := r.Resolve("myclient://apps/index.html")
	assert.ErrorIs(t, err, kerrors.ErrResourceNotFound)
	assert.Contains(t, stderr.String(), "renderer.pak")

	// The bundle appearing later does not trigger a reload.
	writeBundle(t, appDir, "k1")
	_, err = r.Resolve("myclient://apps/index.html")
	assert.ErrorIs(t, err, kerrors.ErrResourceNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestLoad_WrongKey(t *testing.T) {
	appDir := t.TempDir()
	writeBundle(t, appDir, "k1")

	var stderr bytes.Buffer
	r := New(Options{AppDir: appDir, Config: testConfig("k2"), Logger: logger.Logger{Err: &stderr}})

	_, err := r.Resolve("myclient://apps/index.html")
	assert.ErrorIs(t, err, kerrors.ErrResourceNotFound)
	assert.NotEmpty(t, stderr.String())
}

func TestResolve_Concurrent(t *testing.T) {
	r := newLoaded(t)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := r.Resolve(fmt.Sprintf("myclient://apps/index.html?n=%d", i))
			if err != nil {
				errs <- err
				return
			}
			if string(res.Data) != "<html></html>" {
				errs <- fmt.Errorf("unexpected body %q", res.Data)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(newLoaded(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	tag := resp.Header.Get("ETag")
	require.NotEmpty(t, tag)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/index.html", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", `"stale", `+tag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/assets/logo%202x.svg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/missing.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/index.html", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandler_ResolvesSchemePaths(t *testing.T) {
	h := newLoaded(t).Handler()

	tests := []struct {
		target string
		status int
		body   string
		mime   string
	}{
		{"/./assets/app.js", http.StatusOK, "console.log(1)", "javascript"},
		{"/assets/app.js?v=3", http.StatusOK, "console.log(1)", "javascript"},
		{"/assets/logo%202x.svg", http.StatusOK, "<svg/>", "image/svg+xml"},
		{"/assets/logo%25202x.svg", http.StatusNotFound, "", ""},
		{"/./missing.js", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.mime)
			}
		})
	}
}

func TestEtag(t *testing.T) {
	a := etag([]byte("a"))
	assert.Equal(t, a, etag([]byte("a")))
	assert.NotEqual(t, a, etag([]byte("b")))
	assert.Len(t, a, 34)
	assert.True(t, etagMatches("W/"+a, a))
	assert.True(t, etagMatches("*", a))
	assert.False(t, etagMatches(`"nope"`, a))
}
