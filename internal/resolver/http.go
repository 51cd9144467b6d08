package resolver

import (
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// Handler serves the bundle over HTTP. Each request path is turned into a
// virtual-scheme URL and resolved like a request from the app, so "/" serves
// index.html and "/./assets/app.js" serves assets/app.js.
func (r *Resolver) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		res, err := r.Resolve(r.schemeURL(req))
		if err != nil {
			r.opts.Logger.Debugf("serve %s: %v", req.URL.Path, err)
			http.NotFound(w, req)
			return
		}

		w.Header().Set("ETag", res.etag)
		if match := req.Header.Get("If-None-Match"); match != "" && etagMatches(match, res.etag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		contentType := res.MimeType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
		w.WriteHeader(http.StatusOK)
		if req.Method == http.MethodGet {
			_, _ = w.Write(res.Data)
		}
	})
}

// schemeURL rebuilds the URL the app would have requested for req. The path
// stays escaped so Normalize decodes it exactly once.
func (r *Resolver) schemeURL(req *http.Request) string {
	p := strings.TrimPrefix(req.URL.EscapedPath(), "/")
	if p == "" {
		p = "index.html"
	}
	if strings.HasPrefix(p, "./") {
		return r.opts.Config.Protocol + "://" + p
	}
	return r.opts.Config.Protocol + "://apps/" + p
}

func etag(data []byte) string {
	sum := blake3.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
