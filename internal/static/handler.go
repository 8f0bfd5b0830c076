// Package static serves a compiled web console build directory. The
// build is a single-page app: any path without a file extension is
// client-side routing territory and gets index.html.
package static

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"
)

var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".css":   "text/css",
	".json":  "application/json",
	".map":   "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".txt":   "text/plain; charset=utf-8",
}

// Handler serves files from a build tree.
type Handler struct {
	fsys   fs.FS
	logger *zap.Logger
}

// NewHandler creates a handler over the given filesystem, typically
// os.DirFS of the build directory.
func NewHandler(fsys fs.FS, logger *zap.Logger) *Handler {
	return &Handler{fsys: fsys, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" || name == "." {
		name = "index.html"
	}

	// Dotless paths are app routes, not files.
	if path.Ext(name) == "" {
		name = "index.html"
	}

	data, err := fs.ReadFile(h.fsys, name)
	if err != nil {
		h.logger.Debug("static file not found", zap.String("path", name))
		http.NotFound(w, r)
		return
	}

	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	_, _ = w.Write(data)
}
