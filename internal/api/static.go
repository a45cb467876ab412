package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yegors/daily-sky/pkg/logger"
)

// StaticFileHandler serves the front-end build. Unknown paths without a file
// extension fall back to index.html so client-side routes resolve.
type StaticFileHandler struct {
	staticDir string
	logger    *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(staticDir string, log *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		staticDir: staticDir,
		logger:    log.Named("static-handler"),
	}
}

// ServeHTTP serves a file from the static directory
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// path.Clean on a rooted path cannot climb above "/"
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if rel == "" {
		rel = "index.html"
	}

	root, err := filepath.Abs(h.staticDir)
	if err != nil {
		h.logger.Error("Failed to resolve static directory", logger.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	fullPath := filepath.Join(root, filepath.FromSlash(rel))
	if fullPath != root && !strings.HasPrefix(fullPath, root+string(filepath.Separator)) {
		h.logger.Warn("Rejected path outside static directory", logger.String("requested_path", r.URL.Path))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(fullPath)
	switch {
	case err == nil && info.IsDir():
		fullPath = filepath.Join(fullPath, "index.html")
		if _, err := os.Stat(fullPath); err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	case os.IsNotExist(err) && filepath.Ext(rel) == "":
		fullPath = filepath.Join(root, "index.html")
	case err != nil:
		h.logger.Debug("File not found", logger.String("path", fullPath))
		http.NotFound(w, r)
		return
	}

	// index.html must always be revalidated so new builds are picked up
	if filepath.Base(fullPath) == "index.html" {
		w.Header().Set("Cache-Control", "no-cache")
	}

	h.logger.Debug("Serving static file",
		logger.String("requested_path", r.URL.Path),
		logger.String("file_path", fullPath))

	http.ServeFile(w, r, fullPath)
}
