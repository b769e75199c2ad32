package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Vishal2827/pern-stack/internal/model"

	"github.com/rs/zerolog"
)

// StaticHandler serves the built frontend. Paths that do not name a file fall
// back to index.html so client-side routes resolve.
type StaticHandler struct {
	dir    string
	logger zerolog.Logger
}

// NewStaticHandler creates a handler serving files from dir.
func NewStaticHandler(dir string, logger zerolog.Logger) *StaticHandler {
	return &StaticHandler{
		dir:    dir,
		logger: logger.With().Str("handler", "static").Logger(),
	}
}

// ServeHTTP serves the requested file or index.html.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeFailure(w, model.ErrRouteNotFound, h.logger)
		return
	}

	if hasDotDotSegment(r.URL.Path) {
		writeFailure(w, model.ErrRouteNotFound, h.logger)
		return
	}

	name := filepath.Join(h.dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err != nil || info.IsDir() {
		name = filepath.Join(h.dir, "index.html")
	}

	http.ServeFile(w, r, name)
}

// hasDotDotSegment reports whether any path element is "..". Names that merely
// contain two dots, like app..chunk.js, are fine.
func hasDotDotSegment(p string) bool {
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
