package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// OutputHandler serves rendered pages and reference footers.
type OutputHandler struct {
	root string
}

// NewOutputHandler creates a handler rooted at the build output directory.
func NewOutputHandler(root string) *OutputHandler {
	return &OutputHandler{root: filepath.Clean(root)}
}

// safePath validates that rel stays inside the output directory and names a
// rendered page or footer, and returns its absolute path.
func (h *OutputHandler) safePath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid path: %s", rel)
	}
	if ext := filepath.Ext(cleaned); ext != ".md" && ext != ".html" {
		return "", fmt.Errorf("unsupported file type: %s", rel)
	}
	abs := filepath.Join(h.root, cleaned)
	// Double-check the resolved path is under the output dir.
	if !strings.HasPrefix(abs, h.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes output directory")
	}
	return abs, nil
}

// ServeFile handles GET /pages/*.
func (h *OutputHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safePath(notePath(r))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if filepath.Ext(abs) == ".md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	http.ServeFile(w, r, abs)
}
