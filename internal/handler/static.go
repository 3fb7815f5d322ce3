package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atomity/research-server-go/internal/middleware"
)

// Pages that require a signed-in researcher. Anything else under the
// SPA is public.
var gatedPages = map[string]bool{
	"reserve":  true,
	"research": true,
}

type SPAHandler struct {
	staticDir string
	indexFile string
}

func NewSPAHandler(staticDir string) *SPAHandler {
	return &SPAHandler{
		staticDir: staticDir,
		indexFile: "index.html",
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		path = "/"
	}

	if strings.HasPrefix(path, "api/") || strings.HasPrefix(path, "v1/") {
		http.NotFound(w, r)
		return
	}

	page := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
	if gatedPages[page] && middleware.GetResearcher(r.Context()) == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	filePath := filepath.Join(h.staticDir, path)

	info, err := os.Stat(filePath)
	if err == nil && !info.IsDir() {
		http.ServeFile(w, r, filePath)
		return
	}

	indexPath := filepath.Join(h.staticDir, h.indexFile)
	if _, err := os.Stat(indexPath); err != nil {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, indexPath)
}
