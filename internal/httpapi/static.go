package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// StaticHandler serves the frontend assets from dir. Paths that do not match
// a file fall back to index.html so client-side routing keeps working.
func StaticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeMethodNotAllowed(w)
			return
		}

		clean := filepath.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		if clean == "." || clean == ".." || strings.HasPrefix(clean, "..") {
			http.ServeFile(w, r, index)
			return
		}

		if info, err := os.Stat(filepath.Join(dir, clean)); err != nil || info.IsDir() {
			http.ServeFile(w, r, index)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
