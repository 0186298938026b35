package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Web routes serve HTML at / and /app/* paths.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Form)
	mux.HandleFunc("POST /app/runs", h.StartRun)
	mux.HandleFunc("GET /app/runs/{id}", h.RunPage)
	mux.HandleFunc("GET /app/runs/{id}/progress", h.RunProgress)
	mux.HandleFunc("POST /app/runs/{id}/cancel", h.CancelRun)
	mux.HandleFunc("GET /app/history", h.History)
}
