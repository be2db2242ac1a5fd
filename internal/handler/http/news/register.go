package news

import (
	"log/slog"
	"net/http"
)

// Register mounts the news endpoints on mux.
func Register(mux *http.ServeMux, svc Aggregator, opts Options, logger *slog.Logger) {
	mux.Handle("/api/news", ListHandler{Svc: svc, Opts: opts, Logger: logger})
	mux.Handle("/api/news/categories", CategoriesHandler{Svc: svc, Opts: opts, Logger: logger})
}
