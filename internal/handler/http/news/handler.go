package news

import (
	"context"
	"log/slog"
	"net/http"

	"feedhub/internal/handler/http/respond"
	"feedhub/internal/observability/logging"
	"feedhub/internal/usecase/aggregate"
)

// Aggregator is the read side the handlers depend on.
type Aggregator interface {
	Aggregate(ctx context.Context) aggregate.Report
	Categories() []string
}

// ListHandler serves GET /api/news.
type ListHandler struct {
	Svc    Aggregator
	Opts   Options
	Logger *slog.Logger
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respond.MethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	rep := h.Svc.Aggregate(r.Context())
	logReport(r.Context(), h.Logger, "news", rep)

	setCacheHeader(w, rep)
	respond.JSON(w, http.StatusOK, Build(rep.Result, h.Opts))
}

// CategoriesHandler serves GET /api/news/categories.
type CategoriesHandler struct {
	Svc    Aggregator
	Opts   Options
	Logger *slog.Logger
}

func (h CategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respond.MethodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	rep := h.Svc.Aggregate(r.Context())
	logReport(r.Context(), h.Logger, "news_categories", rep)

	setCacheHeader(w, rep)
	respond.JSON(w, http.StatusOK, BuildGrouped(rep.Result, h.Svc.Categories(), h.Opts))
}

func setCacheHeader(w http.ResponseWriter, rep aggregate.Report) {
	if rep.Cached {
		w.Header().Set("X-Cache", "HIT")
		return
	}
	w.Header().Set("X-Cache", "MISS")
}

func logReport(ctx context.Context, base *slog.Logger, endpoint string, rep aggregate.Report) {
	if base == nil {
		base = slog.Default()
	}
	logging.WithRequestID(ctx, base).Debug("news served",
		slog.String("endpoint", endpoint),
		slog.Bool("cached", rep.Cached),
		slog.Int("articles", rep.Result.Len()),
		slog.Int("failed_sources", rep.Failed()),
		slog.Duration("duration", rep.Duration))
}
