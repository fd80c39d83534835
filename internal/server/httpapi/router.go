package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediagate/internal/logging"
	"github.com/dmitrijs2005/mediagate/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators behind the HTTP routes.
type Deps struct {
	Issuer  TokenIssuer
	Upload  http.Handler
	Metrics *metrics.Metrics
	Logger  logging.Logger

	// GuardSecret enables the bearer guard on /api/auth when non-empty.
	GuardSecret string

	// Files, when set, serves stored media read-only under FilesPrefix.
	Files       http.Handler
	FilesPrefix string
}

// NewRouter builds the chi router for the server.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With("module", "httpapi")

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger, d.Metrics))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	r.Group(func(r chi.Router) {
		if d.GuardSecret != "" {
			r.Use(requireBearer([]byte(d.GuardSecret), logger))
		}
		r.Get("/api/auth", authHandler(d.Issuer, d.Metrics, logger))
	})

	r.Method(http.MethodPost, "/api/v1/files/upload", d.Upload)

	if d.Files != nil && d.FilesPrefix != "" {
		prefix := "/" + strings.Trim(d.FilesPrefix, "/")
		r.Method(http.MethodGet, prefix+"/*", http.StripPrefix(prefix, d.Files))
	}

	return r
}
