package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// NewRouter wires every route. Upload and file routes require a bearer
// access token.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.log))
	r.Use(MetricsMiddleware())
	r.Use(cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}).Handler)

	r.Get("/health/live", h.live)
	r.Get("/health/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)
		r.Post("/auth/refresh", h.refresh)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(h.users))

			r.Post("/uploads/credentials", h.issueCredential)
			r.Post("/uploads", h.uploadMultipart)
			r.Put("/uploads/raw", h.uploadRaw)

			r.Post("/files", h.saveRecord)
			r.Get("/files", h.listRecords)
			r.Get("/files/{id}", h.getRecord)
			r.Put("/files/{id}", h.updateRecord)
			r.Delete("/files/{id}", h.deleteRecord)
		})
	})

	return r
}
