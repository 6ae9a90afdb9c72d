// Package router wires the HTTP surface: session resolution, CORS, request
// logging and Prometheus metrics around the forum handlers.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miniforum-dev/miniforum/internal/handler"
	"github.com/miniforum-dev/miniforum/shared/middleware/metrics"
)

func New(h *handler.Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(h.WithSession)

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/resume", h.Resume)

		r.Get("/state", h.State)

		r.Post("/threads", h.CreateThread)
		r.Post("/threads/{thread}/activate", h.ActivateThread)
		r.Post("/threads/deactivate", h.DeactivateThread)
		r.Delete("/threads/{thread}", h.DeleteThread)

		r.Post("/threads/{thread}/posts", h.CreatePost)
		r.Delete("/threads/{thread}/posts/{post}", h.DeletePost)
	})

	return r
}
