package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	// routes without authorization
	router.Get("/api/health", h.health)

	router.Route("/api/docs", func(r chi.Router) {
		r.Use(h.auth)

		// the change feed is a long-lived websocket and bypasses
		// compression and request timeouts
		r.Get("/{collection}/subscribe", h.subscribe)

		r.Group(func(r chi.Router) {
			r.Use(withGZip)
			if h.requestTimeout > 0 {
				r.Use(middleware.Timeout(h.requestTimeout))
			}

			r.Post("/batch", h.batchWrite)
			r.Get("/{collection}", h.list)
			r.Get("/{collection}/{id}", h.get)
			r.Put("/{collection}/{id}", h.set)
			r.Patch("/{collection}/{id}", h.update)
			r.Delete("/{collection}/{id}", h.delete)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod())

	return router
}
