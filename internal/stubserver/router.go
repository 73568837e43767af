package stubserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRoutes configures every endpoint of the storage service contract
func (s *Server) setupRoutes() *chi.Mux {
	router := chi.NewRouter()

	// Standard middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Health check
	router.Get("/health", s.HealthCheck)

	router.Route("/api", func(api chi.Router) {
		api.Get("/public-config", s.PublicConfig)

		api.Route("/items", func(items chi.Router) {
			items.Get("/", s.ListItems)
			items.Put("/{id}/rename", s.RenameItem)
			items.Delete("/{id}", s.DeleteItem)
		})

		api.Post("/directories", s.CreateDirectory)
		api.Post("/upload", s.Upload)
		api.Get("/download/{id}", s.Download)
	})

	return router
}

// requestLogger logs one line per request through the server logger
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
