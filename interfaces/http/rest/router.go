// Package rest exposes the ingestion and query surface over HTTP, wiring
// chi routes to mediator commands and queries.
package rest

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"

	"github.com/kgraph/engine/application/mediator"
	"github.com/kgraph/engine/interfaces/http/rest/handlers"
	"github.com/kgraph/engine/internal/middleware"
)

// Router assembles the ingestion/query API behind chi.
type Router struct {
	mediator mediator.IMediator
	logger   *zap.Logger
}

func NewRouter(med mediator.IMediator, logger *zap.Logger) *Router {
	return &Router{mediator: med, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery)
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", rt.healthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		documents := handlers.NewDocumentHandler(rt.mediator, rt.logger)
		r.Post("/documents", documents.Submit)

		jobs := handlers.NewJobHandler(rt.mediator, rt.logger)
		r.Get("/jobs/{jobID}", jobs.Status)
		r.Post("/jobs/{jobID}/approve", jobs.Approve)
		r.Post("/jobs/{jobID}/cancel", jobs.Cancel)

		concepts := handlers.NewConceptHandler(rt.mediator, rt.logger)
		r.Get("/concepts/search", concepts.Search)
		r.Get("/concepts/match", concepts.SubstringMatch)
		r.Get("/concepts/{conceptID}", concepts.Details)
		r.Get("/concepts/{conceptID}/related", concepts.Related)

		r.Get("/connections", concepts.FindConnection)
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
