package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dockwatch/app"
	"dockwatch/internal"
)

// App is the HTTP surface over the application services. It is a thin
// JSON API; all behavior lives in the app and domain layers.
type App struct {
	router   *chi.Mux
	jobs     *app.JobService
	analysis *app.AnalysisService
	anchors  *app.AnchorService
	log      *internal.Logger
}

// NewApp wires the API application. anchors may be nil when no signer is
// configured; the anchoring routes then report the feature as unavailable.
func NewApp(jobs *app.JobService, analysis *app.AnalysisService, anchors *app.AnchorService, log *internal.Logger) *App {
	a := &App{
		router:   chi.NewRouter(),
		jobs:     jobs,
		analysis: analysis,
		anchors:  anchors,
		log:      log,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	// Job endpoints
	a.router.Post("/api/jobs", a.handleSubmitJob)
	a.router.Get("/api/jobs", a.handleListJobs)
	a.router.Get("/api/jobs/{id}", a.handleGetJob)
	a.router.Get("/api/jobs/{id}/results", a.handleJobResults)
	a.router.Post("/api/jobs/{id}/analyze", a.handleAnalyzeJob)

	// Statistics endpoints
	a.router.Get("/api/jobs/{id}/statistics", a.handleJobStatistics)
	a.router.Post("/api/statistics/compare", a.handleCompareJobs)
	a.router.Get("/api/statistics/trend", a.handleTrend)

	// Report endpoint
	a.router.Post("/api/report/generate", a.handleGenerateReport)

	// Anchoring endpoints
	a.router.Post("/api/jobs/{id}/anchor", a.handleAnchorReport)
	a.router.Get("/api/jobs/{id}/anchor", a.handleVerifyJobAnchor)
	a.router.Get("/api/blockchain/verify/{signature}", a.handleVerifySignature)
}

// Start starts the HTTP server on the given port.
func (a *App) Start(port string) error {
	addr := ":" + port
	a.log.Info("starting dockwatch API server on %s", addr)
	return http.ListenAndServe(addr, a.router)
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}
