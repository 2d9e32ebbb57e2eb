package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"git-repo-analytics/internal/config"
	"git-repo-analytics/internal/database"
	"git-repo-analytics/internal/queue"
)

type Handler struct {
	db          *database.DB
	publisher   queue.IPublisher
	httpCfg     config.HTTPConfig
	analyzerCfg config.AnalyzerConfig
	router      chi.Router
	handler     http.Handler
}

func NewHandler(db *database.DB, publisher queue.IPublisher, httpCfg config.HTTPConfig, analyzerCfg config.AnalyzerConfig) *Handler {
	h := &Handler{
		db:          db,
		publisher:   publisher,
		httpCfg:     httpCfg,
		analyzerCfg: analyzerCfg,
		router:      chi.NewRouter(),
	}
	h.registerRoutes()
	h.handler = Logger(CORS(h.router))
	return h
}

func (h *Handler) registerRoutes() {
	// Health check
	h.router.Get("/ping", h.Ping)

	h.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/queue/length", h.GetQueueLength)

		r.Route("/repositories", func(r chi.Router) {
			r.Post("/", h.CreateRepository)
			r.Get("/", h.ListRepositories)

			r.Route("/{repoID}", func(r chi.Router) {
				r.Get("/", h.GetRepository)
				r.Delete("/", h.PurgeRepository)
				r.Get("/status", h.GetRepositoryStatus)
				r.Post("/analyze", h.AnalyzeRepository)
				r.Post("/refresh", h.RefreshRepository)
				r.Get("/report", h.GetReport)
				r.Get("/commits", h.ListCommits)
				r.Get("/contributors", h.ListContributors)
				r.Get("/files", h.ListFiles)
				r.Get("/definitions", h.ListDefinitions)
				r.Get("/complexity-history", h.GetComplexityHistory)

				r.Route("/stats", func(r chi.Router) {
					r.Get("/churn", h.GetChurnStats)
					r.Get("/activity", h.GetActivityStats)
					r.Get("/bus-factor", h.GetBusFactor)
				})
			})
		})
	})
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"message": "pong",
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}
