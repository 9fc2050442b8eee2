// Package api exposes the cell graph engine and workspace manager over
// HTTP/JSON.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/graph"
	"github.com/jacentio/cellgraph/internal/logger"
	"github.com/jacentio/cellgraph/workspace"
)

// Server holds the HTTP server dependencies
type Server struct {
	engine     *graph.Engine
	workspaces *workspace.Manager
	logger     *zap.Logger
}

// New creates a new API server. A nil logger uses the process logger.
func New(engine *graph.Engine, workspaces *workspace.Manager, l *zap.Logger) *Server {
	if l == nil {
		l = logger.Get()
	}
	return &Server{engine: engine, workspaces: workspaces, logger: l}
}

// Routes returns the router serving the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cells", func(r chi.Router) {
			r.Post("/", s.createCell)
			r.Post("/query", s.queryCells)
			r.Get("/{id}", s.getCell)
			r.Patch("/{id}", s.updateCell)
			r.Delete("/{id}", s.deleteCell)
			r.Post("/{id}/purge", s.purgeRelations)
			r.Post("/{id}/reading", s.startReading)
			r.Delete("/{id}/reading", s.endReading)
			r.Put("/{id}/user-relations/{type}", s.connectUser)
			r.Delete("/{id}/user-relations/{type}", s.disconnectUser)
		})

		r.Post("/relations", s.connectCells)
		r.Delete("/relations", s.disconnectCells)

		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", s.listWorkspaces)
			r.Post("/", s.createWorkspace)
			r.Get("/current", s.currentWorkspace)
			r.Patch("/current/config", s.updateWorkspaceConfig)
			r.Patch("/current/user", s.updateWorkspaceUser)
			r.Get("/{id}", s.getWorkspace)
			r.Patch("/{id}", s.updateWorkspace)
			r.Delete("/{id}", s.deleteWorkspace)
			r.Post("/{id}/switch", s.switchWorkspace)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path += "?" + r.URL.RawQuery
			}
			log.Info("HTTP Request",
				zap.Int("status", ww.Status()),
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Duration("latency", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}
