package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jacentio/cellgraph/docstore"
	"github.com/jacentio/cellgraph/graph"
	"github.com/jacentio/cellgraph/workspace"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps engine and workspace errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, graph.ErrInvalidInput),
		errors.Is(err, graph.ErrSelfLoop),
		errors.Is(err, docstore.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, graph.ErrCellNotFound),
		errors.Is(err, graph.ErrRelationNotFound),
		errors.Is(err, graph.ErrNotReading),
		errors.Is(err, workspace.ErrWorkspaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrDuplicateRelation),
		errors.Is(err, docstore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, graph.ErrNotBound),
		errors.Is(err, workspace.ErrNoWorkspace):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON request body into v. An empty body leaves v as is
// when allowEmpty is set.
func decode(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", graph.ErrInvalidInput, err)
	}
	return nil
}
