package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jacentio/cellgraph/docstore"
)

// changedResponse reports whether a settings merge wrote anything.
type changedResponse struct {
	Changed bool `json:"changed"`
}

// listWorkspaces handles GET /api/workspaces
func (s *Server) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	all, err := s.workspaces.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]docstore.Document, 0, len(all))
	for _, ws := range all {
		out = append(out, ws.Document())
	}
	writeJSON(w, http.StatusOK, out)
}

// createWorkspace handles POST /api/workspaces
func (s *Server) createWorkspace(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := decode(r, &data, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.workspaces.Create(r.Context(), data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws.Document())
}

// currentWorkspace handles GET /api/workspaces/current
func (s *Server) currentWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaces.Current()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Document())
}

// getWorkspace handles GET /api/workspaces/{id}
func (s *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaces.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Document())
}

// updateWorkspace handles PATCH /api/workspaces/{id}
func (s *Server) updateWorkspace(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decode(r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	ws, err := s.workspaces.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Document())
}

// deleteWorkspace handles DELETE /api/workspaces/{id}
func (s *Server) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.workspaces.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// switchWorkspace handles POST /api/workspaces/{id}/switch
func (s *Server) switchWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.workspaces.Switch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Document())
}

// updateWorkspaceConfig handles PATCH /api/workspaces/current/config
func (s *Server) updateWorkspaceConfig(w http.ResponseWriter, r *http.Request) {
	s.mergeSettings(w, r, s.workspaces.UpdateConfig)
}

// updateWorkspaceUser handles PATCH /api/workspaces/current/user
func (s *Server) updateWorkspaceUser(w http.ResponseWriter, r *http.Request) {
	s.mergeSettings(w, r, s.workspaces.UpdateUser)
}

func (s *Server) mergeSettings(w http.ResponseWriter, r *http.Request, merge func(context.Context, map[string]any) (bool, error)) {
	var patch map[string]any
	if err := decode(r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	changed, err := merge(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, changedResponse{Changed: changed})
}
