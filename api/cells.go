package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/graph"
)

// queryCells handles POST /api/cells/query
func (s *Server) queryCells(w http.ResponseWriter, r *http.Request) {
	var q graph.Query
	if err := decode(r, &q, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.engine.GetCells(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// createCell handles POST /api/cells
func (s *Server) createCell(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decode(r, &payload, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.engine.CreateCell(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// getCell handles GET /api/cells/{id}
func (s *Server) getCell(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.GetCell(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// updateCell handles PATCH /api/cells/{id}. The path id wins over any
// cid in the body.
func (s *Server) updateCell(w http.ResponseWriter, r *http.Request) {
	var in graph.UpdateInput
	if err := decode(r, &in, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	in.ID = chi.URLParam(r, "id")

	c, err := s.engine.UpdateCell(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// deleteCell handles DELETE /api/cells/{id}
func (s *Server) deleteCell(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteCell(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// purgeRelations handles POST /api/cells/{id}/purge
func (s *Server) purgeRelations(w http.ResponseWriter, r *http.Request) {
	n, err := s.engine.PurgeRelations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// startReading handles POST /api/cells/{id}/reading
func (s *Server) startReading(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StartReading(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// endReading handles DELETE /api/cells/{id}/reading
func (s *Server) endReading(w http.ResponseWriter, r *http.Request) {
	d, err := s.engine.EndReading(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"seconds": int64(d.Seconds())})
}

// connectUser handles PUT /api/cells/{id}/user-relations/{type}
func (s *Server) connectUser(w http.ResponseWriter, r *http.Request) {
	rt := cell.RelationType(chi.URLParam(r, "type"))
	id, err := s.engine.ConnectCellAndUser(r.Context(), chi.URLParam(r, "id"), rt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// disconnectUser handles DELETE /api/cells/{id}/user-relations/{type}
func (s *Server) disconnectUser(w http.ResponseWriter, r *http.Request) {
	rt := cell.RelationType(chi.URLParam(r, "type"))
	if err := s.engine.DisconnectCellAndUser(r.Context(), chi.URLParam(r, "id"), rt); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// edgeRequest names a structural relation.
type edgeRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// connectCells handles POST /api/relations
func (s *Server) connectCells(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.engine.ConnectCells(r.Context(), req.SourceID, req.TargetID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// disconnectCells handles DELETE /api/relations?sourceId=..&targetId=..
func (s *Server) disconnectCells(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := s.engine.DisconnectCells(r.Context(), q.Get("sourceId"), q.Get("targetId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
