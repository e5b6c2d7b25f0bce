package api

import (
	"net/http"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

func (s *Server) handleEdges(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.listEdges(w, r) }).
		Post(func() { s.createEdge(w, r) }).
		NotAllowed()
}

func (s *Server) handleEdge(w http.ResponseWriter, r *http.Request) {
	id, ok := s.NewPathExtractor(w, r).ExtractID("/edges/")
	if !ok {
		return
	}
	edgeID := storage.EdgeID(id)
	s.NewMethodRouter(w, r).
		Get(func() { s.getEdge(w, r, edgeID) }).
		Put(func() { s.updateEdge(w, r, edgeID) }).
		Delete(func() { s.deleteEdge(w, r, edgeID) }).
		NotAllowed()
}

// listEdges lists all edges, or those touching ?node= when given.
func (s *Server) listEdges(w http.ResponseWriter, r *http.Request) {
	node := storage.NodeID(r.URL.Query().Get("node"))
	resp := EdgeListResponse{}
	err := s.store.View(func(g storage.Reader) error {
		resp.GraphVersion = g.Version()
		if node == "" {
			resp.Edges = g.GetAllEdges()
			return nil
		}
		var err error
		resp.Edges, err = g.IncidentEdges(node)
		return err
	})
	if err != nil {
		s.respondServiceError(w, r, "list_edges", err)
		return
	}
	if resp.Edges == nil {
		resp.Edges = []*storage.Edge{}
	}
	resp.Count = len(resp.Edges)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getEdge(w http.ResponseWriter, r *http.Request, id storage.EdgeID) {
	edge, err := s.store.GetEdge(id)
	if err != nil {
		s.respondServiceError(w, r, "get_edge", err)
		return
	}
	s.respondJSON(w, http.StatusOK, edge)
}

func (s *Server) createEdge(w http.ResponseWriter, r *http.Request) {
	var req mutation.EdgeRequest
	if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}
	if req.ID != "" {
		s.respondError(w, http.StatusBadRequest, storage.KindInvalidArgument.Code(),
			"id: assigned by the server; import a floor plan to choose identifiers")
		return
	}

	edge, err := s.mutations.CreateEdge(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, "create_edge", err)
		return
	}
	w.Header().Set("Location", "/edges/"+string(edge.ID))
	s.respondJSON(w, http.StatusCreated, edge)
}

func (s *Server) updateEdge(w http.ResponseWriter, r *http.Request, id storage.EdgeID) {
	var req EdgeWeightRequest
	if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}

	edge, err := s.mutations.UpdateEdgeWeight(r.Context(), id, req.Weight)
	if err != nil {
		s.respondServiceError(w, r, "update_edge", err)
		return
	}
	s.respondJSON(w, http.StatusOK, edge)
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request, id storage.EdgeID) {
	if err := s.mutations.DeleteEdge(r.Context(), id); err != nil {
		s.respondServiceError(w, r, "delete_edge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
