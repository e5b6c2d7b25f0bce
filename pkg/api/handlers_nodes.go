package api

import (
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.listNodes(w, r) }).
		Post(func() { s.createNode(w, r) }).
		NotAllowed()
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.NewPathExtractor(w, r).ExtractID("/nodes/")
	if !ok {
		return
	}
	nodeID := storage.NodeID(id)
	s.NewMethodRouter(w, r).
		Get(func() { s.getNode(w, r, nodeID) }).
		Put(func() { s.updateNode(w, r, nodeID) }).
		Delete(func() { s.deleteNode(w, r, nodeID) }).
		NotAllowed()
}

// nodeFilter narrows a node listing. Empty fields match everything.
type nodeFilter struct {
	nodeType storage.NodeType
	floor    string
	building string
}

func parseNodeFilter(r *http.Request) (nodeFilter, error) {
	q := r.URL.Query()
	f := nodeFilter{floor: q.Get("floor"), building: q.Get("building")}
	if raw := q.Get("type"); raw != "" {
		t, ok := storage.ParseNodeType(raw)
		if !ok {
			return f, storage.InvalidArgumentError("list_nodes", "node_type", raw, "unknown node type")
		}
		f.nodeType = t
	}
	return f, nil
}

func (f nodeFilter) match(n *storage.Node) bool {
	if f.nodeType != "" && n.Type != f.nodeType {
		return false
	}
	if f.floor != "" && !strings.EqualFold(n.Floor, f.floor) {
		return false
	}
	if f.building != "" && !strings.EqualFold(n.Building, f.building) {
		return false
	}
	return true
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseNodeFilter(r)
	if err != nil {
		s.respondServiceError(w, r, "list_nodes", err)
		return
	}

	resp := NodeListResponse{Nodes: []*storage.Node{}}
	_ = s.store.View(func(g storage.Reader) error {
		for _, n := range g.GetAllNodes() {
			if filter.match(n) {
				resp.Nodes = append(resp.Nodes, n)
			}
		}
		resp.GraphVersion = g.Version()
		return nil
	})
	resp.Count = len(resp.Nodes)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request, id storage.NodeID) {
	node, err := s.store.GetNode(id)
	if err != nil {
		s.respondServiceError(w, r, "get_node", err)
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var req mutation.NodeAttributes
	if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
		return
	}
	if req.ID != "" {
		s.respondError(w, http.StatusBadRequest, storage.KindInvalidArgument.Code(),
			"id: assigned by the server; import a floor plan to choose identifiers")
		return
	}

	node, err := s.mutations.CreateNode(r.Context(), req)
	if err != nil {
		s.respondServiceError(w, r, "create_node", err)
		return
	}
	w.Header().Set("Location", "/nodes/"+string(node.ID))
	s.respondJSON(w, http.StatusCreated, node)
}

func (s *Server) updateNode(w http.ResponseWriter, r *http.Request, id storage.NodeID) {
	var patch mutation.NodePatch
	if s.NewRequestDecoder(w, r).DecodeJSON(&patch).RespondError() {
		return
	}

	node, err := s.mutations.UpdateNode(r.Context(), id, patch)
	if err != nil {
		s.respondServiceError(w, r, "update_node", err)
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request, id storage.NodeID) {
	result, err := s.mutations.DeleteNode(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, "delete_node", err)
		return
	}
	if result.RemovedEdges == nil {
		result.RemovedEdges = []storage.EdgeID{}
	}
	s.respondJSON(w, http.StatusOK, result)
}
