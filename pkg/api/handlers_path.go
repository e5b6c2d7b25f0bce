package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/dd0wney/cluso-wayfinder/pkg/algorithms"
	"github.com/dd0wney/cluso-wayfinder/pkg/pathfinder"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// handlePath answers route queries. GET takes query parameters, POST a
// PathRequest body; both accept IDs (source, destination) or names (from, to).
func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			req, err := pathRequestFromQuery(r.URL.Query())
			if err != nil {
				s.respondServiceError(w, r, "find_path", err)
				return
			}
			s.findPath(w, r, req)
		}).
		Post(func() {
			var req PathRequest
			if s.NewRequestDecoder(w, r).DecodeJSON(&req).RespondError() {
				return
			}
			s.findPath(w, r, req)
		}).
		NotAllowed()
}

// transitOnlyParam reads the optional transit_only flag; absent means false.
func transitOnlyParam(op string, q url.Values) (bool, error) {
	raw := q.Get("transit_only")
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, storage.InvalidArgumentError(op, "transit_only", raw, "must be a boolean")
	}
	return v, nil
}

func pathRequestFromQuery(q url.Values) (PathRequest, error) {
	transitOnly, err := transitOnlyParam("find_path", q)
	if err != nil {
		return PathRequest{}, err
	}
	return PathRequest{
		Source:      q.Get("source"),
		Destination: q.Get("destination"),
		From:        q.Get("from"),
		To:          q.Get("to"),
		Avoid:       q["avoid"],
		TransitOnly: transitOnly,
	}, nil
}

func (s *Server) findPath(w http.ResponseWriter, r *http.Request, req PathRequest) {
	const op = "find_path"
	opts, err := pathfinder.ParseOptions(req.Avoid, req.TransitOnly)
	if err != nil {
		s.respondServiceError(w, r, op, err)
		return
	}

	byID := req.Source != "" || req.Destination != ""
	byName := req.From != "" || req.To != ""
	var route *pathfinder.Route
	switch {
	case byID && byName:
		err = storage.InvalidArgumentError(op, "path", "", "give either source/destination or from/to, not both")
	case byName:
		route, err = s.pathfinder.GetPathByName(r.Context(), req.From, req.To, opts)
	case byID:
		if req.Source == "" || req.Destination == "" {
			err = storage.InvalidArgumentError(op, "path", "", "source and destination are required")
			break
		}
		route, err = s.pathfinder.GetPath(r.Context(), storage.NodeID(req.Source), storage.NodeID(req.Destination), opts)
	default:
		err = storage.InvalidArgumentError(op, "path", "", "source and destination are required")
	}
	if err != nil {
		s.respondServiceError(w, r, op, err)
		return
	}
	s.respondJSON(w, http.StatusOK, route)
}

// handleNearest finds the closest node of a type, e.g. the nearest restroom.
func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() { s.findNearest(w, r) }).
		NotAllowed()
}

func (s *Server) findNearest(w http.ResponseWriter, r *http.Request) {
	const op = "find_nearest"
	q := r.URL.Query()
	transitOnly, err := transitOnlyParam(op, q)
	if err != nil {
		s.respondServiceError(w, r, op, err)
		return
	}
	opts, err := pathfinder.ParseOptions(q["avoid"], transitOnly)
	if err != nil {
		s.respondServiceError(w, r, op, err)
		return
	}

	source := storage.NodeID(q.Get("source"))
	if source == "" && q.Get("from") != "" {
		if source, err = s.pathfinder.Resolve(q.Get("from")); err != nil {
			s.respondServiceError(w, r, op, err)
			return
		}
	}
	if source == "" {
		s.respondServiceError(w, r, op, storage.InvalidArgumentError(op, "path", "", "source is required"))
		return
	}

	nodeType, ok := storage.ParseNodeType(q.Get("type"))
	if !ok {
		s.respondServiceError(w, r, op, storage.InvalidArgumentError(op, "node_type", q.Get("type"), "unknown node type"))
		return
	}

	route, err := s.pathfinder.Nearest(r.Context(), source, nodeType, opts)
	if err != nil {
		s.respondServiceError(w, r, op, err)
		return
	}
	s.respondJSON(w, http.StatusOK, route)
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			result := s.pathfinder.Components()
			if result.Components == nil {
				result.Components = []*algorithms.Component{}
			}
			s.respondJSON(w, http.StatusOK, ComponentsResponse{
				Connected:  result.Connected(),
				Count:      len(result.Components),
				Components: result.Components,
			})
		}).
		NotAllowed()
}
