package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encoding JSON response failed", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// statusForKind maps an error kind to its HTTP status.
func statusForKind(k storage.Kind) int {
	switch k {
	case storage.KindNotFound:
		return http.StatusNotFound
	case storage.KindInvalidArgument:
		return http.StatusBadRequest
	case storage.KindConflict:
		return http.StatusConflict
	case storage.KindUnreachable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError answers with the status and code of err's kind.
// Unclassified errors are logged and reported without their details.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	switch {
	case storage.IsClosed(err):
		s.respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "graph store is closed")
		return
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		// The client went away; nobody reads this response.
		s.respondError(w, http.StatusServiceUnavailable, "CANCELED", "request canceled")
		return
	}

	kind := storage.KindOf(err)
	if kind == storage.KindUnknown {
		logging.FromContext(r.Context(), s.logger).Error("request failed",
			logging.Operation(operation), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, kind.Code(), operation+" failed")
		return
	}
	s.respondError(w, statusForKind(kind), kind.Code(), err.Error())
}
