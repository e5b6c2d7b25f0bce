package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dd0wney/cluso-wayfinder/pkg/floorplan"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Get(func() {
			s.respondJSON(w, http.StatusOK, StatsResponse{
				Statistics:    s.store.Stats(),
				DeletePolicy:  s.mutations.DeletePolicy(),
				Version:       s.version,
				UptimeSeconds: time.Since(s.startTime).Seconds(),
			})
		}).
		NotAllowed()
}

// handleCheckpoint writes a snapshot so the next start replays less log.
func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			err := s.store.Checkpoint()
			if s.metrics != nil {
				s.metrics.RecordCheckpoint(err)
			}
			if err != nil {
				s.respondServiceError(w, r, "checkpoint", err)
				return
			}
			s.respondJSON(w, http.StatusOK, map[string]any{
				"graph_version": s.store.Version(),
			})
		}).
		NotAllowed()
}

// planFormats maps accepted content types to a file extension floorplan
// understands.
var planFormats = map[string]string{
	"application/yaml":   ".yaml",
	"application/x-yaml": ".yaml",
	"text/yaml":          ".yaml",
	"application/hcl":    ".hcl",
	"text/x-hcl":         ".hcl",
}

func planExtension(r *http.Request) (string, bool) {
	if f := strings.ToLower(r.URL.Query().Get("format")); f != "" {
		switch f {
		case "yaml", "yml":
			return ".yaml", true
		case "hcl":
			return ".hcl", true
		}
		return "", false
	}
	ct, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	ext, ok := planFormats[strings.TrimSpace(strings.ToLower(ct))]
	return ext, ok
}

// handleImport applies an uploaded floor plan in one transaction. The body is
// a YAML or HCL plan file; the format comes from ?format= or Content-Type.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.NewMethodRouter(w, r).
		Post(func() {
			const op = "import_plan"
			ext, ok := planExtension(r)
			if !ok {
				s.respondError(w, http.StatusUnsupportedMediaType, storage.KindInvalidArgument.Code(),
					"floor plans must be YAML or HCL")
				return
			}
			data, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					s.respondError(w, http.StatusRequestEntityTooLarge, storage.KindInvalidArgument.Code(), "floor plan too large")
					return
				}
				s.respondError(w, http.StatusBadRequest, storage.KindInvalidArgument.Code(), "reading floor plan failed")
				return
			}

			plan, err := floorplan.Parse("upload"+ext, data)
			if err != nil {
				s.respondError(w, http.StatusBadRequest, storage.KindInvalidArgument.Code(), err.Error())
				return
			}
			result, err := s.mutations.ImportPlan(r.Context(), plan)
			if err != nil {
				s.respondServiceError(w, r, op, err)
				return
			}
			logging.FromContext(r.Context(), s.logger).Info("floor plan uploaded",
				logging.Int("bytes", len(data)), logging.GraphVersion(result.Version))
			s.respondJSON(w, http.StatusOK, result)
		}).
		NotAllowed()
}
