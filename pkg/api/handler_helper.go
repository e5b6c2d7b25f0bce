package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
	"github.com/dd0wney/cluso-wayfinder/pkg/validation"
)

// requestDecoder decodes request bodies.
// It provides a fluent interface for common request handling patterns.
type requestDecoder struct {
	r          *http.Request
	w          http.ResponseWriter
	server     *Server
	err        error
	statusCode int
}

// NewRequestDecoder creates a new request decoder for the given request.
func (s *Server) NewRequestDecoder(w http.ResponseWriter, r *http.Request) *requestDecoder {
	return &requestDecoder{r: r, w: w, server: s}
}

// DecodeJSON decodes the request body into v. Unknown fields are rejected so
// a misspelt attribute does not silently become a no-op.
func (rd *requestDecoder) DecodeJSON(v any) *requestDecoder {
	if rd.err != nil {
		return rd
	}
	dec := json.NewDecoder(rd.r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			rd.err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
			rd.statusCode = http.StatusRequestEntityTooLarge
		case errors.Is(err, io.EOF):
			rd.err = errors.New("request body is empty")
			rd.statusCode = http.StatusBadRequest
		default:
			rd.err = fmt.Errorf("invalid request body: %w", err)
			rd.statusCode = http.StatusBadRequest
		}
	}
	return rd
}

// HasError returns true if any error occurred during decoding.
func (rd *requestDecoder) HasError() bool {
	return rd.err != nil
}

// RespondError sends the error response and returns true if there was an error.
func (rd *requestDecoder) RespondError() bool {
	if rd.err == nil {
		return false
	}
	code := storage.KindInvalidArgument.Code()
	rd.server.respondError(rd.w, rd.statusCode, code, rd.err.Error())
	return true
}

// pathIDExtractor extracts IDs from URL paths.
type pathIDExtractor struct {
	w      http.ResponseWriter
	server *Server
	path   string
}

// NewPathExtractor creates a new path extractor.
func (s *Server) NewPathExtractor(w http.ResponseWriter, r *http.Request) *pathIDExtractor {
	return &pathIDExtractor{w: w, server: s, path: r.URL.Path}
}

// ExtractID returns the identifier following prefix, or responds 400 and
// returns false when it is missing or malformed.
func (pe *pathIDExtractor) ExtractID(prefix string) (string, bool) {
	if !strings.HasPrefix(pe.path, prefix) {
		pe.server.respondError(pe.w, http.StatusBadRequest, storage.KindInvalidArgument.Code(), "invalid path")
		return "", false
	}
	id := strings.TrimSuffix(pe.path[len(prefix):], "/")
	if err := validation.ValidateIdentifier("id", id); err != nil {
		pe.server.respondError(pe.w, http.StatusBadRequest, storage.KindInvalidArgument.Code(), err.Error())
		return "", false
	}
	return id, true
}

// methodRouter routes requests based on HTTP method.
type methodRouter struct {
	w       http.ResponseWriter
	r       *http.Request
	server  *Server
	allowed []string
	handled bool
}

// NewMethodRouter creates a new method router.
func (s *Server) NewMethodRouter(w http.ResponseWriter, r *http.Request) *methodRouter {
	return &methodRouter{w: w, r: r, server: s}
}

func (mr *methodRouter) handle(method string, handler func()) *methodRouter {
	mr.allowed = append(mr.allowed, method)
	if !mr.handled && mr.r.Method == method {
		handler()
		mr.handled = true
	}
	return mr
}

// Get handles GET requests with the provided handler.
func (mr *methodRouter) Get(handler func()) *methodRouter {
	return mr.handle(http.MethodGet, handler)
}

// Post handles POST requests with the provided handler.
func (mr *methodRouter) Post(handler func()) *methodRouter {
	return mr.handle(http.MethodPost, handler)
}

// Put handles PUT requests with the provided handler.
func (mr *methodRouter) Put(handler func()) *methodRouter {
	return mr.handle(http.MethodPut, handler)
}

// Delete handles DELETE requests with the provided handler.
func (mr *methodRouter) Delete(handler func()) *methodRouter {
	return mr.handle(http.MethodDelete, handler)
}

// NotAllowed sends a 405 response listing the allowed methods if no method matched.
func (mr *methodRouter) NotAllowed() {
	if mr.handled {
		return
	}
	mr.w.Header().Set("Allow", strings.Join(mr.allowed, ", "))
	mr.server.respondError(mr.w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
		fmt.Sprintf("method %s not allowed", mr.r.Method))
}
