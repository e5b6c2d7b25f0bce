package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
)

func TestRequestDecoder_BodyTooLarge(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	ts.server.cfg.MaxBodyBytes = 32
	handler := ts.server.Handler()

	req := httptest.NewRequest(http.MethodPost, "/nodes", strings.NewReader(`{"long_name":"`+strings.Repeat("x", 100)+`"}`))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	expectError(t, rr, http.StatusRequestEntityTooLarge, "INVALID_ARGUMENT")
}

func TestPathIDExtractor(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)

	tests := []struct {
		path   string
		wantID string
		wantOK bool
	}{
		{"/nodes/N000001", "N000001", true},
		{"/nodes/N000001/", "N000001", true},
		{"/nodes/", "", false},
		{"/nodes/a/b", "", false},
		{"/edges/E000001", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			id, ok := ts.server.NewPathExtractor(rr, req).ExtractID("/nodes/")
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ExtractID(%q) = %q, %v; want %q, %v", tt.path, id, ok, tt.wantID, tt.wantOK)
			}
			if !ok && rr.Code != http.StatusBadRequest {
				t.Errorf("Expected 400 on failure, got %d", rr.Code)
			}
		})
	}
}

func TestMethodRouter_FirstMatchWins(t *testing.T) {
	ts := setupTestServer(t, mutation.DeleteReject)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)

	var calls []string
	ts.server.NewMethodRouter(rr, req).
		Get(func() { calls = append(calls, "get") }).
		Delete(func() { calls = append(calls, "delete") }).
		Delete(func() { calls = append(calls, "delete-again") }).
		NotAllowed()

	if len(calls) != 1 || calls[0] != "delete" {
		t.Errorf("Expected only the first DELETE handler, got %v", calls)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("NotAllowed must not respond after a match, got %d", rr.Code)
	}
}
