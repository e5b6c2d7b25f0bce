package graphql

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
)

func post(t *testing.T, h http.Handler, body any) (*httptest.ResponseRecorder, GraphQLResponse) {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/graphql", &buf))

	var resp GraphQLResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

func TestGraphQLHandler_Query(t *testing.T) {
	f := setupSchema(t, mutation.DeleteReject)
	h := NewGraphQLHandler(f.schema, Config{MaxDepth: DefaultMaxDepth})

	rr, resp := post(t, h, GraphQLRequest{
		Query:     `query Route($s: ID!) { path(source: $s, destination: "C") { cost } }`,
		Variables: map[string]any{"s": "A"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Empty(t, resp.Errors)
	assert.Equal(t, map[string]any{"path": map[string]any{"cost": 20.0}}, resp.Data)
}

func TestGraphQLHandler_ErrorsCarryCodesAndPaths(t *testing.T) {
	f := setupSchema(t, mutation.DeleteReject)
	h := NewGraphQLHandler(f.schema, Config{})

	rr, resp := post(t, h, GraphQLRequest{Query: `{ path(source: "A", destination: "D") { cost } }`})
	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "UNREACHABLE", resp.Errors[0].Extensions["code"])
	assert.Equal(t, []any{"path"}, resp.Errors[0].Path)
}

func TestGraphQLHandler_DepthLimit(t *testing.T) {
	f := setupSchema(t, mutation.DeleteReject)
	h := NewGraphQLHandler(f.schema, Config{MaxDepth: 2})

	_, resp := post(t, h, GraphQLRequest{Query: `{ path(source: "A", destination: "C") { legs { points { x } } } }`})
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "QUERY_TOO_DEEP", resp.Errors[0].Extensions["code"])
}

func TestGraphQLHandler_BadRequests(t *testing.T) {
	f := setupSchema(t, mutation.DeleteReject)
	h := NewGraphQLHandler(f.schema, Config{})

	rr, resp := post(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "INVALID_ARGUMENT", resp.Errors[0].Extensions["code"])

	rr, _ = post(t, h, GraphQLRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))
}
