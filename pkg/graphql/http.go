package graphql

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
)

// GraphQLRequest represents a GraphQL HTTP request
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse represents a GraphQL HTTP response
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError represents a GraphQL error
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Config tunes the HTTP handler.
type Config struct {
	// MaxDepth limits query nesting; zero or less disables the limit.
	MaxDepth int
	Logger   logging.Logger
}

// GraphQLHandler handles GraphQL HTTP requests
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
	logger   logging.Logger
}

// NewGraphQLHandler creates a new GraphQL HTTP handler
func NewGraphQLHandler(schema graphql.Schema, cfg Config) *GraphQLHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GraphQLHandler{
		schema:   schema,
		maxDepth: cfg.MaxDepth,
		logger:   logger.With(logging.Component("graphql")),
	}
}

// ServeHTTP handles HTTP requests for GraphQL queries. CORS is left to the
// surrounding middleware.
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeErrors(w, http.StatusMethodNotAllowed, GraphQLError{
			Message:    "method not allowed",
			Extensions: map[string]any{"code": "METHOD_NOT_ALLOWED"},
		})
		return
	}

	var req GraphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeErrors(w, status, GraphQLError{
			Message:    "invalid request body",
			Extensions: map[string]any{"code": "INVALID_ARGUMENT"},
		})
		return
	}
	if req.Query == "" {
		writeErrors(w, http.StatusBadRequest, GraphQLError{
			Message:    "query is required",
			Extensions: map[string]any{"code": "INVALID_ARGUMENT"},
		})
		return
	}

	var result *graphql.Result
	if err := ValidateQueryDepth(req.Query, h.maxDepth); err != nil {
		result = depthError(err)
	} else {
		result = graphql.Do(graphql.Params{
			Schema:         h.schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
	}

	response := GraphQLResponse{Data: result.Data}
	if result.HasErrors() {
		response.Errors = make([]GraphQLError, len(result.Errors))
		for i, err := range result.Errors {
			response.Errors[i] = GraphQLError{
				Message:    err.Message,
				Path:       err.Path,
				Extensions: err.Extensions,
			}
		}
		logging.FromContext(r.Context(), h.logger).Debug("graphql query returned errors",
			logging.Count(len(result.Errors)))
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func writeErrors(w http.ResponseWriter, status int, errs ...GraphQLError) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(GraphQLResponse{Errors: errs})
}
