package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
)

// ExecuteQuery executes a GraphQL query against a schema.
func ExecuteQuery(ctx context.Context, schema graphql.Schema, query string) *graphql.Result {
	return ExecuteQueryWithVariables(ctx, schema, query, nil)
}

// ExecuteQueryWithVariables executes a GraphQL query with variables.
func ExecuteQueryWithVariables(ctx context.Context, schema graphql.Schema, query string, variables map[string]any) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  query,
		VariableValues: variables,
		Context:        ctx,
	})
}

// ExecuteWithDepthLimit validates the query's depth before executing it.
func ExecuteWithDepthLimit(ctx context.Context, schema graphql.Schema, query string, maxDepth int, variables map[string]any) *graphql.Result {
	if err := ValidateQueryDepth(query, maxDepth); err != nil {
		return depthError(err)
	}
	return ExecuteQueryWithVariables(ctx, schema, query, variables)
}
