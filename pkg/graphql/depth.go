package graphql

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// DefaultMaxDepth bounds how deeply queries may nest object selections.
const DefaultMaxDepth = 8

// depthCalculator measures documents, following named fragments.
type depthCalculator struct {
	fragments map[string]*ast.FragmentDefinition
	visiting  map[string]bool
}

// calculateQueryDepth returns the deepest chain of object selections in any
// operation of document. Leaf fields do not add depth.
func calculateQueryDepth(document *ast.Document) int {
	c := &depthCalculator{
		fragments: make(map[string]*ast.FragmentDefinition),
		visiting:  make(map[string]bool),
	}
	for _, definition := range document.Definitions {
		if frag, ok := definition.(*ast.FragmentDefinition); ok && frag.Name != nil {
			c.fragments[frag.Name.Value] = frag
		}
	}

	maxDepth := 0
	for _, definition := range document.Definitions {
		if op, ok := definition.(*ast.OperationDefinition); ok {
			if depth := c.selectionSetDepth(op.SelectionSet, 0); depth > maxDepth {
				maxDepth = depth
			}
		}
	}
	return maxDepth
}

func (c *depthCalculator) selectionSetDepth(set *ast.SelectionSet, current int) int {
	if set == nil {
		return current
	}
	maxDepth := current
	for _, selection := range set.Selections {
		depth := current
		switch sel := selection.(type) {
		case *ast.Field:
			if strings.HasPrefix(sel.Name.Value, "__") || sel.SelectionSet == nil {
				continue
			}
			depth = c.selectionSetDepth(sel.SelectionSet, current+1)
		case *ast.InlineFragment:
			depth = c.selectionSetDepth(sel.SelectionSet, current)
		case *ast.FragmentSpread:
			name := sel.Name.Value
			frag, ok := c.fragments[name]
			// Unknown or cyclic spreads are rejected by validation later.
			if !ok || c.visiting[name] {
				continue
			}
			c.visiting[name] = true
			depth = c.selectionSetDepth(frag.SelectionSet, current)
			delete(c.visiting, name)
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	return maxDepth
}

// ValidateQueryDepth parses query and rejects it when its nesting exceeds
// maxDepth. A maxDepth of zero or less disables the check.
func ValidateQueryDepth(query string, maxDepth int) error {
	if maxDepth <= 0 {
		return nil
	}
	document, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return fmt.Errorf("failed to parse query: %w", err)
	}
	if depth := calculateQueryDepth(document); depth > maxDepth {
		return &codedError{
			code:    "QUERY_TOO_DEEP",
			message: fmt.Sprintf("query depth %d exceeds maximum allowed depth %d", depth, maxDepth),
		}
	}
	return nil
}

// depthError turns a depth validation failure into a result. FormatError only
// copies extensions from a *gqlerrors.Error's original error, so err is wrapped.
func depthError(err error) *graphql.Result {
	located := gqlerrors.NewError(err.Error(), nil, "", nil, nil, err)
	return &graphql.Result{
		Errors: []gqlerrors.FormattedError{gqlerrors.FormatError(located)},
	}
}
