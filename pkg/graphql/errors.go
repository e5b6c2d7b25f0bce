package graphql

import (
	"context"
	"errors"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

// codedError carries a machine-readable code to clients in the error's
// "extensions" member.
type codedError struct {
	code    string
	message string
	cause   error
}

func (e *codedError) Error() string { return e.message }

func (e *codedError) Unwrap() error { return e.cause }

// Extensions implements gqlerrors.ExtendedError.
func (e *codedError) Extensions() map[string]any {
	return map[string]any{"code": e.code}
}

// serviceError classifies err for clients. Unclassified errors keep their
// details out of the response.
func serviceError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case storage.IsClosed(err):
		return &codedError{code: "UNAVAILABLE", message: "graph store is closed", cause: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &codedError{code: "CANCELED", message: err.Error(), cause: err}
	}
	kind := storage.KindOf(err)
	if kind == storage.KindUnknown {
		return &codedError{code: kind.Code(), message: operation + " failed", cause: err}
	}
	return &codedError{code: kind.Code(), message: err.Error(), cause: err}
}
