package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: a referenced node or edge does not exist.
	KindNotFound
	// KindInvalidArgument: malformed input such as a self-loop or a non-finite coordinate.
	KindInvalidArgument
	// KindConflict: the operation would violate a graph invariant.
	KindConflict
	// KindUnreachable: both endpoints exist but no path connects them.
	KindUnreachable
)

// String returns the snake_case name used in logs.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConflict:
		return "conflict"
	case KindUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Code returns the upper-case code used on the wire.
func (k Kind) Code() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindConflict:
		return "CONFLICT"
	case KindUnreachable:
		return "UNREACHABLE"
	default:
		return "INTERNAL"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindConflict:
		return ErrConflict
	case KindUnreachable:
		return ErrUnreachable
	default:
		return nil
	}
}

// Sentinel errors. Match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnreachable     = errors.New("unreachable")
	ErrStorageClosed   = errors.New("storage is closed")
	ErrPersistFailed   = errors.New("persist failed")
)

// GraphError is the structured error returned by the store, the mutation service
// and the planner.
type GraphError struct {
	Op     string // operation that failed (e.g. "create_edge", "find_path")
	Entity string // "node", "edge", "path", ...
	ID     string // entity identifier, if any
	Kind   Kind
	Detail string // human-readable explanation
	Cause  error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	msg := e.Op
	if e.Entity != "" {
		msg += " " + e.Entity
	}
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil && e.Cause != e.Kind.sentinel() {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind as well as anything in the cause chain.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	return false
}

// ErrorBuilder builds GraphErrors fluently.
type ErrorBuilder struct {
	err GraphError
}

// NewError starts an error for op.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: GraphError{Op: op}}
}

func (b *ErrorBuilder) Node(id NodeID) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = string(id)
	return b
}

func (b *ErrorBuilder) Edge(id EdgeID) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = string(id)
	return b
}

// Entity sets a free-form entity name and identifier.
func (b *ErrorBuilder) Entity(entity, id string) *ErrorBuilder {
	b.err.Entity = entity
	b.err.ID = id
	return b
}

func (b *ErrorBuilder) Kind(k Kind) *ErrorBuilder {
	b.err.Kind = k
	return b
}

// Detail sets the explanation, formatted like fmt.Sprintf.
func (b *ErrorBuilder) Detail(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the error, defaulting the cause to the kind's sentinel.
func (b *ErrorBuilder) Build() *GraphError {
	e := b.err
	if e.Cause == nil {
		e.Cause = e.Kind.sentinel()
	}
	return &e
}

// Err returns the error as an error value.
func (b *ErrorBuilder) Err() error {
	return b.Build()
}

func NodeNotFoundError(op string, id NodeID) error {
	return NewError(op).Node(id).Kind(KindNotFound).Err()
}

func EdgeNotFoundError(op string, id EdgeID) error {
	return NewError(op).Edge(id).Kind(KindNotFound).Err()
}

// InvalidArgumentError reports malformed input.
func InvalidArgumentError(op, entity, id, detail string) error {
	return NewError(op).Entity(entity, id).Kind(KindInvalidArgument).Detail("%s", detail).Err()
}

// ConflictError reports an invariant violation.
func ConflictError(op, entity, id, detail string) error {
	return NewError(op).Entity(entity, id).Kind(KindConflict).Detail("%s", detail).Err()
}

// UnreachableError reports that no path connects source and destination.
func UnreachableError(op string, source, destination NodeID) error {
	return NewError(op).Entity("path", "").Kind(KindUnreachable).
		Detail("no route from %s to %s", source, destination).Err()
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnreachable):
		return KindUnreachable
	}
	return KindUnknown
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsUnreachable(err error) bool     { return errors.Is(err, ErrUnreachable) }
func IsClosed(err error) bool          { return errors.Is(err, ErrStorageClosed) }
