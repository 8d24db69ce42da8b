package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNotSelect       = errors.New("query is not a SELECT statement")
	ErrEmptyCompletion = errors.New("completion returned no choices")
	ErrDimension       = errors.New("embedding dimension mismatch")
)

// Kind classifies a failure for tier fallback and reporting.
type Kind int

const (
	KindUnknown Kind = iota
	KindGeneration
	KindValidation
	KindExecution
	KindEnrichment
	KindProjectionParse
)

func (k Kind) String() string {
	switch k {
	case KindGeneration:
		return "generation"
	case KindValidation:
		return "validation"
	case KindExecution:
		return "execution"
	case KindEnrichment:
		return "enrichment"
	case KindProjectionParse:
		return "projection_parse"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Err     error
	Context map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func WithContext(err *Error, key string, val any) *Error {
	if err.Context == nil {
		err.Context = make(map[string]any)
	}
	err.Context[key] = val
	return err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
