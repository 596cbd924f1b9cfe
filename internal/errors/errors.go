// Package errors defines typed errors with categories for user-friendly reporting.
// Configuration and Validation errors abort a batch before any network call.
// Transport and ResponseShape errors are recorded per sequence and never
// escape the batch runner.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Configuration indicates a required setting (e.g. the service base URL) is missing.
	Configuration Kind = "configuration"
	// Validation indicates malformed or absent user input.
	Validation Kind = "validation"
	// Transport indicates a network or HTTP failure after retries, or a non-JSON body.
	Transport Kind = "transport"
	// ResponseShape indicates a 2xx response without a recognisable result field.
	ResponseShape Kind = "response_shape"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

// Error omits the kind so the text can be shown next to a sequence id as-is.
func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *E in err's chain, or "".
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Fatal reports whether err must abort a whole batch.
func Fatal(err error) bool {
	k := KindOf(err)
	return k == Configuration || k == Validation
}
