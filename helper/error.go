package helper

import (
	"errors"
	"fmt"
	"strings"
)

// Error carries the original error together with the chain of operations it passed through.
// The outermost operation comes first.
type Error struct {
	Original error
	Trace    []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Trace, ": "), e.Original)
}

func (e *Error) Unwrap() error {
	return e.Original
}

// NewError wraps err with the given trace. Wrapping an *Error prepends the trace
// instead of nesting, so errors.Is and errors.As still reach the original error.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) && existing == err {
		return &Error{
			Original: existing.Original,
			Trace:    append([]string{trace}, existing.Trace...),
		}
	}

	return &Error{
		Original: err,
		Trace:    []string{trace},
	}
}
