package request

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode marks bodies that could not be parsed into a request.
	ErrDecode = errors.New("decode error")
	// ErrInvalid marks requests that failed validation.
	ErrInvalid = errors.New("invalid request")
	// ErrUnsupportedType is returned for requests whose type is not "create".
	ErrUnsupportedType = errors.New("unsupported request type")
)

// DecodeError reports a body that is not a UTF-8 JSON object.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode request: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// ValidationError reports the first field that made a request invalid.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request field=%q: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalid}
	}
	return []error{ErrInvalid, e.Err}
}
