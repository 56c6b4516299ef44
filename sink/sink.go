package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/funkybooboo/CS5260-Program2/request"
)

var (
	// ErrSink marks every failed persist.
	ErrSink = errors.New("sink write error")
	// ErrUnknownKind is returned by ParseKind for an unsupported selector.
	ErrUnknownKind = errors.New("unknown storage kind")
)

// Backend names used in errors and logs.
const (
	BackendS3       = "s3"
	BackendDynamoDB = "dynamodb"
)

// Sink durably stores one validated request.
//
// The two implementations are ObjectStore and Table. One of them is chosen at
// startup and used for the whole run.
type Sink interface {
	Persist(ctx context.Context, r request.Request) error
}

// Kind selects the Sink implementation.
type Kind int

const (
	KindObjectStore Kind = iota + 1
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindObjectStore:
		return BackendS3
	case KindTable:
		return BackendDynamoDB
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps the command line selector ("s3" or "dynamodb", any case)
// to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case BackendS3:
		return KindObjectStore, nil
	case BackendDynamoDB:
		return KindTable, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Error reports a request the backend did not accept.
type Error struct {
	Backend string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s put key=%q: %v", e.Backend, e.Key, e.Err)
}

func (e *Error) Unwrap() []error { return []error{ErrSink, e.Err} }
