package source

import (
	"context"
	"errors"
	"fmt"
)

// UnknownKey identifies a failure that happened before a key was chosen.
const UnknownKey = "unknown"

// Operations reported by ReadError.
const (
	OpList    = "list"
	OpReceive = "receive"
	OpGet     = "get"
	OpRead    = "read"
	OpDelete  = "delete"
)

var (
	// ErrRead marks every queue read failure.
	ErrRead = errors.New("queue read error")
	// ErrEmptyBody is reported when a fetched item carries no bytes.
	ErrEmptyBody = errors.New("empty body")
)

// Item is one request taken off the queue.
//
// By the time an Item is returned it no longer exists in the backing store.
type Item struct {
	Key  string
	Body []byte
}

// Source hands out queue items one at a time.
//
// FetchNext removes the returned item from the queue. A false result means
// either that the queue was empty or that reading failed; failures are logged
// by the Source and never returned to the caller.
type Source interface {
	FetchNext(ctx context.Context) (Item, bool)
}

// ReadError reports a failed list, fetch or delete against the queue backend.
type ReadError struct {
	Key string
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("queue %s key=%q: %v", e.Op, e.Key, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{ErrRead, e.Err} }
