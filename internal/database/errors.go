package database

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the result iterator.
var (
	// ErrEndOfResults is returned by Rows.Next once every batch of
	// every result set has been consumed.
	ErrEndOfResults = errors.New("end of results")

	// ErrCanceled is returned by Rows.Next after Cancel.
	ErrCanceled = errors.New("query canceled")

	// ErrClosed is returned when an operation is attempted on a
	// connection that is not in the Ready state.
	ErrClosed = errors.New("connection closed")
)

// UnsupportedDialectError indicates a connection string whose scheme
// matches no registered dialect descriptor. It is returned before any
// network activity.
type UnsupportedDialectError struct {
	Scheme string
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("unsupported dialect %q", e.Scheme)
}

// ConnectError indicates a failed connection attempt: refusal, auth
// failure or timeout. The cause is surfaced verbatim and never retried
// here; retry policy belongs to the interactive layer.
type ConnectError struct {
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect: %v", e.Cause)
}

func (e *ConnectError) Unwrap() error {
	return e.Cause
}

// ExecError indicates a SQL error from the backend.
// StatementOffset is the byte offset of the offending statement within
// the submitted text, when derivable from statement splitting.
type ExecError struct {
	Cause           error
	StatementOffset int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute: %v", e.Cause)
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}

// FetchError indicates a protocol-level anomaly while streaming a
// result batch. It terminates the iterator it occurred on but leaves
// the session usable.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch: %v", e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}
