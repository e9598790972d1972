package resolver

import (
	"errors"
	"fmt"
)

// User-visible messages. API consumers match on these strings.
const (
	MsgTransactionNotFound         = "Transaction not found."
	MsgInternalTransactionNotFound = "Internal transaction not found."
	MsgTokenTransferNotFound       = "Token transfer not found."
	MsgBlockNotFound               = "Block not found."
	MsgAddressNotFound             = "Address not found."
	MsgInternal                    = "Something is wrong."
	MsgInvalidCursor               = "Invalid cursor."
)

// Kind classifies resolver failures
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidCursor
	KindInvalidArgument
	KindInternal
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidCursor:
		return "InvalidCursor"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInternal:
		return "Internal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the only error type returned across the resolver boundary.
// Error() is the stable message shown to callers; Err carries the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements error
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidCursor   = &Error{Kind: KindInvalidCursor, Message: MsgInvalidCursor}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrInternal        = &Error{Kind: KindInternal, Message: MsgInternal}
)

// KindOf returns the kind of err, treating anything that is not an *Error as internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func notFound(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}

func invalidCursor(cause error) *Error {
	return &Error{Kind: KindInvalidCursor, Message: MsgInvalidCursor, Err: cause}
}

func invalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: cause}
}
