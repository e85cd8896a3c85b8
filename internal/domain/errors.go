package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error so transports can map it without inspecting messages.
type Kind uint8

const (
	// KindInternal is any failure the caller cannot act on, storage outages included.
	KindInternal Kind = iota
	// KindUnauthorized means no valid session accompanied the request.
	KindUnauthorized
	// KindValidation means the input was rejected before touching storage.
	KindValidation
	// KindNotFound covers both absent resources and resources owned by someone else.
	KindNotFound
	// KindConflict means the write collides with existing state (duplicate email).
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the tagged error returned across the service boundary.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of the operation that produced it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Kind == e.Kind
}

// Sentinel kinds for errors.Is checks.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Msg: "unauthorized"}
	ErrValidation   = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound     = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict     = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrInternal     = &Error{Kind: KindInternal, Msg: "internal error"}
)

// Unauthorized reports a missing or invalid session.
func Unauthorized(op string) error {
	return &Error{Kind: KindUnauthorized, Op: op, Msg: "unauthorized"}
}

// Validation reports rejected input; msg is safe to show to the client.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// NotFound reports an absent or foreign resource.
func NotFound(op string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: "not found"}
}

// Conflict reports a uniqueness violation; msg is safe to show to the client.
func Conflict(op, msg string) error {
	return &Error{Kind: KindConflict, Op: op, Msg: msg}
}

// Internal wraps an unexpected failure, typically from storage.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of a non-internal error.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Msg
	}
	return "internal error"
}
