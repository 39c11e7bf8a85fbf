package service

import (
	"errors"
	"fmt"
)

// Kind identifies a domain failure raised by UserService.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindNotCreated
	KindNotUpdated
	KindNotDeleted
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindNotCreated:
		return "not created"
	case KindNotUpdated:
		return "not updated"
	case KindNotDeleted:
		return "not deleted"
	default:
		return "unknown"
	}
}

// Error is a classified user service failure. Message is client-facing.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of a service error, or 0 if err is not one.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
