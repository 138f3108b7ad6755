// Package apperr defines the domain error taxonomy shared by the house
// and task managers. Handlers map kinds to HTTP status codes; everything
// below the handlers works in kinds, never status codes.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNotFound: the referenced house, member, task, or category does
	// not exist within the required scope.
	KindNotFound Kind = iota + 1
	// KindForbidden: the actor lacks the role or relationship the action
	// requires.
	KindForbidden
	// KindUnprocessable: well-formed input violating a domain invariant
	// (last-owner removal, out-of-house assignee, assignee cap, ...).
	KindUnprocessable
	// KindConflict: a store uniqueness constraint surfaced through a
	// mutation (duplicate display name, duplicate membership).
	KindConflict
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Unprocessable(format string, args ...any) *Error {
	return &Error{Kind: KindUnprocessable, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 if err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsKind(err error, k Kind) bool { return KindOf(err) == k }
