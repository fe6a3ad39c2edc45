package apperr

import (
	"errors"
	"fmt"
)

// Kind groups errors by what the caller is expected to do about them.
type Kind string

const (
	KindValidation    Kind = "validation"    // fix input, then retry
	KindConflict      Kind = "conflict"      // another record holds the resource
	KindAuthorization Kind = "authorization" // never retry as the same caller
	KindState         Kind = "state"         // caller is stale, re-read first
	KindNotFound      Kind = "not_found"
	KindUnavailable   Kind = "unavailable" // only class eligible for caller-side retry
	KindInternal      Kind = "internal"
)

// Error is a coded domain error. Two errors match under errors.Is when their
// codes are equal, so a sentinel can be decorated with a Ref or a cause and
// still be recognised upstream.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Ref     string
	Err     error
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Ref != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Ref)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Code == e.Code
}

// WithRef returns a copy carrying the identifier of the record involved,
// e.g. the parcel a submission conflicts with.
func (e *Error) WithRef(ref string) *Error {
	cp := *e
	cp.Ref = ref
	return &cp
}

// Wrap returns a copy with err attached as the cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// KindOf reports the kind of the first coded error in err's chain.
// Uncoded errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the first coded error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
