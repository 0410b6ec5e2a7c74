package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrParse        = errors.New("parse error")
	ErrAnalysis     = errors.New("analysis error")
)

// Error carries one of the kinds above plus context. errors.Is matches on Kind
// and on the wrapped cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Unauthorized() error {
	return &Error{Kind: ErrUnauthorized}
}

func BadRequest(format string, args ...any) error {
	return &Error{Kind: ErrBadRequest, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Msg: what + " not found"}
}

func Server(msg string, err error) error {
	return &Error{Kind: ErrServer, Msg: msg, Err: err}
}

func Parse(format string, args ...any) error {
	return &Error{Kind: ErrParse, Msg: fmt.Sprintf(format, args...)}
}

func Analysis(err error) error {
	return &Error{Kind: ErrAnalysis, Msg: "inference call failed", Err: err}
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is the text placed in the "error" field of a JSON error body.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == ErrUnauthorized {
			return ErrUnauthorized.Error()
		}
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.Error()
	}
	return err.Error()
}
