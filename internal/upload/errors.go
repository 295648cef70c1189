package upload

import (
	"fmt"
	"net/http"
)

// Kind classifies an upload pipeline failure and decides its HTTP status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindStorageWrite
	KindStorageRead
	KindPayloadTooLarge
	KindArchiveOpen
)

// Error is the single error type surfaced by the upload pipeline. The first
// failure in a session wins; compensation failures are logged, never wrapped
// into the response.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindArchiveOpen:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func StorageWrite(msg string, err error) *Error {
	return &Error{Kind: KindStorageWrite, Message: msg, Err: err}
}

func StorageRead(msg string, err error) *Error {
	return &Error{Kind: KindStorageRead, Message: msg, Err: err}
}

func PayloadTooLarge(msg string) *Error {
	return &Error{Kind: KindPayloadTooLarge, Message: msg}
}

func ArchiveOpen(err error) *Error {
	return &Error{Kind: KindArchiveOpen, Message: "invalid or corrupt archive", Err: err}
}
