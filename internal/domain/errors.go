package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrKindNetwork    ErrorKind = "network"
	ErrKindBusiness   ErrorKind = "business"
	ErrKindParse      ErrorKind = "parse"
	ErrKindValidation ErrorKind = "validation"
)

const (
	MsgCannotConnect = "Cannot connect to server. Please check your connection."
	MsgParseFailure  = "Failed to parse server response."
)

// RequestError is the normalized failure of one backend call. Message is
// safe to show to the user as-is.
type RequestError struct {
	Kind    ErrorKind
	Message string
	Status  int
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same action might succeed.
func (e *RequestError) Retryable() bool {
	return e.Kind == ErrKindNetwork || e.Status >= 500
}

func NewNetworkError(err error) *RequestError {
	return &RequestError{Kind: ErrKindNetwork, Message: MsgCannotConnect, Err: err}
}

func NewParseError(status int, err error) *RequestError {
	return &RequestError{Kind: ErrKindParse, Message: MsgParseFailure, Status: status, Err: err}
}

func NewBusinessError(status int, msg string) *RequestError {
	if msg == "" {
		msg = fmt.Sprintf("Request failed with status %d", status)
	}
	return &RequestError{Kind: ErrKindBusiness, Message: msg, Status: status}
}

func NewValidationError(err error) *RequestError {
	return &RequestError{Kind: ErrKindValidation, Message: "Invalid input: " + err.Error(), Err: err}
}

// KindOf returns the kind of a RequestError anywhere in err's chain, or "" if
// err is not one.
func KindOf(err error) ErrorKind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrSendInProgress  = errors.New("a message is already being sent")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrNoActiveSession = errors.New("no active chat session")
	ErrNotEnrolled     = errors.New("not enrolled in this course")
	ErrNotFound        = errors.New("not found")
)
