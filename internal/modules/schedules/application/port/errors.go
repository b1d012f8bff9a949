package port

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies backend failures so callers switch on a tag instead of message text.
type ErrorKind string

const (
	KindBadRequest   ErrorKind = "bad_request"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindServer       ErrorKind = "server"
	KindUnexpected   ErrorKind = "unexpected"
	KindNetwork      ErrorKind = "network"
)

// KindForStatus maps an HTTP status onto an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 400 && status < 500:
		return KindBadRequest
	case status >= 500:
		return KindServer
	default:
		return KindUnexpected
	}
}

// RemoteError is a non-success response from the backend.
type RemoteError struct {
	Op      string
	Status  int
	Kind    ErrorKind
	Message string
}

// NewRemoteError builds a RemoteError with its kind derived from status.
func NewRemoteError(op string, status int, message string) *RemoteError {
	return &RemoteError{Op: op, Status: status, Kind: KindForStatus(status), Message: message}
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend responded %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: backend responded %d: %s", e.Op, e.Status, e.Message)
}

// NetworkUnavailableError means the backend could not be reached at all.
type NetworkUnavailableError struct {
	Op  string
	Err error
}

func (e *NetworkUnavailableError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *NetworkUnavailableError) Unwrap() error {
	return e.Err
}

// KindOf returns the tag of a RemoteError or NetworkUnavailableError, or "" for anything else.
func KindOf(err error) ErrorKind {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Kind
	}
	var network *NetworkUnavailableError
	if errors.As(err, &network) {
		return KindNetwork
	}
	return ""
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsNetworkUnavailable reports whether err is a transport failure.
func IsNetworkUnavailable(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsAuthFailure reports whether the backend rejected the session token.
func IsAuthFailure(err error) bool {
	kind := KindOf(err)
	return kind == KindUnauthorized || kind == KindForbidden
}

// IsCanceled reports whether the caller abandoned the request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
