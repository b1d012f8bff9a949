package httputil

import (
	"context"
	"errors"
	"net/http"
)

// HTTPErrorInfo is what a handler writes back for a failed request.
type HTTPErrorInfo struct {
	Status  int
	Message string
	Details any // handler specific, e.g. validation violations
}

// Resolver recognises an error and describes the response for it.
type Resolver func(err error) (HTTPErrorInfo, bool)

// ErrorMapper runs its resolvers in the order they were added; the first match wins.
// Context deadline and cancellation are always checked first.
type ErrorMapper struct {
	chain    []Resolver
	fallback HTTPErrorInfo
}

func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{
		chain: []Resolver{
			Sentinel(context.DeadlineExceeded, http.StatusGatewayTimeout, "request timeout"),
			Sentinel(context.Canceled, http.StatusServiceUnavailable, "request cancelled"),
		},
		fallback: HTTPErrorInfo{Status: http.StatusInternalServerError, Message: "internal server error"},
	}
}

// Sentinel matches err and anything wrapping it.
func Sentinel(target error, status int, message string) Resolver {
	return func(err error) (HTTPErrorInfo, bool) {
		if errors.Is(err, target) {
			return HTTPErrorInfo{Status: status, Message: message}, true
		}
		return HTTPErrorInfo{}, false
	}
}

// WithMapping appends a Sentinel resolver.
func (m *ErrorMapper) WithMapping(target error, status int, message string) *ErrorMapper {
	return m.WithResolver(Sentinel(target, status, message))
}

func (m *ErrorMapper) WithResolver(r Resolver) *ErrorMapper {
	if r != nil {
		m.chain = append(m.chain, r)
	}
	return m
}

// WithDefault sets the response for errors no resolver recognises.
func (m *ErrorMapper) WithDefault(status int, message string) *ErrorMapper {
	m.fallback = HTTPErrorInfo{Status: status, Message: message}
	return m
}

func (m *ErrorMapper) Map(err error) HTTPErrorInfo {
	if err == nil {
		return HTTPErrorInfo{Status: http.StatusOK}
	}
	for _, resolve := range m.chain {
		if info, ok := resolve(err); ok {
			return info
		}
	}
	return m.fallback
}
