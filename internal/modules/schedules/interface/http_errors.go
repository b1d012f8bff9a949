package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/application/usecase"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/modules/schedules/infrastructure"
	"deliveryPanel/internal/shared/auth"
	"deliveryPanel/internal/shared/httputil"
)

// errorBody is the JSON shape of every failed dashboard request.
type errorBody struct {
	Error      string             `json:"error"`
	Kind       string             `json:"kind,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func newErrorMapper() *httputil.ErrorMapper {
	return httputil.NewErrorMapper().
		WithResolver(resolveValidation).
		WithResolver(resolveBackend).
		WithMapping(usecase.ErrReconcileInProgress, http.StatusConflict, "schedule update already in progress").
		WithMapping(usecase.ErrMissingMerchant, http.StatusBadRequest, "missing merchant").
		WithMapping(usecase.ErrMissingSessionToken, http.StatusUnauthorized, "missing token").
		WithMapping(usecase.ErrCreatedWithoutID, http.StatusBadGateway, "backend returned an entry without id").
		WithMapping(infrastructure.ErrMissingIdentifier, http.StatusBadRequest, "missing identifier").
		WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "missing token").
		WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token").
		WithMapping(auth.ErrSessionNotFound, http.StatusUnauthorized, "session not found").
		WithMapping(auth.ErrSessionExpired, http.StatusUnauthorized, "session expired").
		WithMapping(auth.ErrMerchantDenied, http.StatusForbidden, "merchant not accessible").
		WithMapping(domain.ErrInvalidTimeOfDay, http.StatusBadRequest, "invalid time of day")
}

func resolveValidation(err error) (httputil.HTTPErrorInfo, bool) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return httputil.HTTPErrorInfo{}, false
	}
	return httputil.HTTPErrorInfo{
		Status:  http.StatusUnprocessableEntity,
		Message: domain.ErrInvalidSchedule.Error(),
		Details: verr.Violations,
	}, true
}

func resolveBackend(err error) (httputil.HTTPErrorInfo, bool) {
	var network *port.NetworkUnavailableError
	if errors.As(err, &network) {
		return httputil.HTTPErrorInfo{Status: http.StatusServiceUnavailable, Message: "backend unavailable", Details: port.KindNetwork}, true
	}
	var remote *port.RemoteError
	if !errors.As(err, &remote) {
		return httputil.HTTPErrorInfo{}, false
	}
	message := remote.Message
	if message == "" {
		message = http.StatusText(remote.Status)
	}
	return httputil.HTTPErrorInfo{Status: statusForKind(remote.Kind), Message: message, Details: remote.Kind}, true
}

func statusForKind(kind port.ErrorKind) int {
	switch kind {
	case port.KindBadRequest:
		return http.StatusBadRequest
	case port.KindUnauthorized:
		return http.StatusUnauthorized
	case port.KindForbidden:
		return http.StatusForbidden
	case port.KindNotFound:
		return http.StatusNotFound
	case port.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func respondError(c echo.Context, mapper *httputil.ErrorMapper, err error) error {
	info := mapper.Map(err)
	body := errorBody{Error: info.Message}
	switch details := info.Details.(type) {
	case []domain.Violation:
		body.Violations = details
	case port.ErrorKind:
		body.Kind = string(details)
	}
	attrs := []any{slog.String("path", c.Path()), slog.Int("status", info.Status), slog.Any("error", err)}
	if info.Status >= http.StatusInternalServerError {
		slog.Error("request failed", attrs...)
	} else {
		slog.Warn("request rejected", attrs...)
	}
	return c.JSON(info.Status, body)
}
