package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/platform/metrics"
)

const (
	opFetchEntries = "schedule.fetch_entries"
	opCreateEntry  = "schedule.create_entry"
	opDeleteEntry  = "schedule.delete_entry"
	opLinkEntry    = "schedule.link_entry"
	opUnlinkEntry  = "schedule.unlink_entry"
	opFetchIsOpen  = "schedule.fetch_is_open"
)

// ScheduleHTTPClient implements port.ScheduleGateway against the backend REST API.
type ScheduleHTTPClient struct {
	rest  *RESTClient
	paths EndpointPaths
}

func NewScheduleHTTPClient(rest *RESTClient, paths EndpointPaths) *ScheduleHTTPClient {
	return &ScheduleHTTPClient{rest: rest, paths: paths.WithDefaults()}
}

func (c *ScheduleHTTPClient) FetchEntries(ctx context.Context, token, merchantID string) ([]domain.ScheduleEntry, error) {
	path, err := buildPath(c.paths.List, merchantID)
	if err != nil {
		return nil, err
	}
	var entries []domain.ScheduleEntry
	err = c.perform(ctx, opFetchEntries, http.MethodGet, path, token, nil, func(body io.Reader) error {
		decoded, err := decodeEntries(body)
		entries = decoded
		return err
	})
	if port.IsNotFound(err) {
		slog.Debug("schedule entries not found, treating as empty", slog.String("merchantId", merchantID))
		return []domain.ScheduleEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *ScheduleHTTPClient) CreateEntry(ctx context.Context, token string, rng domain.TimeRange, days []domain.DayOfWeek, active bool) (domain.ScheduleEntry, error) {
	payload, err := encodeCreateEntry(rng, days, active)
	if err != nil {
		return domain.ScheduleEntry{}, fmt.Errorf("encode schedule entry: %w", err)
	}
	var created domain.ScheduleEntry
	err = c.perform(ctx, opCreateEntry, http.MethodPost, c.paths.Create, token, payload, func(body io.Reader) error {
		decoded, err := decodeEntry(body)
		created = decoded
		return err
	})
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	// Some backends echo only the identifier; keep what was sent for the rest.
	if len(created.Days) == 0 {
		created.Days = append([]domain.DayOfWeek(nil), days...)
	}
	return created, nil
}

func (c *ScheduleHTTPClient) DeleteEntry(ctx context.Context, token, entryID string) error {
	path, err := buildPath(c.paths.Delete, entryID)
	if err != nil {
		return err
	}
	return c.perform(ctx, opDeleteEntry, http.MethodDelete, path, token, nil, nil)
}

func (c *ScheduleHTTPClient) LinkEntry(ctx context.Context, token, merchantID, entryID string) error {
	path, err := buildPath(c.paths.Link, merchantID, entryID)
	if err != nil {
		return err
	}
	return c.perform(ctx, opLinkEntry, http.MethodPost, path, token, nil, nil)
}

func (c *ScheduleHTTPClient) UnlinkEntry(ctx context.Context, token, merchantID, entryID string) error {
	path, err := buildPath(c.paths.Unlink, merchantID, entryID)
	if err != nil {
		return err
	}
	return c.perform(ctx, opUnlinkEntry, http.MethodDelete, path, token, nil, nil)
}

func (c *ScheduleHTTPClient) FetchIsOpen(ctx context.Context, token, merchantID string) (bool, error) {
	path, err := buildPath(c.paths.IsOpen, merchantID)
	if err != nil {
		return false, err
	}
	var open bool
	err = c.perform(ctx, opFetchIsOpen, http.MethodGet, path, token, nil, func(body io.Reader) error {
		decoded, err := decodeIsOpen(body)
		open = decoded
		return err
	})
	return open, err
}

// perform sends one request and translates the outcome into the port error taxonomy.
// decode runs only on 2xx responses; nil decode ignores the body.
func (c *ScheduleHTTPClient) perform(ctx context.Context, op, method, path, token string, payload []byte, decode func(io.Reader) error) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := c.rest.NewRequest(ctx, method, path, token, body)
	if err != nil {
		slog.Error("schedule request build failed", slog.String("op", op), slog.String("path", path), slog.Any("error", err))
		return err
	}
	slog.Debug("schedule request", slog.String("op", op), slog.String("method", method), slog.String("url", req.URL.String()), slog.String("requestId", req.Header.Get("X-Request-ID")))

	res, err := c.rest.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			metrics.IncBackendRequest(op, "canceled")
			return fmt.Errorf("%s: %w", op, context.Canceled)
		}
		slog.Warn("schedule backend unreachable", slog.String("op", op), slog.String("path", path), slog.Any("error", err))
		metrics.IncBackendRequest(op, string(port.KindNetwork))
		return &port.NetworkUnavailableError{Op: op, Err: err}
	}
	defer res.Body.Close()
	slog.Debug("schedule response", slog.String("op", op), slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		remote := port.NewRemoteError(op, res.StatusCode, extractErrorMessage(raw))
		metrics.IncBackendRequest(op, string(remote.Kind))
		if remote.Kind != port.KindNotFound {
			slog.Warn("schedule backend error", slog.String("op", op), slog.Int("status", res.StatusCode), slog.String("url", req.URL.String()), slog.String("message", strings.TrimSpace(remote.Message)))
		}
		return remote
	}
	metrics.IncBackendRequest(op, "ok")

	if decode == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))
		return nil
	}
	return decode(res.Body)
}

var _ port.ScheduleGateway = (*ScheduleHTTPClient)(nil)
