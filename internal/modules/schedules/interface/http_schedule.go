package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"deliveryPanel/internal/modules/schedules/application/usecase"
	"deliveryPanel/internal/modules/schedules/application/viewmodel"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/shared/auth"
	"deliveryPanel/internal/shared/httputil"
)

const (
	maxDraftBody   = 1 << 20
	requestTimeout = 30 * time.Second
)

var errMalformedDraft = errors.New("malformed schedule draft")

// ScheduleHandler serves the dashboard's weekly hours editor.
type ScheduleHandler struct {
	reconcileUC *usecase.ReconcileUseCase
	openUC      *usecase.OpenStateUseCase
	mapper      *httputil.ErrorMapper
}

func NewScheduleHandler(reconcileUC *usecase.ReconcileUseCase, openUC *usecase.OpenStateUseCase) *ScheduleHandler {
	mapper := newErrorMapper().WithMapping(errMalformedDraft, http.StatusBadRequest, errMalformedDraft.Error())
	return &ScheduleHandler{reconcileUC: reconcileUC, openUC: openUC, mapper: mapper}
}

// Register mounts the routes on a group already guarded by SessionMiddleware.
func (h *ScheduleHandler) Register(g *echo.Group) {
	g.GET("/merchants/:merchantId/schedule", h.Get)
	g.PUT("/merchants/:merchantId/schedule", h.Save)
	g.POST("/merchants/:merchantId/schedule/validate", h.Validate)
	g.POST("/merchants/:merchantId/schedule/changes", h.Changes)
	g.GET("/merchants/:merchantId/open", h.Open)
	g.DELETE("/schedules/:entryId", h.DeleteEntry)
}

type scheduleResponse struct {
	MerchantID string                 `json:"merchantId"`
	Entries    []domain.ScheduleEntry `json:"entries"`
	Draft      domain.WeeklyDraft     `json:"draft"`
	Summary    []viewmodel.DayRow     `json:"summary"`
	Saving     bool                   `json:"saving"`
}

// Get returns the confirmed entries with their editable projection.
func (h *ScheduleHandler) Get(c echo.Context) error {
	session, merchantID, err := sessionAndMerchant(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.reconcileUC.Entries(ctx, session, merchantID)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	draft := viewmodel.ToDraft(entries)
	return c.JSON(http.StatusOK, scheduleResponse{
		MerchantID: merchantID,
		Entries:    entries,
		Draft:      draft,
		Summary:    viewmodel.Summary(draft),
		Saving:     h.reconcileUC.InProgress(session, merchantID),
	})
}

// Save reconciles the submitted draft against the backend.
func (h *ScheduleHandler) Save(c echo.Context) error {
	session, merchantID, err := sessionAndMerchant(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	draft, err := bindDraft(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.reconcileUC.Reconcile(ctx, session, merchantID, draft)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	return c.JSON(http.StatusOK, result)
}

type validateResponse struct {
	Valid      bool               `json:"valid"`
	Violations []domain.Violation `json:"violations"`
}

// Validate checks a draft without calling the backend.
func (h *ScheduleHandler) Validate(c echo.Context) error {
	if _, _, err := sessionAndMerchant(c); err != nil {
		return respondError(c, h.mapper, err)
	}
	draft, err := bindDraft(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	if err := h.reconcileUC.Validate(draft); err != nil {
		return respondError(c, h.mapper, err)
	}
	return c.JSON(http.StatusOK, validateResponse{Valid: true, Violations: []domain.Violation{}})
}

type changesResponse struct {
	Dirty bool `json:"dirty"`
}

// Changes reports whether the submitted draft differs from what the backend holds.
func (h *ScheduleHandler) Changes(c echo.Context) error {
	session, merchantID, err := sessionAndMerchant(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	draft, err := bindDraft(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.reconcileUC.Entries(ctx, session, merchantID)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	return c.JSON(http.StatusOK, changesResponse{Dirty: viewmodel.HasUnsavedChanges(draft, entries)})
}

// Open answers whether the merchant is open right now.
func (h *ScheduleHandler) Open(c echo.Context) error {
	session, merchantID, err := sessionAndMerchant(c)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	state, err := h.openUC.Evaluate(ctx, session.Token, merchantID)
	if err != nil {
		return respondError(c, h.mapper, err)
	}
	return c.JSON(http.StatusOK, state)
}

// DeleteEntry removes an entry record. The dashboard editor never calls it.
func (h *ScheduleHandler) DeleteEntry(c echo.Context) error {
	session, ok := SessionFrom(c)
	if !ok {
		return respondError(c, h.mapper, auth.ErrSessionNotFound)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.reconcileUC.DeleteEntry(ctx, session, c.Param("entryId")); err != nil {
		return respondError(c, h.mapper, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func sessionAndMerchant(c echo.Context) (auth.Session, string, error) {
	session, ok := SessionFrom(c)
	if !ok {
		return auth.Session{}, "", auth.ErrSessionNotFound
	}
	merchantID := strings.TrimSpace(c.Param("merchantId"))
	if merchantID == "" {
		return auth.Session{}, "", usecase.ErrMissingMerchant
	}
	if !session.CanManage(merchantID) {
		return auth.Session{}, "", auth.ErrMerchantDenied
	}
	return session, merchantID, nil
}

// bindDraft accepts either a bare day-keyed object or {"draft": {...}}.
func bindDraft(c echo.Context) (domain.WeeklyDraft, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDraftBody))
	if err != nil {
		return domain.WeeklyDraft{}, errMalformedDraft
	}
	var wrapped struct {
		Draft *domain.WeeklyDraft `json:"draft"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Draft != nil {
		return *wrapped.Draft, nil
	}
	var draft domain.WeeklyDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return domain.WeeklyDraft{}, errors.Join(errMalformedDraft, err)
	}
	return draft, nil
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
