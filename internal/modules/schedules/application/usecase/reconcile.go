package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"deliveryPanel/internal/modules/schedules/application/port"
	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/platform/metrics"
	"deliveryPanel/internal/shared/auth"
)

var (
	ErrMissingMerchant     = errors.New("missing merchant id")
	ErrReconcileInProgress = errors.New("schedule reconciliation already in progress")
	ErrCreatedWithoutID    = errors.New("backend created schedule entry without identifier")
	ErrMissingSessionToken = errors.New("session carries no token")
)

// ReconcileOutcome distinguishes a configured schedule from an explicitly closed one.
type ReconcileOutcome string

const (
	OutcomeApplied ReconcileOutcome = "applied"
	OutcomeClosed  ReconcileOutcome = "closed"
)

// ReconcileResult reports what one reconciliation run changed.
type ReconcileResult struct {
	RunID    string                 `json:"runId"`
	Outcome  ReconcileOutcome       `json:"outcome"`
	Unlinked []string               `json:"unlinked"`
	Created  []domain.ScheduleEntry `json:"created"`
}

// ReconcileOptions tunes how drafts become entries.
type ReconcileOptions struct {
	// MergeDays creates one multi-day entry per distinct range instead of one entry per day.
	MergeDays bool
}

// ReconcileUseCase turns a WeeklyDraft into backend calls for one merchant.
type ReconcileUseCase struct {
	gateway port.ScheduleGateway
	cache   port.EntryCache
	opts    ReconcileOptions
	guard   *inflightGuard
}

func NewReconcileUseCase(gateway port.ScheduleGateway, cache port.EntryCache, opts ReconcileOptions) *ReconcileUseCase {
	return &ReconcileUseCase{gateway: gateway, cache: cache, opts: opts, guard: newInflightGuard()}
}

// Validate checks a draft without touching the network.
func (uc *ReconcileUseCase) Validate(draft domain.WeeklyDraft) error {
	return domain.ValidateDraft(draft)
}

// InProgress reports whether the session is currently reconciling merchantID.
func (uc *ReconcileUseCase) InProgress(session auth.Session, merchantID string) bool {
	return uc.guard.busy(session.ID, strings.TrimSpace(merchantID))
}

// Entries fetches the merchant's linked entries and remembers them for the local open fallback.
func (uc *ReconcileUseCase) Entries(ctx context.Context, session auth.Session, merchantID string) ([]domain.ScheduleEntry, error) {
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return nil, ErrMissingMerchant
	}
	if !session.CanManage(merchantID) {
		return nil, auth.ErrMerchantDenied
	}
	entries, err := uc.gateway.FetchEntries(ctx, session.Token, merchantID)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.Set(ctx, merchantID, entries)
	}
	return entries, nil
}

// DeleteEntry removes an entry record outright. Reconciliation never calls this.
func (uc *ReconcileUseCase) DeleteEntry(ctx context.Context, session auth.Session, entryID string) error {
	if strings.TrimSpace(session.Token) == "" {
		return ErrMissingSessionToken
	}
	return uc.gateway.DeleteEntry(ctx, session.Token, entryID)
}

// Reconcile validates draft, unlinks every entry currently linked to the merchant and links
// freshly created entries for each active slot. Nothing is rolled back on failure: the next run
// starts again from a full unlink, so repeating it is safe. A failed run drops the merchant's
// cached entries, since the backend may already be partially changed.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, session auth.Session, merchantID string, draft domain.WeeklyDraft) (_ *ReconcileResult, err error) {
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" {
		return nil, ErrMissingMerchant
	}
	if strings.TrimSpace(session.Token) == "" {
		return nil, ErrMissingSessionToken
	}
	if !session.CanManage(merchantID) {
		return nil, auth.ErrMerchantDenied
	}
	if err := uc.Validate(draft); err != nil {
		metrics.IncReconcile("invalid")
		return nil, err
	}
	if !uc.guard.tryAcquire(session.ID, merchantID) {
		slog.Warn("reconcile rejected, run in flight", slog.String("merchantId", merchantID), slog.String("sessionId", session.ID))
		return nil, ErrReconcileInProgress
	}
	defer uc.guard.release(session.ID, merchantID)
	defer func() {
		if err != nil && uc.cache != nil {
			uc.cache.Invalidate(context.WithoutCancel(ctx), merchantID)
		}
	}()

	result := &ReconcileResult{RunID: uuid.NewString(), Unlinked: []string{}, Created: []domain.ScheduleEntry{}}
	logger := slog.With(slog.String("merchantId", merchantID), slog.String("runId", result.RunID))
	logger.Info("reconcile start", slog.Int("activeSlots", draft.ActiveCount()))

	if err = uc.unlinkAll(ctx, session.Token, merchantID, result, logger); err != nil {
		metrics.IncReconcile("failed")
		return nil, err
	}

	if draft.ActiveCount() == 0 {
		result.Outcome = OutcomeClosed
		if uc.cache != nil {
			uc.cache.Set(ctx, merchantID, []domain.ScheduleEntry{})
		}
		metrics.IncReconcile(string(OutcomeClosed))
		logger.Info("reconcile done, merchant configured as closed", slog.Int("unlinked", len(result.Unlinked)))
		return result, nil
	}

	for _, planned := range planEntries(draft, uc.opts.MergeDays) {
		created, err := uc.gateway.CreateEntry(ctx, session.Token, planned.rng, planned.days, true)
		if err != nil {
			logger.Error("reconcile create failed", slog.String("range", planned.rng.String()), slog.String("days", domain.FormatDayList(planned.days)), slog.Any("error", err))
			metrics.IncReconcile("failed")
			return nil, err
		}
		if !created.Persisted() {
			metrics.IncReconcile("failed")
			return nil, ErrCreatedWithoutID
		}
		if err = uc.gateway.LinkEntry(ctx, session.Token, merchantID, created.ID); err != nil {
			logger.Error("reconcile link failed", slog.String("entryId", created.ID), slog.Any("error", err))
			metrics.IncReconcile("failed")
			return nil, err
		}
		result.Created = append(result.Created, created)
	}

	result.Outcome = OutcomeApplied
	if uc.cache != nil {
		uc.cache.Set(ctx, merchantID, result.Created)
	}
	metrics.IncReconcile(string(OutcomeApplied))
	logger.Info("reconcile done", slog.Int("unlinked", len(result.Unlinked)), slog.Int("created", len(result.Created)))
	return result, nil
}

func (uc *ReconcileUseCase) unlinkAll(ctx context.Context, token, merchantID string, result *ReconcileResult, logger *slog.Logger) error {
	existing, err := uc.gateway.FetchEntries(ctx, token, merchantID)
	if err != nil {
		logger.Error("reconcile fetch failed", slog.Any("error", err))
		return err
	}
	for _, entry := range existing {
		if !entry.Persisted() {
			continue
		}
		err := uc.gateway.UnlinkEntry(ctx, token, merchantID, entry.ID)
		switch {
		case port.IsNotFound(err):
			logger.Info("reconcile unlink skipped, already unlinked", slog.String("entryId", entry.ID))
		case err != nil:
			logger.Error("reconcile unlink failed", slog.String("entryId", entry.ID), slog.Any("error", err))
			return err
		default:
			result.Unlinked = append(result.Unlinked, entry.ID)
		}
	}
	return nil
}

type plannedEntry struct {
	rng  domain.TimeRange
	days []domain.DayOfWeek
}

// planEntries lists the entries to create, Sunday first and in slot order within a day.
// With merge enabled, identical ranges across days share one entry placed where the range first appears.
func planEntries(draft domain.WeeklyDraft, merge bool) []plannedEntry {
	var plan []plannedEntry
	index := make(map[domain.TimeRange]int)
	for _, day := range domain.AllDays() {
		for _, slot := range draft.Slots(day) {
			if !slot.Active {
				continue
			}
			if merge {
				if i, ok := index[slot.Range]; ok {
					if !containsDay(plan[i].days, day) {
						plan[i].days = append(plan[i].days, day)
					}
					continue
				}
				index[slot.Range] = len(plan)
			}
			plan = append(plan, plannedEntry{rng: slot.Range, days: []domain.DayOfWeek{day}})
		}
	}
	return plan
}

func containsDay(days []domain.DayOfWeek, day domain.DayOfWeek) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func (r *ReconcileResult) String() string {
	return fmt.Sprintf("run %s: %s (unlinked %d, created %d)", r.RunID, r.Outcome, len(r.Unlinked), len(r.Created))
}
