package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"saferoute-api/apperrors"
	"saferoute-api/models"
	"saferoute-api/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ObservationWindow bounds how far in the past a driver may date a report.
	ObservationWindow = 24 * time.Hour
	MaxNotesLength    = 1000

	DefaultListLimit = 100
	MaxListLimit     = 200
)

type ReportInput struct {
	Type       models.HazardType
	Latitude   float64
	Longitude  float64
	ObservedAt *time.Time
}

// HazardFilter narrows the authority listing. Results are newest first.
type HazardFilter struct {
	Status *models.HazardStatus
	Limit  int
	Before *time.Time
}

// HazardPage is one page of a listing. NextCursor is the creation time of
// the last item when more rows follow.
type HazardPage struct {
	Items      []models.Hazard
	HasMore    bool
	NextCursor *time.Time
}

type HazardHistory struct {
	Hazard    models.Hazard     `json:"hazard"`
	AuditLogs []models.AuditLog `json:"audit_logs"`
}

type HazardStats struct {
	PendingAuthority int64 `json:"pending_authority"`
	Verified         int64 `json:"verified"`
	Resolved         int64 `json:"resolved"`
	Total            int64 `json:"total"`
}

// HazardService owns hazard status. Every transition it commits is written
// together with exactly one audit entry.
type HazardService struct {
	deps
	repo     repository.Repository
	notifier HazardNotifier
	cache    FeedCache
}

// NewHazardService wires the engine. A nil notifier or cache disables that
// collaborator.
func NewHazardService(repo repository.Repository, notifier HazardNotifier, cache FeedCache, opts ...Option) *HazardService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cache == nil {
		cache = noopFeedCache{}
	}
	return &HazardService{
		deps:     newDeps(opts),
		repo:     repo,
		notifier: notifier,
		cache:    cache,
	}
}

// Report stores a new hazard awaiting authority review and hands it to the
// notifier without waiting for delivery.
func (s *HazardService) Report(ctx context.Context, in ReportInput) (*models.Hazard, error) {
	ctx, span := s.tracer.Start(ctx, "hazards.report",
		trace.WithAttributes(attribute.String("hazard.type", in.Type.String())))
	defer span.End()

	now := s.now()
	if err := validateReport(in, now); err != nil {
		return nil, err
	}

	h := &models.Hazard{
		ID:         uuid.NewString(),
		HazardType: in.Type,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		ObservedAt: in.ObservedAt,
		Status:     models.StatusPendingAuthority,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateHazard(ctx, h); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create hazard")
		return nil, translateRepoError(err, "hazard not found")
	}

	s.metrics.IncReported(h.HazardType.String())
	s.logger.InfoContext(ctx, "hazard reported",
		"hazard_id", h.ID,
		"type", h.HazardType.String(),
	)
	s.notifier.NotifyHazardReported(*h)
	return h, nil
}

func validateReport(in ReportInput, now time.Time) error {
	if !in.Type.Valid() {
		return apperrors.Validation("unknown hazard type")
	}
	if math.IsNaN(in.Latitude) || in.Latitude < -90 || in.Latitude > 90 {
		return apperrors.Validation("latitude must be between -90 and 90")
	}
	if math.IsNaN(in.Longitude) || in.Longitude < -180 || in.Longitude > 180 {
		return apperrors.Validation("longitude must be between -180 and 180")
	}
	if in.ObservedAt != nil {
		if in.ObservedAt.After(now) {
			return apperrors.Validation("observed_at cannot be in the future")
		}
		if now.Sub(*in.ObservedAt) > ObservationWindow {
			return apperrors.Validation("observed_at must be within the last 24 hours")
		}
	}
	return nil
}

func (s *HazardService) Verify(ctx context.Context, hazardID string, actor Actor, notes string) (*models.Hazard, error) {
	return s.transition(ctx, hazardID, actor, models.ActionVerify, notes)
}

// Reject closes a pending report as false. It moves straight to RESOLVED so
// the hazard is never visible to drivers.
func (s *HazardService) Reject(ctx context.Context, hazardID string, actor Actor, notes string) (*models.Hazard, error) {
	return s.transition(ctx, hazardID, actor, models.ActionReject, notes)
}

func (s *HazardService) Resolve(ctx context.Context, hazardID string, actor Actor, notes string) (*models.Hazard, error) {
	return s.transition(ctx, hazardID, actor, models.ActionResolve, notes)
}

func (s *HazardService) transition(ctx context.Context, hazardID string, actor Actor, action models.AuditAction, notes string) (*models.Hazard, error) {
	ctx, span := s.tracer.Start(ctx, "hazards.transition", trace.WithAttributes(
		attribute.String("hazard.id", hazardID),
		attribute.String("hazard.action", action.String()),
		attribute.String("authority.id", actor.AuthorityID),
	))
	defer span.End()

	updated, err := s.applyTransition(ctx, hazardID, actor, action, notes)
	if err != nil {
		code := apperrors.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		s.metrics.IncTransitionRejected(action.String(), string(code))
		s.logger.WarnContext(ctx, "hazard transition rejected",
			"hazard_id", hazardID,
			"action", action.String(),
			"authority_id", actor.AuthorityID,
			"code", string(code),
			"error", err,
		)
		return nil, err
	}

	// The transition is committed; nothing below may undo or fail it.
	s.cache.InvalidateVisible(ctx)
	s.metrics.IncTransition(action.String())
	s.logger.InfoContext(ctx, "hazard transition committed",
		"hazard_id", hazardID,
		"action", action.String(),
		"authority_id", actor.AuthorityID,
		"status", updated.Status.String(),
	)
	return updated, nil
}

func (s *HazardService) applyTransition(ctx context.Context, hazardID string, actor Actor, action models.AuditAction, notes string) (*models.Hazard, error) {
	if !actor.Level.CanVerify() {
		return nil, apperrors.Forbidden(fmt.Sprintf("%s authorities cannot %s hazards", actor.Level, strings.ToLower(action.String())))
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return nil, apperrors.Validation(fmt.Sprintf("notes must be at most %d characters", MaxNotesLength))
	}
	if notes == "" {
		notes = defaultNotes(action, actor.Email)
	}

	var updated *models.Hazard
	err := s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		current, err := tx.LockHazard(ctx, hazardID)
		if err != nil {
			return err
		}
		next, ok := models.NextStatus(current.Status, action)
		if !ok {
			return apperrors.InvalidStateTransition(fmt.Sprintf(
				"hazard is in %s status, cannot %s", current.Status, strings.ToLower(action.String())))
		}

		// A transition never predates the one before it, even if the clock
		// stepped back.
		now := s.now()
		if now.Before(current.UpdatedAt) {
			now = current.UpdatedAt
		}
		change := repository.StatusChange{From: current.Status, To: next, At: now}
		switch next {
		case models.StatusVerified:
			change.VerifiedAt = &now
		case models.StatusResolved:
			change.ResolvedAt = &now
		}
		if err := tx.UpdateHazardStatus(ctx, hazardID, change); err != nil {
			return err
		}

		previous := current.Status
		authorityID := actor.AuthorityID
		entry := &models.AuditLog{
			ID:          uuid.NewString(),
			HazardID:    hazardID,
			AuthorityID: &authorityID,
			Action:      action,
			OldStatus:   &previous,
			NewStatus:   next,
			Notes:       notes,
			Timestamp:   now,
		}
		if err := tx.AppendAuditLog(ctx, entry); err != nil {
			return err
		}

		current.Status = next
		current.UpdatedAt = now
		if change.VerifiedAt != nil {
			current.VerifiedAt = change.VerifiedAt
		}
		if change.ResolvedAt != nil {
			current.ResolvedAt = change.ResolvedAt
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, translateRepoError(err, fmt.Sprintf("hazard %s not found", hazardID))
	}
	return updated, nil
}

func defaultNotes(action models.AuditAction, email string) string {
	switch action {
	case models.ActionVerify:
		return "Verified by " + email
	case models.ActionReject:
		return "Rejected by " + email
	default:
		return "Resolved by " + email
	}
}

// GetVisibleHazards is the only read the driver surface may use. It takes no
// status argument and returns VERIFIED hazards, newest first.
func (s *HazardService) GetVisibleHazards(ctx context.Context, limit int) ([]models.Hazard, error) {
	limit = ClampLimit(limit)

	cached, generation, ok := s.cache.GetVisible(ctx, limit)
	if ok {
		return visibleOnly(cached), nil
	}

	verified := models.StatusVerified
	rows, err := s.repo.ListHazards(ctx, repository.HazardQuery{Status: &verified, Limit: limit})
	if err != nil {
		return nil, translateRepoError(err, "hazard not found")
	}
	rows = visibleOnly(rows)
	s.cache.PutVisible(ctx, generation, limit, rows)
	return rows, nil
}

func visibleOnly(rows []models.Hazard) []models.Hazard {
	out := make([]models.Hazard, 0, len(rows))
	for _, h := range rows {
		if h.VisibleToDrivers() {
			out = append(out, h)
		}
	}
	return out
}

func (s *HazardService) ListHazards(ctx context.Context, f HazardFilter) (HazardPage, error) {
	limit := ClampLimit(f.Limit)
	rows, err := s.repo.ListHazards(ctx, repository.HazardQuery{
		Status: f.Status,
		Limit:  limit + 1,
		Before: f.Before,
	})
	if err != nil {
		return HazardPage{}, translateRepoError(err, "hazard not found")
	}
	return newHazardPage(rows, limit), nil
}

// ListPendingQueue returns hazards awaiting review, oldest first, starting
// strictly after the given creation time when one is supplied.
func (s *HazardService) ListPendingQueue(ctx context.Context, limit int, after *time.Time) (HazardPage, error) {
	limit = ClampLimit(limit)
	pending := models.StatusPendingAuthority
	rows, err := s.repo.ListHazards(ctx, repository.HazardQuery{
		Status:    &pending,
		Limit:     limit + 1,
		After:     after,
		Ascending: true,
	})
	if err != nil {
		return HazardPage{}, translateRepoError(err, "hazard not found")
	}
	return newHazardPage(rows, limit), nil
}

// newHazardPage trims a limit+1 read down to limit rows.
func newHazardPage(rows []models.Hazard, limit int) HazardPage {
	page := HazardPage{Items: rows, HasMore: len(rows) > limit}
	if page.HasMore {
		page.Items = rows[:limit]
	}
	if page.Items == nil {
		page.Items = []models.Hazard{}
	}
	if page.HasMore {
		last := page.Items[len(page.Items)-1].CreatedAt
		page.NextCursor = &last
	}
	return page
}

func (s *HazardService) GetHazardWithHistory(ctx context.Context, hazardID string) (*HazardHistory, error) {
	h, err := s.repo.GetHazard(ctx, hazardID)
	if err != nil {
		return nil, translateRepoError(err, fmt.Sprintf("hazard %s not found", hazardID))
	}
	logs, err := s.repo.ListAuditLogs(ctx, hazardID)
	if err != nil {
		return nil, translateRepoError(err, "audit log not found")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return &HazardHistory{Hazard: *h, AuditLogs: logs}, nil
}

func (s *HazardService) Stats(ctx context.Context) (HazardStats, error) {
	counts, err := s.repo.CountHazardsByStatus(ctx)
	if err != nil {
		return HazardStats{}, translateRepoError(err, "hazard not found")
	}
	stats := HazardStats{
		PendingAuthority: counts[models.StatusPendingAuthority],
		Verified:         counts[models.StatusVerified],
		Resolved:         counts[models.StatusResolved],
	}
	stats.Total = stats.PendingAuthority + stats.Verified + stats.Resolved
	return stats, nil
}

// ClampLimit applies the listing default and ceiling.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
