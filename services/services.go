// Package services holds the hazard lifecycle engine and the collaborators
// around it: verification tokens, credentials, the feed cache and
// notification dispatch.
package services

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks HazardNotifier,FeedCache
//go:generate mockgen -source=../notify/notify.go -destination=mocks/notify_mock.go -package=mocks EmailSender,Publisher

import (
	"context"
	"io"
	"log/slog"
	"time"

	"saferoute-api/metrics"
	"saferoute-api/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Actor is the authenticated authority performing an operation, as
// established by a validated session token.
type Actor struct {
	AuthorityID string
	Email       string
	Level       models.JurisdictionLevel
}

// HazardNotifier is told about every newly reported hazard. Implementations
// must return immediately; delivery happens elsewhere and may fail silently.
type HazardNotifier interface {
	NotifyHazardReported(h models.Hazard)
}

// FeedCache caches the driver-facing verified feed. GetVisible returns the
// generation it consulted so a miss can be filled without racing a later
// invalidation.
type FeedCache interface {
	GetVisible(ctx context.Context, limit int) (hazards []models.Hazard, generation int64, ok bool)
	PutVisible(ctx context.Context, generation int64, limit int, hazards []models.Hazard)
	InvalidateVisible(ctx context.Context)
}

type noopNotifier struct{}

func (noopNotifier) NotifyHazardReported(models.Hazard) {}

type noopFeedCache struct{}

func (noopFeedCache) GetVisible(context.Context, int) ([]models.Hazard, int64, bool) {
	return nil, 0, false
}
func (noopFeedCache) PutVisible(context.Context, int64, int, []models.Hazard) {}
func (noopFeedCache) InvalidateVisible(context.Context)                       {}

// deps are the ambient collaborators shared by every service.
type deps struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

type Option func(*deps)

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithTracer(t trace.Tracer) Option {
	return func(d *deps) { d.tracer = t }
}

// WithClock overrides time.Now, mainly for tests that need to move past
// token expiry or the report observation window.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func newDeps(opts []Option) deps {
	d := deps{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer: otel.Tracer("saferoute-api/services"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
