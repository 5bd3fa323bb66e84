package services

import (
	"context"
	"errors"
	"time"

	"saferoute-api/models"
	"saferoute-api/notify"
	"saferoute-api/repository"
)

type NotifierConfig struct {
	TokenTTL    time.Duration
	FrontendURL string
}

// VerificationNotifier asks an authority to review each new hazard: it picks
// the dispatch authority, issues a token and delivers the link by email, and
// announces the request over MQTT when a publisher is configured.
type VerificationNotifier struct {
	deps
	executor  Executor
	repo      repository.Repository
	tokens    *VerificationService
	email     notify.EmailSender
	publisher notify.Publisher
	cfg       NotifierConfig
}

// NewVerificationNotifier builds the notifier. publisher may be nil.
func NewVerificationNotifier(
	executor Executor,
	repo repository.Repository,
	tokens *VerificationService,
	email notify.EmailSender,
	publisher notify.Publisher,
	cfg NotifierConfig,
	opts ...Option,
) *VerificationNotifier {
	return &VerificationNotifier{
		deps:      newDeps(opts),
		executor:  executor,
		repo:      repo,
		tokens:    tokens,
		email:     email,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (n *VerificationNotifier) NotifyHazardReported(h models.Hazard) {
	n.executor.Submit("verification-request", func(ctx context.Context) {
		n.deliver(ctx, h)
	})
}

func (n *VerificationNotifier) deliver(ctx context.Context, h models.Hazard) {
	ctx, span := n.tracer.Start(ctx, "notify.verification_request")
	defer span.End()

	log := n.logger.With("hazard_id", h.ID)

	authority, err := n.repo.FindDispatchAuthority(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		n.metrics.IncDispatch("no_authority")
		log.WarnContext(ctx, "no active LOCAL or STATE authority to notify")
		return
	}
	if err != nil {
		n.metrics.IncDispatch("failed")
		log.ErrorContext(ctx, "dispatch authority lookup failed", "error", err)
		return
	}
	log = log.With("authority_id", authority.ID)

	token, err := n.tokens.IssueToken(ctx, h.ID, authority.ID, n.cfg.TokenTTL)
	if err != nil {
		n.metrics.IncDispatch("failed")
		log.ErrorContext(ctx, "verification token issue failed", "error", err)
		return
	}

	msg, err := notify.VerificationEmail{
		To:          authority.Email,
		HazardID:    h.ID,
		HazardType:  h.HazardType.String(),
		Latitude:    h.Latitude,
		Longitude:   h.Longitude,
		Token:       token.Token,
		ExpiresAt:   token.ExpiresAt,
		FrontendURL: n.cfg.FrontendURL,
	}.Build()
	if err != nil {
		n.metrics.IncDispatch("failed")
		log.ErrorContext(ctx, "verification email render failed", "error", err)
		return
	}

	switch err := n.email.Send(ctx, msg); {
	case errors.Is(err, notify.ErrNotConfigured):
		n.metrics.IncDispatch("skipped")
		log.WarnContext(ctx, "smtp credentials not configured, email not sent")
	case err != nil:
		n.metrics.IncDispatch("failed")
		log.ErrorContext(ctx, "verification email failed", "error", err)
	default:
		n.metrics.IncDispatch("sent")
		log.InfoContext(ctx, "verification email sent")
	}

	if n.publisher == nil {
		return
	}
	notice := notify.VerificationNotice{
		HazardID:    h.ID,
		HazardType:  h.HazardType.String(),
		Latitude:    h.Latitude,
		Longitude:   h.Longitude,
		AuthorityID: authority.ID,
		ExpiresAt:   token.ExpiresAt,
		IssuedAt:    token.CreatedAt,
	}
	if err := n.publisher.Publish(ctx, notice); err != nil {
		n.metrics.IncDispatch("publish_failed")
		log.ErrorContext(ctx, "verification notice publish failed", "error", err)
		return
	}
	n.metrics.IncDispatch("published")
}

var _ HazardNotifier = (*VerificationNotifier)(nil)
