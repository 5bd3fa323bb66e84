package services

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"saferoute-api/apperrors"
	"saferoute-api/models"
	"saferoute-api/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// VerificationService issues and redeems emailed verification tokens. A
// hazard has at most one live token at a time.
type VerificationService struct {
	deps
	repo repository.Repository
}

func NewVerificationService(repo repository.Repository, opts ...Option) *VerificationService {
	return &VerificationService{deps: newDeps(opts), repo: repo}
}

func (s *VerificationService) IssueToken(ctx context.Context, hazardID, authorityID string, ttl time.Duration) (*models.VerificationToken, error) {
	ctx, span := s.tracer.Start(ctx, "verification.issue",
		trace.WithAttributes(attribute.String("hazard.id", hazardID)))
	defer span.End()

	if ttl <= 0 {
		return nil, apperrors.Validation("token ttl must be positive")
	}

	now := s.now()
	token := &models.VerificationToken{
		ID:          uuid.NewString(),
		Token:       rand.Text(),
		HazardID:    hazardID,
		AuthorityID: authorityID,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}

	err := s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		// Holding the hazard row serializes issuers for the same hazard.
		if _, err := tx.LockHazard(ctx, hazardID); err != nil {
			return err
		}
		_, err := tx.FindLiveToken(ctx, hazardID, now)
		switch {
		case err == nil:
			return apperrors.Conflict("a live verification token already exists for this hazard")
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return tx.CreateToken(ctx, token)
	})
	if err != nil {
		span.RecordError(err)
		return nil, translateRepoError(err, "hazard not found")
	}

	s.logger.InfoContext(ctx, "verification token issued",
		"hazard_id", hazardID,
		"authority_id", authorityID,
		"expires_at", token.ExpiresAt,
	)
	return token, nil
}

// Redeem consumes a token and returns the authority it was issued to. Checks
// run in order: unknown token, already used, expired.
func (s *VerificationService) Redeem(ctx context.Context, hazardID, token string) (*models.Authority, error) {
	ctx, span := s.tracer.Start(ctx, "verification.redeem",
		trace.WithAttributes(attribute.String("hazard.id", hazardID)))
	defer span.End()

	now := s.now()
	var authority *models.Authority
	err := s.repo.RunInTx(ctx, func(tx repository.Repository) error {
		t, err := tx.FindToken(ctx, hazardID, token)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("invalid verification token")
		}
		if err != nil {
			return err
		}
		if t.Used {
			return apperrors.AlreadyUsed("token has already been used")
		}
		if t.ExpiredAt(now) {
			return apperrors.Expired("token has expired")
		}

		a, err := tx.GetAuthority(ctx, t.AuthorityID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("authority not found")
		}
		if err != nil {
			return err
		}
		if !a.IsActive {
			return apperrors.Unauthorized("authority account is inactive")
		}

		if err := tx.MarkTokenUsed(ctx, t.ID, now); err != nil {
			return err
		}
		authority = a
		return nil
	})

	result := "redeemed"
	if err != nil {
		err = translateRepoError(err, "invalid verification token")
		result = string(apperrors.CodeOf(err))
		span.RecordError(err)
	}
	s.metrics.IncTokenRedemption(result)
	if err != nil {
		s.logger.WarnContext(ctx, "verification token rejected",
			"hazard_id", hazardID,
			"result", result,
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "verification token redeemed",
		"hazard_id", hazardID,
		"authority_id", authority.ID,
	)
	return authority, nil
}
