package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"saferoute-api/apperrors"
	"saferoute-api/models"
	"saferoute-api/repository"

	"github.com/google/uuid"
)

const minPasswordLength = 8

// Session is an established authority login.
type Session struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   int64            `json:"expires_at"`
	Authority   models.Authority `json:"authority"`
}

type NewAuthority struct {
	Name         string
	Email        string
	Password     string
	Phone        string
	Level        models.JurisdictionLevel
	Jurisdiction string
}

// AuthorityService manages authority accounts and turns credentials or
// redeemed verification tokens into sessions.
type AuthorityService struct {
	deps
	repo   repository.Repository
	auth   *AuthService
	tokens *VerificationService
}

func NewAuthorityService(repo repository.Repository, auth *AuthService, tokens *VerificationService, opts ...Option) *AuthorityService {
	return &AuthorityService{deps: newDeps(opts), repo: repo, auth: auth, tokens: tokens}
}

func (s *AuthorityService) Login(ctx context.Context, email, password string) (*Session, error) {
	a, err := s.repo.GetAuthorityByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, translateRepoError(err, "authority not found")
	}
	if !s.auth.VerifyPassword(password, a.PasswordHash) {
		s.logger.WarnContext(ctx, "authority login failed", "authority_id", a.ID)
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if !a.IsActive {
		return nil, apperrors.Unauthorized("authority account is inactive")
	}
	return s.newSession(ctx, *a)
}

// RedeemVerificationToken consumes an emailed token and opens a session for
// the authority it was issued to.
func (s *AuthorityService) RedeemVerificationToken(ctx context.Context, hazardID, token string) (*Session, error) {
	a, err := s.tokens.Redeem(ctx, hazardID, token)
	if err != nil {
		return nil, err
	}
	return s.newSession(ctx, *a)
}

func (s *AuthorityService) newSession(ctx context.Context, a models.Authority) (*Session, error) {
	signed, expiresAt, err := s.auth.IssueSessionToken(a)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "authority session issued", "authority_id", a.ID)
	return &Session{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Unix(),
		Authority:   a,
	}, nil
}

// Authenticate validates a bearer token and confirms the authority still
// exists and is active.
func (s *AuthorityService) Authenticate(ctx context.Context, bearer string) (Actor, error) {
	claims, err := s.auth.ValidateSessionToken(bearer)
	if err != nil {
		return Actor{}, err
	}
	a, err := s.repo.GetAuthority(ctx, claims.AuthorityID)
	if errors.Is(err, repository.ErrNotFound) {
		return Actor{}, apperrors.Unauthorized("authority not found")
	}
	if err != nil {
		return Actor{}, translateRepoError(err, "authority not found")
	}
	if !a.IsActive {
		return Actor{}, apperrors.Unauthorized("authority account is inactive")
	}
	return Actor{
		AuthorityID: claims.AuthorityID,
		Email:       claims.Email,
		Level:       claims.Jurisdiction,
	}, nil
}

func (s *AuthorityService) CreateAuthority(ctx context.Context, in NewAuthority) (*models.Authority, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Jurisdiction = strings.TrimSpace(in.Jurisdiction)

	switch {
	case in.Name == "":
		return nil, apperrors.Validation("name is required")
	case in.Jurisdiction == "":
		return nil, apperrors.Validation("jurisdiction is required")
	case !in.Level.Valid():
		return nil, apperrors.Validation("level must be LOCAL, STATE or NATIONAL")
	case len(in.Password) < minPasswordLength:
		return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperrors.Validation("email is not a valid address")
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "hash password")
	}

	now := s.now()
	a := &models.Authority{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Level:        in.Level,
		Jurisdiction: in.Jurisdiction,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateAuthority(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Wrap(err, apperrors.CodeConflict, "an authority with this name or email already exists")
		}
		return nil, translateRepoError(err, "authority not found")
	}
	s.logger.InfoContext(ctx, "authority created", "authority_id", a.ID, "level", a.Level.String())
	return a, nil
}

func (s *AuthorityService) ListAuthorities(ctx context.Context) ([]models.Authority, error) {
	rows, err := s.repo.ListAuthorities(ctx)
	if err != nil {
		return nil, translateRepoError(err, "authority not found")
	}
	return rows, nil
}

func (s *AuthorityService) DeactivateAuthority(ctx context.Context, email string) error {
	a, err := s.repo.GetAuthorityByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return translateRepoError(err, "authority not found")
	}
	if err := s.repo.SetAuthorityActive(ctx, a.ID, false); err != nil {
		return translateRepoError(err, "authority not found")
	}
	s.logger.InfoContext(ctx, "authority deactivated", "authority_id", a.ID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
