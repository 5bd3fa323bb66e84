package services

import (
	"errors"
	"time"

	"saferoute-api/apperrors"
	"saferoute-api/config"
	"saferoute-api/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	jwtSecret []byte
	expiry    time.Duration
	now       func() time.Time
}

func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{
		jwtSecret: []byte(cfg.Secret),
		expiry:    time.Duration(cfg.ExpiryHours) * time.Hour,
		now:       time.Now,
	}
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *AuthService) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

type Claims struct {
	AuthorityID  string                   `json:"authority_id"`
	Email        string                   `json:"email"`
	Jurisdiction models.JurisdictionLevel `json:"jurisdiction"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs an HS256 session token for the authority.
func (s *AuthService) IssueSessionToken(a models.Authority) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)
	claims := Claims{
		AuthorityID:  a.ID,
		Email:        a.Email,
		Jurisdiction: a.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, apperrors.CodeInternal, "sign session token")
	}
	return signed, expiresAt, nil
}

// ValidateSessionToken returns the claims of a valid token. Any failure is
// reported as unauthorized.
func (s *AuthService) ValidateSessionToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.jwtSecret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(err, apperrors.CodeUnauthorized, "session token expired")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeUnauthorized, "invalid session token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AuthorityID == "" {
		return nil, apperrors.Unauthorized("invalid session token")
	}
	return claims, nil
}
