// Package repository persists hazards, the audit ledger, authorities and
// verification tokens behind one transactional interface.
package repository

import (
	"context"
	"errors"
	"time"

	"saferoute-api/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleStatus is returned by a conditional status update whose
	// expected prior status no longer matches the stored row.
	ErrStaleStatus = errors.New("hazard status changed concurrently")
	ErrDuplicate   = errors.New("duplicate record")
	ErrTokenUsed   = errors.New("verification token already used")
)

// HazardQuery filters hazard listings. Results are ordered by creation time,
// newest first unless Ascending is set.
type HazardQuery struct {
	Status    *models.HazardStatus
	Limit     int
	Before    *time.Time
	After     *time.Time
	Ascending bool
}

// StatusChange is a compare-and-set on a hazard's status.
type StatusChange struct {
	From       models.HazardStatus
	To         models.HazardStatus
	At         time.Time
	VerifiedAt *time.Time
	ResolvedAt *time.Time
}

type Repository interface {
	// RunInTx runs fn against a repository bound to a single transaction.
	// Nothing fn wrote is visible to others unless fn returns nil.
	RunInTx(ctx context.Context, fn func(tx Repository) error) error

	CreateHazard(ctx context.Context, h *models.Hazard) error
	GetHazard(ctx context.Context, id string) (*models.Hazard, error)
	// LockHazard reads a hazard and holds it exclusively until the
	// surrounding transaction ends.
	LockHazard(ctx context.Context, id string) (*models.Hazard, error)
	ListHazards(ctx context.Context, q HazardQuery) ([]models.Hazard, error)
	CountHazardsByStatus(ctx context.Context) (map[models.HazardStatus]int64, error)
	UpdateHazardStatus(ctx context.Context, id string, change StatusChange) error

	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
	// ListAuditLogs returns a hazard's ledger ordered by timestamp, then by
	// append order.
	ListAuditLogs(ctx context.Context, hazardID string) ([]models.AuditLog, error)

	CreateAuthority(ctx context.Context, a *models.Authority) error
	GetAuthority(ctx context.Context, id string) (*models.Authority, error)
	GetAuthorityByEmail(ctx context.Context, email string) (*models.Authority, error)
	ListAuthorities(ctx context.Context) ([]models.Authority, error)
	SetAuthorityActive(ctx context.Context, id string, active bool) error
	// FindDispatchAuthority returns the longest-registered active LOCAL
	// authority, falling back to STATE.
	FindDispatchAuthority(ctx context.Context) (*models.Authority, error)

	CreateToken(ctx context.Context, t *models.VerificationToken) error
	FindLiveToken(ctx context.Context, hazardID string, now time.Time) (*models.VerificationToken, error)
	FindToken(ctx context.Context, hazardID, token string) (*models.VerificationToken, error)
	MarkTokenUsed(ctx context.Context, id string, at time.Time) error
}
