package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"saferoute-api/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const pgUniqueViolation = "23505"

// GormRepository stores everything in Postgres through gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) CreateHazard(ctx context.Context, h *models.Hazard) error {
	return translateError(r.db.WithContext(ctx).Create(h).Error)
}

func (r *GormRepository) GetHazard(ctx context.Context, id string) (*models.Hazard, error) {
	var h models.Hazard
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&h).Error; err != nil {
		return nil, translateError(err)
	}
	return &h, nil
}

func (r *GormRepository) LockHazard(ctx context.Context, id string) (*models.Hazard, error) {
	var h models.Hazard
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&h).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &h, nil
}

func (r *GormRepository) ListHazards(ctx context.Context, q HazardQuery) ([]models.Hazard, error) {
	query := r.db.WithContext(ctx).Model(&models.Hazard{})
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.Before != nil {
		query = query.Where("created_at < ?", *q.Before)
	}
	if q.After != nil {
		query = query.Where("created_at > ?", *q.After)
	}
	if q.Ascending {
		query = query.Order("created_at ASC").Order("id ASC")
	} else {
		query = query.Order("created_at DESC").Order("id DESC")
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []models.Hazard
	if err := query.Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *GormRepository) CountHazardsByStatus(ctx context.Context) (map[models.HazardStatus]int64, error) {
	var rows []struct {
		Status models.HazardStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Hazard{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	counts := make(map[models.HazardStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormRepository) UpdateHazardStatus(ctx context.Context, id string, change StatusChange) error {
	updates := map[string]any{
		"status":     change.To,
		"updated_at": change.At,
	}
	if change.VerifiedAt != nil {
		updates["verified_at"] = *change.VerifiedAt
	}
	if change.ResolvedAt != nil {
		updates["resolved_at"] = *change.ResolvedAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.Hazard{}).
		Where("id = ? AND status = ?", id, change.From).
		Updates(updates)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *GormRepository) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *GormRepository) ListAuditLogs(ctx context.Context, hazardID string) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("hazard_id = ?", hazardID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *GormRepository) CreateAuthority(ctx context.Context, a *models.Authority) error {
	return translateError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *GormRepository) GetAuthority(ctx context.Context, id string) (*models.Authority, error) {
	var a models.Authority
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *GormRepository) GetAuthorityByEmail(ctx context.Context, email string) (*models.Authority, error) {
	var a models.Authority
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *GormRepository) ListAuthorities(ctx context.Context) ([]models.Authority, error) {
	var rows []models.Authority
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *GormRepository) SetAuthorityActive(ctx context.Context, id string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Authority{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) FindDispatchAuthority(ctx context.Context) (*models.Authority, error) {
	for _, level := range []models.JurisdictionLevel{models.LevelLocal, models.LevelState} {
		var a models.Authority
		err := r.db.WithContext(ctx).
			Where("is_active = ? AND level = ?", true, level).
			Order("created_at ASC").
			First(&a).Error
		if err == nil {
			return &a, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, translateError(err)
		}
	}
	return nil, ErrNotFound
}

func (r *GormRepository) CreateToken(ctx context.Context, t *models.VerificationToken) error {
	return translateError(r.db.WithContext(ctx).Create(t).Error)
}

func (r *GormRepository) FindLiveToken(ctx context.Context, hazardID string, now time.Time) (*models.VerificationToken, error) {
	var t models.VerificationToken
	err := r.db.WithContext(ctx).
		Where("hazard_id = ? AND used = ? AND expires_at >= ?", hazardID, false, now).
		Order("created_at DESC").
		First(&t).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (r *GormRepository) FindToken(ctx context.Context, hazardID, token string) (*models.VerificationToken, error) {
	var t models.VerificationToken
	err := r.db.WithContext(ctx).
		Where("hazard_id = ? AND token = ?", hazardID, token).
		First(&t).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}

func (r *GormRepository) MarkTokenUsed(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.VerificationToken{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]any{"used": true, "used_at": at})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTokenUsed
	}
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

var _ Repository = (*GormRepository)(nil)
