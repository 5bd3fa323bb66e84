package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"saferoute-api/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises behaviour every Repository implementation
// must share. newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	t.Run("hazard create and get", func(t *testing.T) {
		repo := newRepo(t)
		h := newHazard(base, models.StatusPendingAuthority)
		require.NoError(t, repo.CreateHazard(ctx, h))

		got, err := repo.GetHazard(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h.ID, got.ID)
		assert.Equal(t, models.HazardPothole, got.HazardType)
		assert.Equal(t, models.StatusPendingAuthority, got.Status)
		assert.True(t, got.CreatedAt.Equal(base))

		_, err = repo.GetHazard(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, repo.CreateHazard(ctx, h), ErrDuplicate)
	})

	t.Run("list hazards filters and orders", func(t *testing.T) {
		repo := newRepo(t)
		oldest := newHazard(base, models.StatusVerified)
		middle := newHazard(base.Add(time.Minute), models.StatusPendingAuthority)
		newest := newHazard(base.Add(2*time.Minute), models.StatusVerified)
		for _, h := range []*models.Hazard{middle, newest, oldest} {
			require.NoError(t, repo.CreateHazard(ctx, h))
		}

		all, err := repo.ListHazards(ctx, HazardQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, hazardIDs(all))

		verified := models.StatusVerified
		visible, err := repo.ListHazards(ctx, HazardQuery{Status: &verified})
		require.NoError(t, err)
		assert.Equal(t, []string{newest.ID, oldest.ID}, hazardIDs(visible))

		asc, err := repo.ListHazards(ctx, HazardQuery{Ascending: true, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{oldest.ID, middle.ID}, hazardIDs(asc))

		before := newest.CreatedAt
		page, err := repo.ListHazards(ctx, HazardQuery{Before: &before, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{middle.ID}, hazardIDs(page))

		after := oldest.CreatedAt
		page, err = repo.ListHazards(ctx, HazardQuery{After: &after, Ascending: true})
		require.NoError(t, err)
		assert.Equal(t, []string{middle.ID, newest.ID}, hazardIDs(page))

		counts, err := repo.CountHazardsByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[models.StatusVerified])
		assert.Equal(t, int64(1), counts[models.StatusPendingAuthority])
		assert.Zero(t, counts[models.StatusResolved])
	})

	t.Run("status update is conditional on prior status", func(t *testing.T) {
		repo := newRepo(t)
		h := newHazard(base, models.StatusPendingAuthority)
		require.NoError(t, repo.CreateHazard(ctx, h))

		at := base.Add(time.Hour)
		change := StatusChange{
			From:       models.StatusPendingAuthority,
			To:         models.StatusVerified,
			At:         at,
			VerifiedAt: &at,
		}
		require.NoError(t, repo.UpdateHazardStatus(ctx, h.ID, change))
		assert.ErrorIs(t, repo.UpdateHazardStatus(ctx, h.ID, change), ErrStaleStatus)

		got, err := repo.GetHazard(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusVerified, got.Status)
		require.NotNil(t, got.VerifiedAt)
		assert.True(t, got.VerifiedAt.Equal(at))
		assert.Nil(t, got.ResolvedAt)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		repo := newRepo(t)
		h := newHazard(base, models.StatusPendingAuthority)
		require.NoError(t, repo.CreateHazard(ctx, h))

		boom := errors.New("audit sink unavailable")
		err := repo.RunInTx(ctx, func(tx Repository) error {
			at := base.Add(time.Minute)
			if err := tx.UpdateHazardStatus(ctx, h.ID, StatusChange{
				From: models.StatusPendingAuthority,
				To:   models.StatusVerified,
				At:   at,
			}); err != nil {
				return err
			}
			if err := tx.AppendAuditLog(ctx, newAuditLog(h.ID, at)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.GetHazard(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingAuthority, got.Status)

		logs, err := repo.ListAuditLogs(ctx, h.ID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("committed transaction applies both writes", func(t *testing.T) {
		repo := newRepo(t)
		h := newHazard(base, models.StatusPendingAuthority)
		require.NoError(t, repo.CreateHazard(ctx, h))

		err := repo.RunInTx(ctx, func(tx Repository) error {
			locked, err := tx.LockHazard(ctx, h.ID)
			if err != nil {
				return err
			}
			at := base.Add(time.Minute)
			if err := tx.UpdateHazardStatus(ctx, locked.ID, StatusChange{
				From:       locked.Status,
				To:         models.StatusResolved,
				At:         at,
				ResolvedAt: &at,
			}); err != nil {
				return err
			}
			return tx.AppendAuditLog(ctx, newAuditLog(h.ID, at))
		})
		require.NoError(t, err)

		got, err := repo.GetHazard(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusResolved, got.Status)

		logs, err := repo.ListAuditLogs(ctx, h.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})

	t.Run("audit logs are ordered by timestamp", func(t *testing.T) {
		repo := newRepo(t)
		h := newHazard(base, models.StatusPendingAuthority)
		require.NoError(t, repo.CreateHazard(ctx, h))

		late := newAuditLog(h.ID, base.Add(2*time.Hour))
		early := newAuditLog(h.ID, base.Add(time.Hour))
		require.NoError(t, repo.AppendAuditLog(ctx, late))
		require.NoError(t, repo.AppendAuditLog(ctx, early))
		require.NoError(t, repo.AppendAuditLog(ctx, newAuditLog(uuid.NewString(), base)))

		logs, err := repo.ListAuditLogs(ctx, h.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, early.ID, logs[0].ID)
		assert.Equal(t, late.ID, logs[1].ID)
		require.NotNil(t, logs[0].OldStatus)
		assert.Equal(t, models.StatusPendingAuthority, *logs[0].OldStatus)
		assert.Equal(t, models.ActionVerify, logs[0].Action)
	})

	t.Run("audit logs sharing a timestamp keep append order", func(t *testing.T) {
		repo := newRepo(t)
		h := newHazard(base, models.StatusPendingAuthority)
		require.NoError(t, repo.CreateHazard(ctx, h))

		var appended []string
		for i := 0; i < 8; i++ {
			entry := newAuditLog(h.ID, base.Add(time.Hour))
			entry.Notes = fmt.Sprintf("entry %d", i)
			require.NoError(t, repo.RunInTx(ctx, func(tx Repository) error {
				return tx.AppendAuditLog(ctx, entry)
			}))
			appended = append(appended, entry.ID)
		}

		logs, err := repo.ListAuditLogs(ctx, h.ID)
		require.NoError(t, err)
		var listed []string
		for _, entry := range logs {
			listed = append(listed, entry.ID)
		}
		assert.Equal(t, appended, listed)
	})

	t.Run("authorities", func(t *testing.T) {
		repo := newRepo(t)
		national := newAuthority("federal", models.LevelNational, base, true)
		inactiveLocal := newAuthority("old-town", models.LevelLocal, base.Add(time.Minute), false)
		state := newAuthority("state-dot", models.LevelState, base.Add(2*time.Minute), true)
		for _, a := range []*models.Authority{national, inactiveLocal, state} {
			require.NoError(t, repo.CreateAuthority(ctx, a))
		}

		dup := newAuthority("federal", models.LevelLocal, base, true)
		assert.ErrorIs(t, repo.CreateAuthority(ctx, dup), ErrDuplicate)

		got, err := repo.GetAuthorityByEmail(ctx, "state-dot@example.gov")
		require.NoError(t, err)
		assert.Equal(t, state.ID, got.ID)
		assert.Equal(t, models.LevelState, got.Level)

		target, err := repo.FindDispatchAuthority(ctx)
		require.NoError(t, err)
		assert.Equal(t, state.ID, target.ID, "inactive LOCAL and NATIONAL are skipped")

		require.NoError(t, repo.SetAuthorityActive(ctx, inactiveLocal.ID, true))
		target, err = repo.FindDispatchAuthority(ctx)
		require.NoError(t, err)
		assert.Equal(t, inactiveLocal.ID, target.ID, "LOCAL is preferred over STATE")

		assert.ErrorIs(t, repo.SetAuthorityActive(ctx, uuid.NewString(), true), ErrNotFound)

		all, err := repo.ListAuthorities(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
		assert.Equal(t, national.ID, all[0].ID)
	})

	t.Run("no dispatch authority", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateAuthority(ctx, newAuthority("federal", models.LevelNational, base, true)))
		_, err := repo.FindDispatchAuthority(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("verification tokens", func(t *testing.T) {
		repo := newRepo(t)
		hazardID := uuid.NewString()
		expired := newToken(hazardID, "expired-token", base.Add(-time.Hour))
		live := newToken(hazardID, "live-token", base.Add(time.Hour))
		require.NoError(t, repo.CreateToken(ctx, expired))
		require.NoError(t, repo.CreateToken(ctx, live))

		found, err := repo.FindLiveToken(ctx, hazardID, base)
		require.NoError(t, err)
		assert.Equal(t, live.ID, found.ID)

		_, err = repo.FindLiveToken(ctx, uuid.NewString(), base)
		assert.ErrorIs(t, err, ErrNotFound)

		byValue, err := repo.FindToken(ctx, hazardID, "expired-token")
		require.NoError(t, err)
		assert.Equal(t, expired.ID, byValue.ID)

		_, err = repo.FindToken(ctx, uuid.NewString(), "live-token")
		assert.ErrorIs(t, err, ErrNotFound, "token must match its hazard")

		require.NoError(t, repo.MarkTokenUsed(ctx, live.ID, base))
		assert.ErrorIs(t, repo.MarkTokenUsed(ctx, live.ID, base), ErrTokenUsed)

		_, err = repo.FindLiveToken(ctx, hazardID, base)
		assert.ErrorIs(t, err, ErrNotFound)

		used, err := repo.FindToken(ctx, hazardID, "live-token")
		require.NoError(t, err)
		assert.True(t, used.Used)
		require.NotNil(t, used.UsedAt)

		assert.ErrorIs(t, repo.CreateToken(ctx, newToken(hazardID, "live-token", base)), ErrDuplicate)
	})
}

func newHazard(createdAt time.Time, status models.HazardStatus) *models.Hazard {
	return &models.Hazard{
		ID:         uuid.NewString(),
		HazardType: models.HazardPothole,
		Latitude:   40.0,
		Longitude:  -74.0,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func newAuditLog(hazardID string, at time.Time) *models.AuditLog {
	old := models.StatusPendingAuthority
	authorityID := uuid.NewString()
	return &models.AuditLog{
		ID:          uuid.NewString(),
		HazardID:    hazardID,
		AuthorityID: &authorityID,
		Action:      models.ActionVerify,
		OldStatus:   &old,
		NewStatus:   models.StatusVerified,
		Notes:       "checked on site",
		Timestamp:   at,
	}
}

func newAuthority(name string, level models.JurisdictionLevel, createdAt time.Time, active bool) *models.Authority {
	return &models.Authority{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        name + "@example.gov",
		Level:        level,
		Jurisdiction: "Manchester, NH",
		IsActive:     active,
		PasswordHash: "hash",
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func newToken(hazardID, value string, expiresAt time.Time) *models.VerificationToken {
	return &models.VerificationToken{
		ID:          uuid.NewString(),
		Token:       value,
		HazardID:    hazardID,
		AuthorityID: uuid.NewString(),
		ExpiresAt:   expiresAt,
		CreatedAt:   expiresAt.Add(-48 * time.Hour),
	}
}

func hazardIDs(rows []models.Hazard) []string {
	ids := make([]string, len(rows))
	for i, h := range rows {
		ids[i] = h.ID
	}
	return ids
}
