package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"saferoute-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryContract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	h := newHazard(time.Now().UTC(), models.StatusPendingAuthority)
	require.NoError(t, repo.CreateHazard(ctx, h))

	h.Status = models.StatusResolved
	got, err := repo.GetHazard(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAuthority, got.Status)

	got.Status = models.StatusVerified
	again, err := repo.GetHazard(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingAuthority, again.Status)
}

func TestMemoryRepositoryNestedTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	h := newHazard(time.Now().UTC(), models.StatusPendingAuthority)

	rollback := errors.New("rollback")
	err := repo.RunInTx(ctx, func(tx Repository) error {
		if err := tx.RunInTx(ctx, func(inner Repository) error {
			return inner.CreateHazard(ctx, h)
		}); err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	_, err = repo.GetHazard(ctx, h.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryConcurrentTransitionsSerialize(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	h := newHazard(time.Now().UTC(), models.StatusPendingAuthority)
	require.NoError(t, repo.CreateHazard(ctx, h))

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.RunInTx(ctx, func(tx Repository) error {
				locked, err := tx.LockHazard(ctx, h.ID)
				if err != nil {
					return err
				}
				if locked.Status != models.StatusPendingAuthority {
					return ErrStaleStatus
				}
				at := time.Now().UTC()
				if err := tx.UpdateHazardStatus(ctx, h.ID, StatusChange{
					From: locked.Status,
					To:   models.StatusVerified,
					At:   at,
				}); err != nil {
					return err
				}
				return tx.AppendAuditLog(ctx, newAuditLog(h.ID, at))
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	logs, err := repo.ListAuditLogs(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
