package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"saferoute-api/models"
	"saferoute-api/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errAuditDown = errors.New("audit table unavailable")

// failingAuditRepo refuses every audit append, inside or outside a transaction.
type failingAuditRepo struct {
	repository.Repository
}

func (r failingAuditRepo) RunInTx(ctx context.Context, fn func(tx repository.Repository) error) error {
	return r.Repository.RunInTx(ctx, func(tx repository.Repository) error {
		return fn(failingAuditRepo{tx})
	})
}

func (failingAuditRepo) AppendAuditLog(context.Context, *models.AuditLog) error {
	return errAuditDown
}

// syncExecutor runs tasks inline so notifier tests can assert on outcomes.
type syncExecutor struct {
	submitted []string
}

func (e *syncExecutor) Submit(name string, task Task) bool {
	e.submitted = append(e.submitted, name)
	task(context.Background())
	return true
}

func localActor() Actor {
	return Actor{AuthorityID: "auth-local", Email: "roads@manchester.gov", Level: models.LevelLocal}
}
