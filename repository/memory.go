package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"saferoute-api/models"
)

// MemoryRepository keeps all state in process. Transactions run under one
// lock against a copy of the state that replaces the original only when the
// transaction function succeeds.
type MemoryRepository struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{state: newMemState()}
}

func (m *MemoryRepository) RunInTx(ctx context.Context, fn func(tx Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft := m.state.clone()
	if err := fn(draft); err != nil {
		return err
	}
	m.state = draft
	return nil
}

func (m *MemoryRepository) CreateHazard(ctx context.Context, h *models.Hazard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateHazard(ctx, h)
}

func (m *MemoryRepository) GetHazard(ctx context.Context, id string) (*models.Hazard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetHazard(ctx, id)
}

func (m *MemoryRepository) LockHazard(ctx context.Context, id string) (*models.Hazard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LockHazard(ctx, id)
}

func (m *MemoryRepository) ListHazards(ctx context.Context, q HazardQuery) ([]models.Hazard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListHazards(ctx, q)
}

func (m *MemoryRepository) CountHazardsByStatus(ctx context.Context) (map[models.HazardStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CountHazardsByStatus(ctx)
}

func (m *MemoryRepository) UpdateHazardStatus(ctx context.Context, id string, change StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdateHazardStatus(ctx, id, change)
}

func (m *MemoryRepository) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AppendAuditLog(ctx, entry)
}

func (m *MemoryRepository) ListAuditLogs(ctx context.Context, hazardID string) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListAuditLogs(ctx, hazardID)
}

func (m *MemoryRepository) CreateAuthority(ctx context.Context, a *models.Authority) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateAuthority(ctx, a)
}

func (m *MemoryRepository) GetAuthority(ctx context.Context, id string) (*models.Authority, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetAuthority(ctx, id)
}

func (m *MemoryRepository) GetAuthorityByEmail(ctx context.Context, email string) (*models.Authority, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.GetAuthorityByEmail(ctx, email)
}

func (m *MemoryRepository) ListAuthorities(ctx context.Context) ([]models.Authority, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ListAuthorities(ctx)
}

func (m *MemoryRepository) SetAuthorityActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SetAuthorityActive(ctx, id, active)
}

func (m *MemoryRepository) FindDispatchAuthority(ctx context.Context) (*models.Authority, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FindDispatchAuthority(ctx)
}

func (m *MemoryRepository) CreateToken(ctx context.Context, t *models.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.CreateToken(ctx, t)
}

func (m *MemoryRepository) FindLiveToken(ctx context.Context, hazardID string, now time.Time) (*models.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FindLiveToken(ctx, hazardID, now)
}

func (m *MemoryRepository) FindToken(ctx context.Context, hazardID, token string) (*models.VerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FindToken(ctx, hazardID, token)
}

func (m *MemoryRepository) MarkTokenUsed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.MarkTokenUsed(ctx, id, at)
}

// memState is the unlocked state. It also serves as the transaction-bound
// repository handed to RunInTx callbacks.
type memState struct {
	hazards     map[string]models.Hazard
	auditLogs   []models.AuditLog
	authorities map[string]models.Authority
	tokens      map[string]models.VerificationToken
	auditSeq    int64
}

func newMemState() *memState {
	return &memState{
		hazards:     make(map[string]models.Hazard),
		authorities: make(map[string]models.Authority),
		tokens:      make(map[string]models.VerificationToken),
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		hazards:     make(map[string]models.Hazard, len(s.hazards)),
		auditLogs:   append([]models.AuditLog(nil), s.auditLogs...),
		authorities: make(map[string]models.Authority, len(s.authorities)),
		tokens:      make(map[string]models.VerificationToken, len(s.tokens)),
		auditSeq:    s.auditSeq,
	}
	for k, v := range s.hazards {
		c.hazards[k] = v
	}
	for k, v := range s.authorities {
		c.authorities[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	return c
}

// RunInTx on an already transaction-bound state joins the outer transaction.
func (s *memState) RunInTx(_ context.Context, fn func(tx Repository) error) error {
	return fn(s)
}

func (s *memState) CreateHazard(_ context.Context, h *models.Hazard) error {
	if _, exists := s.hazards[h.ID]; exists {
		return fmt.Errorf("%w: hazards_pkey", ErrDuplicate)
	}
	s.hazards[h.ID] = *h
	return nil
}

func (s *memState) GetHazard(_ context.Context, id string) (*models.Hazard, error) {
	h, ok := s.hazards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (s *memState) LockHazard(ctx context.Context, id string) (*models.Hazard, error) {
	return s.GetHazard(ctx, id)
}

func (s *memState) ListHazards(_ context.Context, q HazardQuery) ([]models.Hazard, error) {
	rows := make([]models.Hazard, 0, len(s.hazards))
	for _, h := range s.hazards {
		if q.Status != nil && h.Status != *q.Status {
			continue
		}
		if q.Before != nil && !h.CreatedAt.Before(*q.Before) {
			continue
		}
		if q.After != nil && !h.CreatedAt.After(*q.After) {
			continue
		}
		rows = append(rows, h)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.Ascending {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if q.Ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (s *memState) CountHazardsByStatus(_ context.Context) (map[models.HazardStatus]int64, error) {
	counts := make(map[models.HazardStatus]int64)
	for _, h := range s.hazards {
		counts[h.Status]++
	}
	return counts, nil
}

func (s *memState) UpdateHazardStatus(_ context.Context, id string, change StatusChange) error {
	h, ok := s.hazards[id]
	if !ok || h.Status != change.From {
		return ErrStaleStatus
	}
	h.Status = change.To
	h.UpdatedAt = change.At
	if change.VerifiedAt != nil {
		h.VerifiedAt = change.VerifiedAt
	}
	if change.ResolvedAt != nil {
		h.ResolvedAt = change.ResolvedAt
	}
	s.hazards[id] = h
	return nil
}

func (s *memState) AppendAuditLog(_ context.Context, entry *models.AuditLog) error {
	for _, existing := range s.auditLogs {
		if existing.ID == entry.ID {
			return fmt.Errorf("%w: audit_logs_pkey", ErrDuplicate)
		}
	}
	s.auditSeq++
	entry.Seq = s.auditSeq
	s.auditLogs = append(s.auditLogs, *entry)
	return nil
}

func (s *memState) ListAuditLogs(_ context.Context, hazardID string) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	for _, entry := range s.auditLogs {
		if entry.HazardID == hazardID {
			rows = append(rows, entry)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].Seq < rows[j].Seq
	})
	return rows, nil
}

func (s *memState) CreateAuthority(_ context.Context, a *models.Authority) error {
	for _, existing := range s.authorities {
		switch {
		case existing.ID == a.ID:
			return fmt.Errorf("%w: authorities_pkey", ErrDuplicate)
		case existing.Email == a.Email:
			return fmt.Errorf("%w: idx_authorities_email", ErrDuplicate)
		case existing.Name == a.Name:
			return fmt.Errorf("%w: idx_authorities_name", ErrDuplicate)
		}
	}
	s.authorities[a.ID] = *a
	return nil
}

func (s *memState) GetAuthority(_ context.Context, id string) (*models.Authority, error) {
	a, ok := s.authorities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *memState) GetAuthorityByEmail(_ context.Context, email string) (*models.Authority, error) {
	for _, a := range s.authorities {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memState) ListAuthorities(_ context.Context) ([]models.Authority, error) {
	rows := make([]models.Authority, 0, len(s.authorities))
	for _, a := range s.authorities {
		rows = append(rows, a)
	}
	sortAuthorities(rows)
	return rows, nil
}

func (s *memState) SetAuthorityActive(_ context.Context, id string, active bool) error {
	a, ok := s.authorities[id]
	if !ok {
		return ErrNotFound
	}
	a.IsActive = active
	a.UpdatedAt = time.Now().UTC()
	s.authorities[id] = a
	return nil
}

func (s *memState) FindDispatchAuthority(ctx context.Context) (*models.Authority, error) {
	all, _ := s.ListAuthorities(ctx)
	for _, level := range []models.JurisdictionLevel{models.LevelLocal, models.LevelState} {
		for _, a := range all {
			if a.IsActive && a.Level == level {
				return &a, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (s *memState) CreateToken(_ context.Context, t *models.VerificationToken) error {
	for _, existing := range s.tokens {
		if existing.ID == t.ID || existing.Token == t.Token {
			return fmt.Errorf("%w: idx_verification_tokens_token", ErrDuplicate)
		}
	}
	s.tokens[t.ID] = *t
	return nil
}

func (s *memState) FindLiveToken(_ context.Context, hazardID string, now time.Time) (*models.VerificationToken, error) {
	var found *models.VerificationToken
	for _, t := range s.tokens {
		if t.HazardID != hazardID || !t.LiveAt(now) {
			continue
		}
		if found == nil || t.CreatedAt.After(found.CreatedAt) {
			t := t
			found = &t
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (s *memState) FindToken(_ context.Context, hazardID, token string) (*models.VerificationToken, error) {
	for _, t := range s.tokens {
		if t.HazardID == hazardID && t.Token == token {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memState) MarkTokenUsed(_ context.Context, id string, at time.Time) error {
	t, ok := s.tokens[id]
	if !ok || t.Used {
		return ErrTokenUsed
	}
	t.Used = true
	t.UsedAt = &at
	s.tokens[id] = t
	return nil
}

func sortAuthorities(rows []models.Authority) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Repository = (*memState)(nil)
)
