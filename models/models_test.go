package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHazardStatusScanRejectsUnknownValues(t *testing.T) {
	var s HazardStatus

	require.NoError(t, s.Scan("VERIFIED"))
	assert.Equal(t, StatusVerified, s)

	require.NoError(t, s.Scan([]byte("PENDING_AUTHORITY")))
	assert.Equal(t, StatusPendingAuthority, s)

	assert.Error(t, s.Scan("REPORTED"), "REPORTED is not a reachable status")
	assert.Error(t, s.Scan("verified"), "storage strings are case sensitive")
	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan(nil))
}

func TestHazardStatusZeroValueIsInvalid(t *testing.T) {
	var s HazardStatus
	assert.False(t, s.Valid())

	_, err := s.Value()
	assert.Error(t, err, "the zero value must never be persisted")

	_, err = json.Marshal(s)
	assert.Error(t, err)
}

func TestEnumsEncodeAsStorageStrings(t *testing.T) {
	v, err := StatusResolved.Value()
	require.NoError(t, err)
	assert.Equal(t, "RESOLVED", v)

	raw, err := json.Marshal(struct {
		Type   HazardType        `json:"type"`
		Action AuditAction       `json:"action"`
		Level  JurisdictionLevel `json:"level"`
	}{HazardPothole, ActionReject, LevelState})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"POTHOLE","action":"REJECT","level":"STATE"}`, string(raw))
}

func TestParseHazardType(t *testing.T) {
	for _, name := range []string{"ACCIDENT", "POTHOLE", "ROADBLOCK", "DEBRIS"} {
		ht, err := ParseHazardType(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, ht.String())
	}

	_, err := ParseHazardType("FLOOD")
	assert.Error(t, err)
	assert.Equal(t, []string{"ACCIDENT", "DEBRIS", "POTHOLE", "ROADBLOCK"}, HazardTypeNames())
}

func TestJurisdictionLevelCanVerify(t *testing.T) {
	assert.True(t, LevelLocal.CanVerify())
	assert.True(t, LevelState.CanVerify())
	assert.False(t, LevelNational.CanVerify())
	assert.False(t, JurisdictionLevel(0).CanVerify())
}

func TestAuthorityCanVerifyRequiresActive(t *testing.T) {
	a := Authority{Level: LevelLocal, IsActive: true}
	assert.True(t, a.CanVerify())

	a.IsActive = false
	assert.False(t, a.CanVerify())

	a = Authority{Level: LevelNational, IsActive: true}
	assert.False(t, a.CanVerify())
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current HazardStatus
		action  AuditAction
		want    HazardStatus
		ok      bool
	}{
		{"verify pending", StatusPendingAuthority, ActionVerify, StatusVerified, true},
		{"reject pending", StatusPendingAuthority, ActionReject, StatusResolved, true},
		{"resolve verified", StatusVerified, ActionResolve, StatusResolved, true},
		{"resolve pending", StatusPendingAuthority, ActionResolve, 0, false},
		{"verify verified", StatusVerified, ActionVerify, 0, false},
		{"reject verified", StatusVerified, ActionReject, 0, false},
		{"verify resolved", StatusResolved, ActionVerify, 0, false},
		{"reject resolved", StatusResolved, ActionReject, 0, false},
		{"resolve resolved", StatusResolved, ActionResolve, 0, false},
		{"report is not a transition", StatusPendingAuthority, ActionReport, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextStatus(tt.current, tt.action)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOnlyResolvedIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(StatusPendingAuthority))
	assert.False(t, IsTerminal(StatusVerified))
	assert.True(t, IsTerminal(StatusResolved))
}

func TestRequiredStatus(t *testing.T) {
	s, ok := RequiredStatus(ActionResolve)
	require.True(t, ok)
	assert.Equal(t, StatusVerified, s)

	_, ok = RequiredStatus(ActionReport)
	assert.False(t, ok)
}

func TestVerificationTokenLiveness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok := VerificationToken{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, tok.LiveAt(now))
	assert.False(t, tok.LiveAt(now.Add(2*time.Hour)), "expired")

	tok.Used = true
	assert.False(t, tok.LiveAt(now), "used")
}

func TestHazardVisibleToDrivers(t *testing.T) {
	assert.True(t, Hazard{Status: StatusVerified}.VisibleToDrivers())
	assert.False(t, Hazard{Status: StatusPendingAuthority}.VisibleToDrivers())
	assert.False(t, Hazard{Status: StatusResolved}.VisibleToDrivers())
}
