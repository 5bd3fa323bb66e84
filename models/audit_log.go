package models

import "time"

// AuditLog is one immutable ledger entry per hazard status transition.
// A nil AuthorityID marks a system-initiated entry.
type AuditLog struct {
	ID          string        `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	HazardID    string        `gorm:"column:hazard_id;type:varchar(36);not null;index:idx_audit_logs_hazard_ts,priority:1" json:"hazard_id"`
	AuthorityID *string       `gorm:"column:authority_id;type:varchar(36);index" json:"authority_id"`
	Action      AuditAction   `gorm:"column:action;type:varchar(16);not null" json:"action"`
	OldStatus   *HazardStatus `gorm:"column:old_status;type:varchar(32)" json:"old_status"`
	NewStatus   HazardStatus  `gorm:"column:new_status;type:varchar(32);not null" json:"new_status"`
	Notes       string        `gorm:"column:notes;type:text" json:"notes,omitempty"`
	Timestamp   time.Time     `gorm:"column:timestamp;not null;index:idx_audit_logs_hazard_ts,priority:2" json:"timestamp"`
	// Seq is assigned by the store on append and orders entries that share
	// a timestamp.
	Seq int64 `gorm:"column:seq;autoIncrement;not null;uniqueIndex" json:"-"`
}

func (AuditLog) TableName() string { return "audit_logs" }
