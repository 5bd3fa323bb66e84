package models

import "time"

// VerificationToken is a single-use, time-limited credential emailed to an
// authority for one hazard. Once used or expired it is never valid again.
type VerificationToken struct {
	ID          string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Token       string     `gorm:"column:token;size:64;not null;uniqueIndex" json:"-"`
	HazardID    string     `gorm:"column:hazard_id;type:varchar(36);not null;index" json:"hazard_id"`
	AuthorityID string     `gorm:"column:authority_id;type:varchar(36);not null;index" json:"authority_id"`
	ExpiresAt   time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	Used        bool       `gorm:"column:used;not null" json:"used"`
	UsedAt      *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
}

func (VerificationToken) TableName() string { return "verification_tokens" }

func (t VerificationToken) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// LiveAt reports whether the token can still be redeemed at now.
func (t VerificationToken) LiveAt(now time.Time) bool {
	return !t.Used && !t.ExpiredAt(now)
}
