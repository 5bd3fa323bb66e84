package models

import "time"

type Authority struct {
	ID    string            `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Name  string            `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Email string            `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Phone string            `gorm:"column:phone;size:20" json:"phone,omitempty"`
	Level JurisdictionLevel `gorm:"column:level;type:varchar(16);not null" json:"level"`
	// Jurisdiction names the covered region, e.g. "Manchester, NH".
	Jurisdiction string    `gorm:"column:jurisdiction;size:255;not null" json:"jurisdiction"`
	IsActive     bool      `gorm:"column:is_active;not null" json:"is_active"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Authority) TableName() string { return "authorities" }

// CanVerify reports whether the authority may verify, reject or resolve hazards.
func (a Authority) CanVerify() bool {
	return a.IsActive && a.Level.CanVerify()
}
