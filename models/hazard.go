package models

import "time"

type Hazard struct {
	ID         string       `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	HazardType HazardType   `gorm:"column:hazard_type;type:varchar(32);not null" json:"hazard_type"`
	Latitude   float64      `gorm:"column:latitude;not null" json:"latitude"`
	Longitude  float64      `gorm:"column:longitude;not null" json:"longitude"`
	ObservedAt *time.Time   `gorm:"column:observed_at" json:"observed_at,omitempty"`
	Status     HazardStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null;index" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;not null" json:"updated_at"`
	VerifiedAt *time.Time   `gorm:"column:verified_at" json:"verified_at,omitempty"`
	ResolvedAt *time.Time   `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (Hazard) TableName() string { return "hazards" }

// VisibleToDrivers is true only for VERIFIED hazards.
func (h Hazard) VisibleToDrivers() bool {
	return h.Status == StatusVerified
}
