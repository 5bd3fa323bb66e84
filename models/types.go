package models

import (
	"database/sql/driver"
)

// HazardStatus is the lifecycle state of a hazard and the single source of
// truth for driver visibility. The zero value is not a valid status.
type HazardStatus uint8

const (
	StatusPendingAuthority HazardStatus = iota + 1
	StatusVerified
	StatusResolved
)

var hazardStatuses = newEnumTable("hazard status", map[HazardStatus]string{
	StatusPendingAuthority: "PENDING_AUTHORITY",
	StatusVerified:         "VERIFIED",
	StatusResolved:         "RESOLVED",
})

func ParseHazardStatus(s string) (HazardStatus, error) { return hazardStatuses.parse(s) }

// HazardStatusNames returns the accepted status strings in sorted order.
func HazardStatusNames() []string { return hazardStatuses.sortedNames() }

func (s HazardStatus) Valid() bool {
	_, ok := hazardStatuses.name(s)
	return ok
}

func (s HazardStatus) String() string {
	if name, ok := hazardStatuses.name(s); ok {
		return name
	}
	return "UNKNOWN"
}

func (s HazardStatus) Value() (driver.Value, error) { return hazardStatuses.value(s) }

func (s *HazardStatus) Scan(src any) error {
	v, err := hazardStatuses.scan(src)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s HazardStatus) MarshalText() ([]byte, error) {
	name, err := hazardStatuses.value(s)
	return []byte(name), err
}

func (s *HazardStatus) UnmarshalText(b []byte) error { return s.Scan(b) }

func (HazardStatus) GormDataType() string { return "string" }

// HazardType is the driver-reported category.
type HazardType uint8

const (
	HazardAccident HazardType = iota + 1
	HazardPothole
	HazardRoadblock
	HazardDebris
)

var hazardTypes = newEnumTable("hazard type", map[HazardType]string{
	HazardAccident:  "ACCIDENT",
	HazardPothole:   "POTHOLE",
	HazardRoadblock: "ROADBLOCK",
	HazardDebris:    "DEBRIS",
})

func ParseHazardType(s string) (HazardType, error) { return hazardTypes.parse(s) }

func HazardTypeNames() []string { return hazardTypes.sortedNames() }

func (t HazardType) Valid() bool {
	_, ok := hazardTypes.name(t)
	return ok
}

func (t HazardType) String() string {
	if name, ok := hazardTypes.name(t); ok {
		return name
	}
	return "UNKNOWN"
}

func (t HazardType) Value() (driver.Value, error) { return hazardTypes.value(t) }

func (t *HazardType) Scan(src any) error {
	v, err := hazardTypes.scan(src)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t HazardType) MarshalText() ([]byte, error) {
	name, err := hazardTypes.value(t)
	return []byte(name), err
}

func (t *HazardType) UnmarshalText(b []byte) error { return t.Scan(b) }

func (HazardType) GormDataType() string { return "string" }

// AuditAction tags an audit ledger entry.
type AuditAction uint8

const (
	// ActionReport exists in stored ledgers but is never written by the
	// lifecycle engine; report creation is not a status transition.
	ActionReport AuditAction = iota + 1
	ActionVerify
	ActionReject
	ActionResolve
)

var auditActions = newEnumTable("audit action", map[AuditAction]string{
	ActionReport:  "REPORT",
	ActionVerify:  "VERIFY",
	ActionReject:  "REJECT",
	ActionResolve: "RESOLVE",
})

func ParseAuditAction(s string) (AuditAction, error) { return auditActions.parse(s) }

func (a AuditAction) String() string {
	if name, ok := auditActions.name(a); ok {
		return name
	}
	return "UNKNOWN"
}

func (a AuditAction) Value() (driver.Value, error) { return auditActions.value(a) }

func (a *AuditAction) Scan(src any) error {
	v, err := auditActions.scan(src)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a AuditAction) MarshalText() ([]byte, error) {
	name, err := auditActions.value(a)
	return []byte(name), err
}

func (a *AuditAction) UnmarshalText(b []byte) error { return a.Scan(b) }

func (AuditAction) GormDataType() string { return "string" }

// JurisdictionLevel is the geographic scope of an authority.
type JurisdictionLevel uint8

const (
	LevelLocal JurisdictionLevel = iota + 1
	LevelState
	LevelNational
)

var jurisdictionLevels = newEnumTable("jurisdiction level", map[JurisdictionLevel]string{
	LevelLocal:    "LOCAL",
	LevelState:    "STATE",
	LevelNational: "NATIONAL",
})

func ParseJurisdictionLevel(s string) (JurisdictionLevel, error) {
	return jurisdictionLevels.parse(s)
}

func (l JurisdictionLevel) Valid() bool {
	_, ok := jurisdictionLevels.name(l)
	return ok
}

// CanVerify reports whether authorities at this level may transition
// hazards. NATIONAL authorities are read-only.
func (l JurisdictionLevel) CanVerify() bool {
	return l == LevelLocal || l == LevelState
}

func (l JurisdictionLevel) String() string {
	if name, ok := jurisdictionLevels.name(l); ok {
		return name
	}
	return "UNKNOWN"
}

func (l JurisdictionLevel) Value() (driver.Value, error) { return jurisdictionLevels.value(l) }

func (l *JurisdictionLevel) Scan(src any) error {
	v, err := jurisdictionLevels.scan(src)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l JurisdictionLevel) MarshalText() ([]byte, error) {
	name, err := jurisdictionLevels.value(l)
	return []byte(name), err
}

func (l *JurisdictionLevel) UnmarshalText(b []byte) error { return l.Scan(b) }

func (JurisdictionLevel) GormDataType() string { return "string" }
