package model

import "time"

// Checklist record statuses.
const (
	ChecklistOpenStatus   = "open"
	ChecklistClosedStatus = "closed"
)

// ChecklistRecord is one vehicle-usage session: created open by the exit
// operation, closed exactly once by the return operation.
//
// InspectionStart and InspectionEnd hold serialized item-key -> raw value
// mappings. Historical rows contain malformed or legacy payloads; decoding
// always degrades to an empty mapping instead of failing.
type ChecklistRecord struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	VehicleID       int64     `gorm:"index;not null" json:"vehicleId"`
	UserID          int64     `gorm:"index;not null" json:"userId"`
	TemplateID      *int64    `gorm:"index" json:"templateId"`
	KmInitial       float64   `gorm:"not null" json:"kmInitial"`
	FuelLevelStart  string    `gorm:"size:16;not null" json:"fuelLevelStart"`
	StartDate       time.Time `gorm:"index;not null" json:"startDate"`
	InspectionStart string    `gorm:"type:text" json:"inspectionStart"`
	Status          string    `gorm:"size:16;not null" json:"status"`

	KmFinal       *float64   `json:"kmFinal"`
	FuelLevelEnd  *string    `gorm:"size:16" json:"fuelLevelEnd"`
	EndDate       *time.Time `json:"endDate"`
	InspectionEnd *string    `gorm:"type:text" json:"inspectionEnd"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Vehicle Vehicle `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsOpen reports whether the record is still awaiting its return operation.
func (r *ChecklistRecord) IsOpen() bool {
	return r.Status == ChecklistOpenStatus
}

// ChecklistOpen marks the vehicle that currently has an open checklist
// record (hot table). The primary key on VehicleID makes "at most one open
// record per vehicle" an atomic conditional insert: a second exit for the
// same vehicle fails on the duplicate key instead of racing a
// query-before-insert check.
type ChecklistOpen struct {
	VehicleID   int64     `gorm:"primaryKey"`
	ChecklistID string    `gorm:"size:36;not null"`
	OpenedAt    time.Time `gorm:"not null"`
}
