package model

import "time"

// Vehicle statuses.
const (
	VehicleActive   = "active"
	VehicleInactive = "inactive"
)

// Vehicle represents a fleet vehicle's basic information.
type Vehicle struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Plate         string    `gorm:"uniqueIndex;size:16;not null" json:"plate"`
	Brand         string    `gorm:"size:64" json:"brand"`
	Model         string    `gorm:"size:64" json:"model"`
	Year          int       `json:"year"`
	FuelType      string    `gorm:"size:32" json:"fuelType"`
	Mileage       float64   `json:"mileage"`
	Status        string    `gorm:"size:16;not null;default:active" json:"status"`
	VehicleTypeID *int64    `gorm:"index" json:"vehicleTypeId"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`

	// Associations
	VehicleType *VehicleType `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// VehicleType is a category of vehicle. A type may reference a checklist
// template; absence of the reference means "use legacy default items".
type VehicleType struct {
	ID                  int64     `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	ChecklistTemplateID *int64    `gorm:"index" json:"checklistTemplateId"`
	CreatedAt           time.Time `json:"-"`
	UpdatedAt           time.Time `json:"-"`
}
