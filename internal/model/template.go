package model

import "time"

// ChecklistTemplate is a named, ordered collection of inspection items.
type ChecklistTemplate struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Items []TemplateItem `gorm:"foreignKey:TemplateID" json:"items,omitempty"`
}

// TemplateItem is a single inspection item inside a template. Key is the
// stable identifier stored in checklist inspection mappings; modern keys
// carry the "obs_" prefix.
type TemplateItem struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	TemplateID     int64  `gorm:"index;not null" json:"templateId"`
	Key            string `gorm:"size:64;not null" json:"key"`
	Label          string `gorm:"size:256;not null" json:"label"`
	Column         int    `gorm:"not null;default:1" json:"column"`
	GroupKey       string `gorm:"size:64" json:"group"`
	Position       int    `gorm:"not null" json:"position"`
	DefaultChecked bool   `json:"defaultChecked"`
}
