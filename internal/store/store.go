package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"fleetcheck-backend/internal/model"
)

// Sentinel errors the lifecycle service maps onto its taxonomy.
var (
	// ErrNotFound wraps missing vehicles, templates and checklist ids.
	ErrNotFound = errors.New("not found")
	// ErrVehicleInUse is the conflict raised when a vehicle already has an
	// open checklist record.
	ErrVehicleInUse = errors.New("vehicle already has an open checklist")
	// ErrNotOpen is raised when closing a record that is not open.
	ErrNotOpen = errors.New("checklist is not open")
)

// CloseFields are the return-operation values applied when a record
// transitions open -> closed.
type CloseFields struct {
	KmFinal       float64
	FuelLevelEnd  string
	EndDate       time.Time
	InspectionEnd string
}

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	Vehicles(ctx context.Context) ([]model.Vehicle, error)
	VehicleByID(ctx context.Context, id int64) (model.Vehicle, error)
	VehicleTypeByID(ctx context.Context, id int64) (model.VehicleType, error)
	TemplateItems(ctx context.Context, templateID int64) ([]model.TemplateItem, error)

	CreateChecklist(ctx context.Context, rec model.ChecklistRecord) (model.ChecklistRecord, error)
	CloseChecklist(ctx context.Context, id string, fields CloseFields) (model.ChecklistRecord, error)
	ChecklistByID(ctx context.Context, id string) (model.ChecklistRecord, error)
	OpenChecklists(ctx context.Context) ([]model.ChecklistRecord, error)
	Checklists(ctx context.Context) ([]model.ChecklistRecord, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := s.db.WithContext(ctx).Order("plate").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *gormStore) VehicleByID(ctx context.Context, id int64) (model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := s.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Vehicle{}, fmt.Errorf("vehicle %d: %w", id, ErrNotFound)
		}
		return model.Vehicle{}, fmt.Errorf("failed to fetch vehicle %d: %w", id, err)
	}
	return vehicle, nil
}

func (s *gormStore) VehicleTypeByID(ctx context.Context, id int64) (model.VehicleType, error) {
	var vt model.VehicleType
	if err := s.db.WithContext(ctx).First(&vt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.VehicleType{}, fmt.Errorf("vehicle type %d: %w", id, ErrNotFound)
		}
		return model.VehicleType{}, fmt.Errorf("failed to fetch vehicle type %d: %w", id, err)
	}
	return vt, nil
}

// TemplateItems returns the ordered item list of a template. The template
// must exist; an existing template with no items yields an empty list, which
// the resolver renders as-is.
func (s *gormStore) TemplateItems(ctx context.Context, templateID int64) ([]model.TemplateItem, error) {
	var template model.ChecklistTemplate
	if err := s.db.WithContext(ctx).First(&template, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %d: %w", templateID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch template %d: %w", templateID, err)
	}

	var items []model.TemplateItem
	if err := s.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("position").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch items for template %d: %w", templateID, err)
	}
	return items, nil
}

// CreateChecklist persists a new open record. The open-marker row is
// inserted first inside the same transaction; its primary key on vehicle_id
// makes the one-open-record-per-vehicle rule a conditional insert instead of
// a racy query-before-insert.
func (s *gormStore) CreateChecklist(ctx context.Context, rec model.ChecklistRecord) (model.ChecklistRecord, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marker := model.ChecklistOpen{
			VehicleID:   rec.VehicleID,
			ChecklistID: rec.ID,
			OpenedAt:    rec.StartDate,
		}
		if err := tx.Create(&marker).Error; err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("vehicle %d: %w", rec.VehicleID, ErrVehicleInUse)
			}
			return fmt.Errorf("failed to mark vehicle %d open: %w", rec.VehicleID, err)
		}

		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create checklist record: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.ChecklistRecord{}, err
	}
	return rec, nil
}

// CloseChecklist applies the return fields and the open -> closed transition
// as a single commit. The status guard on the UPDATE keeps a concurrent
// close from applying twice; the vehicle's mileage counter and the open
// marker are maintained in the same transaction.
func (s *gormStore) CloseChecklist(ctx context.Context, id string, fields CloseFields) (model.ChecklistRecord, error) {
	var closed model.ChecklistRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.ChecklistRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("checklist %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to fetch checklist %s: %w", id, err)
		}
		if !rec.IsOpen() {
			return fmt.Errorf("checklist %s: %w", id, ErrNotOpen)
		}

		res := tx.Model(&model.ChecklistRecord{}).
			Where("id = ? AND status = ?", id, model.ChecklistOpenStatus).
			Updates(map[string]any{
				"status":         model.ChecklistClosedStatus,
				"km_final":       fields.KmFinal,
				"fuel_level_end": fields.FuelLevelEnd,
				"end_date":       fields.EndDate,
				"inspection_end": fields.InspectionEnd,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to close checklist %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("checklist %s: %w", id, ErrNotOpen)
		}

		if err := tx.Model(&model.Vehicle{}).
			Where("id = ?", rec.VehicleID).
			Update("mileage", fields.KmFinal).Error; err != nil {
			return fmt.Errorf("failed to update mileage for vehicle %d: %w", rec.VehicleID, err)
		}

		if err := tx.Delete(&model.ChecklistOpen{}, "vehicle_id = ?", rec.VehicleID).Error; err != nil {
			return fmt.Errorf("failed to clear open marker for vehicle %d: %w", rec.VehicleID, err)
		}

		rec.Status = model.ChecklistClosedStatus
		rec.KmFinal = &fields.KmFinal
		rec.FuelLevelEnd = &fields.FuelLevelEnd
		endDate := fields.EndDate
		rec.EndDate = &endDate
		inspectionEnd := fields.InspectionEnd
		rec.InspectionEnd = &inspectionEnd
		closed = rec
		return nil
	})
	if err != nil {
		return model.ChecklistRecord{}, err
	}
	return closed, nil
}

func (s *gormStore) ChecklistByID(ctx context.Context, id string) (model.ChecklistRecord, error) {
	var rec model.ChecklistRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ChecklistRecord{}, fmt.Errorf("checklist %s: %w", id, ErrNotFound)
		}
		return model.ChecklistRecord{}, fmt.Errorf("failed to fetch checklist %s: %w", id, err)
	}
	return rec, nil
}

// OpenChecklists returns the pending-return records, oldest first.
func (s *gormStore) OpenChecklists(ctx context.Context) ([]model.ChecklistRecord, error) {
	var records []model.ChecklistRecord
	if err := s.db.WithContext(ctx).
		Where("status = ?", model.ChecklistOpenStatus).
		Order("start_date").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list open checklists: %w", err)
	}
	return records, nil
}

// Checklists returns a snapshot of all records for analytics.
func (s *gormStore) Checklists(ctx context.Context) ([]model.ChecklistRecord, error) {
	var records []model.ChecklistRecord
	if err := s.db.WithContext(ctx).Order("start_date").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	return records, nil
}

// isDuplicateKey detects unique violations across the drivers in use
// (postgres in production, sqlite in tests) without depending on GORM's
// error translation being enabled.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
