package checklist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"fleetcheck-backend/internal/inspection"
	"fleetcheck-backend/internal/model"
	"fleetcheck-backend/internal/store"
	"fleetcheck-backend/internal/template"
)

// ValidationError reports an invalid exit/return input. Handlers map it to
// a 400 distinguishable from conflicts and missing resources.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExitRequest carries the inputs of the exit operation.
type ExitRequest struct {
	VehicleID       int64
	UserID          int64
	KmInitial       float64
	FuelLevelStart  string
	StartDate       time.Time
	InspectionStart map[string]any
}

// ReturnRequest carries the inputs of the return operation.
type ReturnRequest struct {
	ChecklistID   string
	KmFinal       float64
	FuelLevelEnd  string
	EndDate       time.Time
	InspectionEnd map[string]any
}

// Service owns the checklist record lifecycle: exit creates an open record,
// return closes it exactly once.
type Service struct {
	store    store.Store
	resolver *template.Resolver
	caches   *Invalidator
}

// NewService creates the lifecycle service. caches may be nil when no
// response cache is wired (tests).
func NewService(s store.Store, resolver *template.Resolver, caches *Invalidator) *Service {
	return &Service{store: s, resolver: resolver, caches: caches}
}

// Exit creates an open checklist record for a vehicle leaving the yard.
// It fails with store.ErrVehicleInUse when the vehicle already has an open
// record; the check-and-set is atomic in the store layer.
func (s *Service) Exit(ctx context.Context, req ExitRequest) (model.ChecklistRecord, error) {
	if req.KmInitial < 0 {
		return model.ChecklistRecord{}, validationf("kmInitial", "must be a non-negative number")
	}
	if !model.ValidFuelLevel(req.FuelLevelStart) {
		return model.ChecklistRecord{}, validationf("fuelLevelStart", "unrecognized fuel level %q", req.FuelLevelStart)
	}
	if req.StartDate.IsZero() {
		return model.ChecklistRecord{}, validationf("startDate", "is required")
	}

	vehicle, err := s.store.VehicleByID(ctx, req.VehicleID)
	if err != nil {
		return model.ChecklistRecord{}, err
	}

	rec := model.ChecklistRecord{
		ID:              uuid.NewString(),
		VehicleID:       vehicle.ID,
		UserID:          req.UserID,
		TemplateID:      s.templateForVehicle(ctx, vehicle),
		KmInitial:       req.KmInitial,
		FuelLevelStart:  req.FuelLevelStart,
		StartDate:       req.StartDate,
		InspectionStart: inspection.EncodeMap(req.InspectionStart),
		Status:          model.ChecklistOpenStatus,
	}

	created, err := s.store.CreateChecklist(ctx, rec)
	if err != nil {
		return model.ChecklistRecord{}, err
	}

	log.Printf("Checklist %s opened for vehicle %d (km %.0f)", created.ID, created.VehicleID, created.KmInitial)
	s.caches.ChecklistsChanged(created.VehicleID)
	return created, nil
}

// Return closes an open checklist record. Field validation and the
// open -> closed transition commit together in the store layer; a failed
// validation leaves the record untouched.
func (s *Service) Return(ctx context.Context, req ReturnRequest) (model.ChecklistRecord, error) {
	rec, err := s.store.ChecklistByID(ctx, req.ChecklistID)
	if err != nil {
		return model.ChecklistRecord{}, err
	}

	if !canReturn(ctx, rec.Status) {
		return model.ChecklistRecord{}, fmt.Errorf("checklist %s: %w", rec.ID, store.ErrNotOpen)
	}
	if req.KmFinal < rec.KmInitial {
		return model.ChecklistRecord{}, validationf("kmFinal",
			"%.1f is less than start mileage %.1f", req.KmFinal, rec.KmInitial)
	}
	if !model.ValidFuelLevel(req.FuelLevelEnd) {
		return model.ChecklistRecord{}, validationf("fuelLevelEnd", "unrecognized fuel level %q", req.FuelLevelEnd)
	}
	if req.EndDate.IsZero() {
		return model.ChecklistRecord{}, validationf("endDate", "is required")
	}

	if err := s.checkRequiredItems(ctx, rec, req.InspectionEnd); err != nil {
		return model.ChecklistRecord{}, err
	}

	closed, err := s.store.CloseChecklist(ctx, rec.ID, store.CloseFields{
		KmFinal:       req.KmFinal,
		FuelLevelEnd:  req.FuelLevelEnd,
		EndDate:       req.EndDate,
		InspectionEnd: inspection.EncodeMap(req.InspectionEnd),
	})
	if err != nil {
		return model.ChecklistRecord{}, err
	}

	log.Printf("Checklist %s closed for vehicle %d (km %.0f -> %.0f)",
		closed.ID, closed.VehicleID, closed.KmInitial, req.KmFinal)
	s.caches.ChecklistsChanged(closed.VehicleID)
	return closed, nil
}

// Resolve exposes the record's applicable item set, for the detail view.
func (s *Service) Resolve(ctx context.Context, id string) (model.ChecklistRecord, template.Resolved, error) {
	rec, err := s.store.ChecklistByID(ctx, id)
	if err != nil {
		return model.ChecklistRecord{}, template.Resolved{}, err
	}
	resolved, err := s.resolver.Resolve(ctx, rec)
	if err != nil {
		return model.ChecklistRecord{}, template.Resolved{}, err
	}
	return rec, resolved, nil
}

// checkRequiredItems verifies every item of the record's resolved set has a
// usable value in the return inspection mapping. The free-text notes entry
// is never required.
func (s *Service) checkRequiredItems(ctx context.Context, rec model.ChecklistRecord, mapping map[string]any) error {
	resolved, err := s.resolver.Resolve(ctx, rec)
	if err != nil {
		// A dangling explicit template reference is the record's problem,
		// not the caller's payload.
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to resolve checklist items: %w", err)
	}

	for _, item := range resolved.Items {
		if inspection.Normalize(mapping[item.Key]) == inspection.Unset {
			return validationf(item.Key, "missing required inspection item")
		}
	}
	return nil
}

// templateForVehicle snapshots the template the vehicle's type points at,
// so later resolution replays the same decision even if the type changes.
func (s *Service) templateForVehicle(ctx context.Context, vehicle model.Vehicle) *int64 {
	if vehicle.VehicleTypeID == nil {
		return nil
	}
	vt, err := s.store.VehicleTypeByID(ctx, *vehicle.VehicleTypeID)
	if err != nil {
		log.Printf("Warning: vehicle %d references unknown type %d: %v", vehicle.ID, *vehicle.VehicleTypeID, err)
		return nil
	}
	return vt.ChecklistTemplateID
}
