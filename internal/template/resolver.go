package template

import (
	"context"
	"log"
	"sort"
	"strings"

	"fleetcheck-backend/internal/inspection"
	"fleetcheck-backend/internal/model"
	"fleetcheck-backend/internal/settings"
)

// ModernKeyPrefix marks inspection keys written against a checklist
// template. Stored mappings whose keys all lack the prefix predate templates
// and must resolve to the legacy configuration.
const ModernKeyPrefix = "obs_"

// Resolution sources reported in Resolved.
const (
	SourceTemplate = "template"
	SourceLegacy   = "legacy"
)

// Catalog provides the lookups resolution depends on.
type Catalog interface {
	TemplateItems(ctx context.Context, templateID int64) ([]model.TemplateItem, error)
	VehicleByID(ctx context.Context, id int64) (model.Vehicle, error)
	VehicleTypeByID(ctx context.Context, id int64) (model.VehicleType, error)
}

// Resolved is the ordered item set and group set a checklist record renders
// and validates against.
type Resolved struct {
	Items  []model.TemplateItem `json:"items"`
	Groups []Group              `json:"groups"`
	Source string               `json:"source"`
}

// Resolver replays, deterministically for a record's stored data, the
// decision of which inspection item set applies to it.
type Resolver struct {
	catalog Catalog
	source  settings.Source
}

// NewResolver creates a resolver. source may be nil, in which case the
// built-in legacy items are the only fallback.
func NewResolver(catalog Catalog, source settings.Source) *Resolver {
	return &Resolver{catalog: catalog, source: source}
}

// Resolve returns the item and group set for a checklist record.
//
// An explicit template reference always wins, even when the template's item
// list is empty: substituting legacy items there would mismatch the keys the
// record was written with. Without a reference, a non-empty stored mapping
// whose keys all lack the modern prefix identifies a legacy record
// regardless of the vehicle's type.
func (r *Resolver) Resolve(ctx context.Context, rec model.ChecklistRecord) (Resolved, error) {
	if rec.TemplateID != nil {
		items, err := r.catalog.TemplateItems(ctx, *rec.TemplateID)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Items: items, Groups: GroupsFor(items), Source: SourceTemplate}, nil
	}

	if looksLegacy(inspection.DecodeMap(rec.InspectionStart)) {
		items := legacyFallback(ctx, r.source)
		return Resolved{Items: items, Groups: GroupsFor(items), Source: SourceLegacy}, nil
	}

	if items, ok := r.itemsFromVehicleType(ctx, rec.VehicleID); ok {
		return Resolved{Items: items, Groups: GroupsFor(items), Source: SourceTemplate}, nil
	}

	items := legacyFallback(ctx, r.source)
	return Resolved{Items: items, Groups: GroupsFor(items), Source: SourceLegacy}, nil
}

// looksLegacy applies the historical key-prefix heuristic: a non-empty
// mapping with no modern-prefixed key was written before templates existed.
// An empty mapping is not classified as legacy and defers to vehicle-type
// inference.
func looksLegacy(mapping map[string]any) bool {
	if len(mapping) == 0 {
		return false
	}
	for key := range mapping {
		if strings.HasPrefix(key, ModernKeyPrefix) {
			return false
		}
	}
	return true
}

// itemsFromVehicleType infers the template through the record's vehicle
// type. Any miss along the chain (vehicle gone, untyped vehicle, type
// without a template) reports !ok so the caller falls back to legacy items.
func (r *Resolver) itemsFromVehicleType(ctx context.Context, vehicleID int64) ([]model.TemplateItem, bool) {
	vehicle, err := r.catalog.VehicleByID(ctx, vehicleID)
	if err != nil {
		log.Printf("Template inference: vehicle %d lookup failed: %v", vehicleID, err)
		return nil, false
	}
	if vehicle.VehicleTypeID == nil {
		return nil, false
	}

	vt, err := r.catalog.VehicleTypeByID(ctx, *vehicle.VehicleTypeID)
	if err != nil {
		log.Printf("Template inference: vehicle type %d lookup failed: %v", *vehicle.VehicleTypeID, err)
		return nil, false
	}
	if vt.ChecklistTemplateID == nil {
		return nil, false
	}

	items, err := r.catalog.TemplateItems(ctx, *vt.ChecklistTemplateID)
	if err != nil {
		log.Printf("Template inference: items for template %d failed: %v", *vt.ChecklistTemplateID, err)
		return nil, false
	}
	return items, true
}

// GroupsFor derives the group list for an item set: distinct group keys in
// item order, labeled from the static legacy groups when one matches (raw
// key otherwise). Groups present in the static ordering come first in that
// order; the rest keep their discovery order.
func GroupsFor(items []model.TemplateItem) []Group {
	type ranked struct {
		group Group
		rank  int
	}

	seen := make(map[string]bool)
	var discovered []ranked
	for _, item := range items {
		key := item.GroupKey
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		label := legacyGroupLabel(key)
		if label == "" {
			label = key
		}

		rank := legacyGroupIndex(key)
		if rank < 0 {
			rank = len(legacyGroups) + len(discovered)
		}
		discovered = append(discovered, ranked{group: Group{Key: key, Label: label}, rank: rank})
	}

	sort.SliceStable(discovered, func(i, j int) bool {
		return discovered[i].rank < discovered[j].rank
	})

	groups := make([]Group, 0, len(discovered))
	for _, d := range discovered {
		groups = append(groups, d.group)
	}
	return groups
}
